package service

import (
	"context"
	"testing"

	"InvoiceRoom/internal/ledger"
	"InvoiceRoom/internal/model"
	"InvoiceRoom/internal/repo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// lostRaceRepo отвечает так, будто статус счёта сменил параллельный переход
type lostRaceRepo struct{ repo.NegotiationRepository }

func (lostRaceRepo) Apply(context.Context, string, repo.MutateFunc) (*model.Room, error) {
	return nil, repo.ErrStaleStatus
}

func TestNegotiator_LostRaceIsPrecondition(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	room := f.create(t, singleInput())

	neg := NewNegotiator(repo.NewRoomRepository(f.db), lostRaceRepo{repo.NewNegotiationRepository(f.db)}, f.hub, zap.NewNop().Sugar())

	var pe *PreconditionError
	_, err := neg.EditInvoice(ctx, room.RoomHash, ledger.Edit{Quantity: ptr("3")})
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "edit_invoice", pe.Transition)
	assert.Equal(t, model.StatusDraft, pe.Current)
	assert.Contains(t, pe.Expected, model.StatusFinalized)

	_, err = neg.StartNegotiation(ctx, room.RoomHash)
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "start_negotiation", pe.Transition)

	// ничего не записано
	assert.Equal(t, []model.HistoryAction{model.ActionCreated}, f.actions(t, room.RoomHash))
}
