package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"slices"
	"strings"
	"time"

	"InvoiceRoom/internal/broadcast"
	"InvoiceRoom/internal/identity"
	"InvoiceRoom/internal/ledger"
	"InvoiceRoom/internal/model"
	"InvoiceRoom/internal/repo"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// transition описывает один переход машины состояний счёта.
type transition struct {
	name   string
	actor  model.Actor
	action model.HistoryAction
	from   []model.InvoiceStatus
	to     model.InvoiceStatus
	notes  string
	stamp  func(inv *model.Invoice, now time.Time)
}

var (
	startNegotiation = transition{
		name:   "start_negotiation",
		actor:  model.ActorSeller,
		action: model.ActionNegotiationStarted,
		from:   []model.InvoiceStatus{model.StatusDraft, model.StatusRejected},
		to:     model.StatusNegotiating,
		notes:  "Negotiation started by seller",
	}
	approve = transition{
		name:   "approve",
		actor:  model.ActorBuyer,
		action: model.ActionApproved,
		from:   []model.InvoiceStatus{model.StatusDraft, model.StatusNegotiating},
		to:     model.StatusPending,
		notes:  "Invoice approved by buyer",
		stamp: func(inv *model.Invoice, now time.Time) {
			if inv.BuyerApprovedAt == nil {
				inv.BuyerApprovedAt = &now
			}
		},
	}
	disapprove = transition{
		name:   "disapprove",
		actor:  model.ActorBuyer,
		action: model.ActionDisapproved,
		from:   []model.InvoiceStatus{model.StatusDraft, model.StatusNegotiating, model.StatusPending},
		to:     model.StatusNegotiating,
		notes:  "Invoice disapproved by buyer",
	}
	reject = transition{
		name:   "reject",
		actor:  model.ActorBuyer,
		action: model.ActionRejected,
		from:   []model.InvoiceStatus{model.StatusNegotiating, model.StatusPending},
		to:     model.StatusRejected,
		notes:  "Invoice rejected by buyer",
	}
	markPaid = transition{
		name:   "mark_paid",
		actor:  model.ActorBuyer,
		action: model.ActionPaid,
		from:   []model.InvoiceStatus{model.StatusPending},
		to:     model.StatusUnconfirmedPayment,
		notes:  "Buyer marked invoice as paid",
		stamp: func(inv *model.Invoice, now time.Time) {
			if inv.BuyerPaidAt == nil {
				inv.BuyerPaidAt = &now
			}
		},
	}
	// editInvoice допустима из любого состояния и всегда возвращает счёт в draft.
	editInvoice = transition{
		name:   "edit_invoice",
		actor:  model.ActorSeller,
		action: model.ActionEdited,
		from: []model.InvoiceStatus{
			model.StatusDraft, model.StatusNegotiating, model.StatusPending,
			model.StatusUnconfirmedPayment, model.StatusFinalized, model.StatusRejected,
		},
		to:    model.StatusDraft,
		notes: "Invoice edited by seller",
	}
	confirmPayment = transition{
		name:   "confirm_payment",
		actor:  model.ActorSeller,
		action: model.ActionConfirmed,
		from:   []model.InvoiceStatus{model.StatusUnconfirmedPayment},
		to:     model.StatusFinalized,
		notes:  "Seller confirmed payment",
		stamp: func(inv *model.Invoice, now time.Time) {
			if inv.SellerConfirmedAt == nil {
				inv.SellerConfirmedAt = &now
			}
		},
	}
)

// CreateInput - данные продавца для создания комнаты со счётом.
type CreateInput struct {
	Seller    model.Party
	SecretKey string
	Invoice   ledger.Fields
}

// Negotiator - машина состояний переговоров. Каждый переход выполняется одной
// транзакцией хранилища; событие публикуется только после фиксации.
type Negotiator struct {
	rooms  repo.RoomRepository
	tx     repo.NegotiationRepository
	broker broadcast.Broker
	log    *zap.SugaredLogger
	now    func() time.Time
}

// NewNegotiator создаёт машину состояний.
func NewNegotiator(rooms repo.RoomRepository, tx repo.NegotiationRepository, broker broadcast.Broker, log *zap.SugaredLogger) *Negotiator {
	return &Negotiator{
		rooms:  rooms,
		tx:     tx,
		broker: broker,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateInvoice создаёт комнату, продавца, счёт в статусе draft и запись журнала created.
func (n *Negotiator) CreateInvoice(ctx context.Context, in CreateInput) (*model.Room, error) {
	in.Seller = trimParty(in.Seller)
	if in.Seller.Fullname == "" {
		return nil, fieldError("seller.fullname", "must not be empty")
	}

	var secretHash string
	if in.SecretKey != "" {
		if err := identity.ValidateSecretPolicy(in.SecretKey); err != nil {
			return nil, secretError("secret_key", err)
		}
		h, err := identity.HashSecret(in.SecretKey)
		if err != nil {
			return nil, err
		}
		secretHash = h
	}

	// room_hash случайный: при совпадении уникального индекса пробуем ещё раз
	for attempt := 1; ; attempt++ {
		room, err := n.newRoom(in, secretHash)
		if err != nil {
			return nil, err
		}
		entry := n.entry(model.ActionCreated, model.ActorSeller, "Invoice created by seller", n.now())

		err = n.rooms.Create(ctx, room, entry)
		if err == nil {
			n.log.Infow("room created", "room_hash", room.RoomHash, "kind", room.Invoice.Kind)
			return room, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt >= 2 {
			return nil, err
		}
		n.log.Warnw("room identifier collision, retrying", "attempt", attempt)
	}
}

func (n *Negotiator) newRoom(in CreateInput, secretHash string) (*model.Room, error) {
	roomHash, err := identity.NewOpaqueID()
	if err != nil {
		return nil, err
	}
	key, err := identity.NewVerificationKey()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	inv, err := ledger.NewInvoice(id, in.Invoice, n.now())
	if err != nil {
		return nil, err
	}

	return &model.Room{
		ID:              id,
		RoomHash:        roomHash,
		VerificationKey: key,
		SellerHash:      secretHash,
		Seller:          &model.Seller{RoomID: id, Party: in.Seller, SecretHash: secretHash},
		Invoice:         inv,
	}, nil
}

// StartNegotiation переводит счёт из draft или rejected в negotiating.
func (n *Negotiator) StartNegotiation(ctx context.Context, roomHash string) (*model.Room, error) {
	return n.apply(ctx, roomHash, startNegotiation, "", "")
}

// EditInvoice применяет правку продавца; статус всегда возвращается в draft.
func (n *Negotiator) EditInvoice(ctx context.Context, roomHash string, edit ledger.Edit) (*model.Room, error) {
	var entry *model.NegotiationHistory
	room, err := n.tx.Apply(ctx, roomHash, func(room *model.Room) (*repo.Mutation, error) {
		if room.Seller == nil {
			return nil, ErrNotFound
		}
		replaced, err := ledger.ApplyEdit(room.Invoice, edit)
		if err != nil {
			return nil, err
		}
		entry = n.entry(editInvoice.action, editInvoice.actor, editInvoice.notes, n.now())
		return &repo.Mutation{Entry: entry, ReplaceItems: replaced}, nil
	})
	if errors.Is(err, repo.ErrStaleStatus) {
		return nil, n.stale(ctx, roomHash, editInvoice)
	}
	if err != nil {
		return nil, translate(err)
	}
	n.publish(ctx, room, entry)
	return room, nil
}

// JoinRoom назначает единственного покупателя комнаты и выдаёт ему buyer_hash.
func (n *Negotiator) JoinRoom(ctx context.Context, roomHash string, buyer model.Party) (*model.Room, error) {
	buyer = trimParty(buyer)
	if buyer.Fullname == "" {
		return nil, fieldError("buyer.fullname", "must not be empty")
	}
	buyerHash, err := identity.NewOpaqueID()
	if err != nil {
		return nil, err
	}

	entry := n.entry(model.ActionBuyerJoined, model.ActorBuyer, "Buyer joined the room", n.now())
	room, err := n.tx.AssignBuyer(ctx, roomHash, &model.Buyer{BuyerHash: buyerHash, Party: buyer}, entry)
	if err != nil {
		return nil, translate(err)
	}
	n.log.Infow("buyer joined", "room_hash", roomHash)
	n.publish(ctx, room, entry)
	return room, nil
}

// Approve - покупатель одобряет счёт.
func (n *Negotiator) Approve(ctx context.Context, roomHash, buyerHash string) (*model.Room, error) {
	return n.apply(ctx, roomHash, approve, buyerHash, "")
}

// Disapprove - покупатель возвращает счёт на согласование с комментарием.
func (n *Negotiator) Disapprove(ctx context.Context, roomHash, buyerHash, notes string) (*model.Room, error) {
	return n.apply(ctx, roomHash, disapprove, buyerHash, notes)
}

// Reject - покупатель отклоняет счёт; продавец может начать переговоры заново.
func (n *Negotiator) Reject(ctx context.Context, roomHash, buyerHash, notes string) (*model.Room, error) {
	return n.apply(ctx, roomHash, reject, buyerHash, notes)
}

// MarkPaid - покупатель сообщает об оплате.
func (n *Negotiator) MarkPaid(ctx context.Context, roomHash, buyerHash string) (*model.Room, error) {
	return n.apply(ctx, roomHash, markPaid, buyerHash, "")
}

// ConfirmPayment - продавец подтверждает оплату, счёт закрывается.
func (n *Negotiator) ConfirmPayment(ctx context.Context, roomHash string) (*model.Room, error) {
	return n.apply(ctx, roomHash, confirmPayment, "", "")
}

func (n *Negotiator) apply(ctx context.Context, roomHash string, t transition, buyerHash, notes string) (*model.Room, error) {
	if notes = strings.TrimSpace(notes); notes == "" {
		notes = t.notes
	}

	var entry *model.NegotiationHistory
	room, err := n.tx.Apply(ctx, roomHash, func(room *model.Room) (*repo.Mutation, error) {
		switch t.actor {
		case model.ActorBuyer:
			if !buyerMatches(room, buyerHash) {
				return nil, ErrUnauthorized
			}
		case model.ActorSeller:
			if room.Seller == nil {
				return nil, ErrNotFound
			}
		}

		inv := room.Invoice
		if !slices.Contains(t.from, inv.Status) {
			return nil, &PreconditionError{Transition: t.name, Current: inv.Status, Expected: t.from}
		}

		now := n.now()
		inv.Status = t.to
		if t.stamp != nil {
			t.stamp(inv, now)
		}
		entry = n.entry(t.action, t.actor, notes, now)
		return &repo.Mutation{Entry: entry}, nil
	})
	if errors.Is(err, repo.ErrStaleStatus) {
		return nil, n.stale(ctx, roomHash, t)
	}
	if err != nil {
		var pe *PreconditionError
		if errors.As(err, &pe) {
			n.log.Infow("transition rejected", "room_hash", roomHash, "transition", t.name, "status", pe.Current)
		}
		return nil, translate(err)
	}

	n.log.Infow("transition applied", "room_hash", roomHash, "transition", t.name, "status", t.to)
	n.publish(ctx, room, entry)
	return room, nil
}

// stale строит ошибку предусловия для проигравшего в гонке переходов.
func (n *Negotiator) stale(ctx context.Context, roomHash string, t transition) error {
	pe := &PreconditionError{Transition: t.name, Expected: t.from}
	if room, err := n.rooms.GetByHash(ctx, roomHash); err == nil && room.Invoice != nil {
		pe.Current = room.Invoice.Status
	}
	return pe
}

func buyerMatches(room *model.Room, buyerHash string) bool {
	if room.Buyer == nil || buyerHash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(room.Buyer.BuyerHash), []byte(buyerHash)) == 1
}

func (n *Negotiator) entry(action model.HistoryAction, actor model.Actor, notes string, now time.Time) *model.NegotiationHistory {
	return &model.NegotiationHistory{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Action:    action,
		Actor:     actor,
		Notes:     notes,
		CreatedAt: now,
	}
}

// publish рассылает событие после фиксации; ошибка рассылки переход не отменяет.
func (n *Negotiator) publish(ctx context.Context, room *model.Room, entry *model.NegotiationHistory) {
	if n.broker == nil || room == nil || entry == nil {
		return
	}
	u := broadcast.Update{
		RoomHash:  room.RoomHash,
		Action:    string(entry.Action),
		Actor:     string(entry.Actor),
		Notes:     entry.Notes,
		Timestamp: entry.CreatedAt,
	}
	if room.Invoice != nil {
		u.Status = string(room.Invoice.Status)
	}
	payload, err := broadcast.UpdateEvent(u)
	if err != nil {
		n.log.Errorw("encode negotiation update", "room_hash", room.RoomHash, "error", err)
		return
	}
	if err := n.broker.Publish(context.WithoutCancel(ctx), room.RoomHash, payload); err != nil {
		n.log.Errorw("publish negotiation update", "room_hash", room.RoomHash, "error", err)
	}
}

func trimParty(p model.Party) model.Party {
	return model.Party{
		Fullname:       strings.TrimSpace(p.Fullname),
		Email:          strings.TrimSpace(p.Email),
		Phone:          strings.TrimSpace(p.Phone),
		SocialMedia:    strings.TrimSpace(p.SocialMedia),
		ProfilePicture: strings.TrimSpace(p.ProfilePicture),
	}
}
