package service

import (
	"context"
	"crypto/subtle"

	"InvoiceRoom/internal/broadcast"
	"InvoiceRoom/internal/model"
	"InvoiceRoom/internal/repo"

	"go.uber.org/zap"
)

// RoomService - чтение комнат и административные операции.
type RoomService struct {
	rooms repo.RoomRepository
	log   *zap.SugaredLogger
}

func NewRoomService(rooms repo.RoomRepository, log *zap.SugaredLogger) *RoomService {
	return &RoomService{rooms: rooms, log: log}
}

// Get возвращает комнату целиком.
func (s *RoomService) Get(ctx context.Context, roomHash string) (*model.Room, error) {
	room, err := s.rooms.GetByHash(ctx, roomHash)
	if err != nil {
		return nil, translate(err)
	}
	return room, nil
}

// State возвращает снимок комнаты для нового подключения к рассылке.
func (s *RoomService) State(ctx context.Context, roomHash string) (broadcast.RoomState, error) {
	room, err := s.Get(ctx, roomHash)
	if err != nil {
		return broadcast.RoomState{}, err
	}
	return StateOf(room), nil
}

// StateOf строит снимок из загруженной комнаты.
func StateOf(room *model.Room) broadcast.RoomState {
	st := broadcast.RoomState{
		RoomHash:        room.RoomHash,
		IsBuyerAssigned: room.IsBuyerAssigned,
		HasSeller:       room.Seller != nil,
		HasBuyer:        room.Buyer != nil,
		HasInvoice:      room.Invoice != nil,
	}
	if room.Invoice != nil {
		status := string(room.Invoice.Status)
		st.InvoiceStatus = &status
	}
	return st
}

// History возвращает журнал комнаты, новые записи первыми.
func (s *RoomService) History(ctx context.Context, roomHash string) ([]model.NegotiationHistory, error) {
	room, err := s.Get(ctx, roomHash)
	if err != nil {
		return nil, err
	}
	entries, err := s.rooms.History(ctx, room.ID)
	if err != nil {
		return nil, translate(err)
	}
	return entries, nil
}

// Verify находит комнату по ключу проверки.
func (s *RoomService) Verify(ctx context.Context, key string) (*model.Room, error) {
	if key == "" {
		return nil, ErrNotFound
	}
	room, err := s.rooms.GetByVerificationKey(ctx, key)
	if err != nil {
		return nil, translate(err)
	}
	return room, nil
}

// ForBuyer возвращает комнату, если buyerHash совпадает с её покупателем.
func (s *RoomService) ForBuyer(ctx context.Context, roomHash, buyerHash string) (*model.Room, error) {
	room, err := s.Get(ctx, roomHash)
	if err != nil {
		return nil, err
	}
	if room.Buyer == nil || buyerHash == "" ||
		subtle.ConstantTimeCompare([]byte(room.Buyer.BuyerHash), []byte(buyerHash)) != 1 {
		return nil, ErrUnauthorized
	}
	return room, nil
}

// List возвращает все комнаты, новые первыми.
func (s *RoomService) List(ctx context.Context) ([]model.Room, error) {
	return s.rooms.List(ctx)
}

// Delete удаляет комнату со всем содержимым.
func (s *RoomService) Delete(ctx context.Context, roomHash string) error {
	if err := s.rooms.Delete(ctx, roomHash); err != nil {
		return translate(err)
	}
	s.log.Infow("room deleted", "room_hash", roomHash)
	return nil
}
