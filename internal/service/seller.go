package service

import (
	"context"

	"InvoiceRoom/internal/identity"
	"InvoiceRoom/internal/model"
	"InvoiceRoom/internal/repo"

	"go.uber.org/zap"
)

// SellerAuthenticator проверяет секрет продавца. Состояние сессии хранит
// транспорт, сервис только сопоставляет секрет с продавцом.
type SellerAuthenticator struct {
	sellers repo.SellerRepository
	rooms   repo.RoomRepository
	log     *zap.SugaredLogger
}

func NewSellerAuthenticator(sellers repo.SellerRepository, rooms repo.RoomRepository, log *zap.SugaredLogger) *SellerAuthenticator {
	return &SellerAuthenticator{sellers: sellers, rooms: rooms, log: log}
}

// Authenticate ищет продавца, чей хэш совпадает с raw, и возвращает его комнату.
func (a *SellerAuthenticator) Authenticate(ctx context.Context, raw string) (*model.Room, error) {
	if raw == "" {
		return nil, ErrUnauthorized
	}
	sellers, err := a.sellers.ListWithSecret(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range sellers {
		if identity.VerifySecret(raw, s.SecretHash) {
			room, err := a.rooms.GetByID(ctx, s.RoomID)
			if err != nil {
				return nil, translate(err)
			}
			return room, nil
		}
	}
	return nil, ErrUnauthorized
}

// AuthenticateRoom проверяет секрет продавца конкретной комнаты.
func (a *SellerAuthenticator) AuthenticateRoom(ctx context.Context, roomHash, raw string) (*model.Room, error) {
	room, err := a.rooms.GetByHash(ctx, roomHash)
	if err != nil {
		return nil, translate(err)
	}
	if raw == "" || room.Seller == nil || !identity.VerifySecret(raw, room.Seller.SecretHash) {
		return nil, ErrUnauthorized
	}
	return room, nil
}

// SetSecret задаёт или заменяет секрет продавца комнаты.
func (a *SellerAuthenticator) SetSecret(ctx context.Context, roomHash, raw string) error {
	if err := identity.ValidateSecretPolicy(raw); err != nil {
		return secretError("secret_key", err)
	}
	room, err := a.rooms.GetByHash(ctx, roomHash)
	if err != nil {
		return translate(err)
	}
	if room.Seller == nil {
		return ErrNotFound
	}
	hash, err := identity.HashSecret(raw)
	if err != nil {
		return err
	}
	if err := a.sellers.SetSecret(ctx, room.Seller.ID, hash); err != nil {
		return translate(err)
	}
	a.log.Infow("seller secret updated", "room_hash", roomHash)
	return nil
}
