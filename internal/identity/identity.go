// Package identity выдаёт непрозрачные идентификаторы комнат и покупателей,
// ключи верификации и хэширует секреты продавцов.
package identity

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/bcrypt"
)

// OpaqueIDLength - длина room_hash и buyer_hash в символах.
const OpaqueIDLength = 32

// ErrEmptySecret возвращается до попытки хэширования пустого секрета.
var ErrEmptySecret = errors.New("secret key is empty")

// BcryptCost можно понизить в тестах.
var BcryptCost = bcrypt.DefaultCost

// NewOpaqueID собирает uuid, 32 случайных байта и наносекундную метку времени,
// хэширует их BLAKE3 и обрезает hex до OpaqueIDLength.
// Обратить результат во внутренний ключ нельзя.
func NewOpaqueID() (string, error) {
	entropy := make([]byte, 32)
	if _, err := rand.Read(entropy); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(time.Now().UnixNano()))

	h := blake3.New()
	_, _ = h.Write([]byte(uuid.NewString()))
	_, _ = h.Write(entropy)
	_, _ = h.Write(ts[:])
	return hex.EncodeToString(h.Sum(nil))[:OpaqueIDLength], nil
}

// NewVerificationKey возвращает URL-safe токен (43 символа).
// Ключ сам по себе является секретом и не хэшируется.
func NewVerificationKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashSecret хэширует секрет продавца bcrypt-ом.
func HashSecret(raw string) (string, error) {
	if raw == "" {
		return "", ErrEmptySecret
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

// VerifySecret сверяет сырой секрет с bcrypt-хэшем.
func VerifySecret(raw, hash string) bool {
	if raw == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}
