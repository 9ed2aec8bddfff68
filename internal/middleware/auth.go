package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName - cookie с сессией продавца.
const CookieName = "auth_token"

// DefaultSessionTTL - срок жизни сессии, если не задан в конфигурации.
const DefaultSessionTTL = 24 * time.Hour

const sessionKey contextKey = "seller_session"

var secureCookies bool

// SetSecureCookies включает флаг Secure у cookie сессии (при работе за HTTPS).
func SetSecureCookies(on bool) {
	secureCookies = on
}

// Session - продавец, вошедший в конкретную комнату.
type Session struct {
	RoomHash string
	SellerID uint
}

// Claims - содержимое JWT сессии.
type Claims struct {
	jwt.RegisteredClaims
	RoomHash string `json:"room_hash"`
	SellerID uint   `json:"seller_id"`
}

// NewSessionToken подписывает JWT сессии (HS256).
func NewSessionToken(s Session, secret string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		RoomHash: s.RoomHash,
		SellerID: s.SellerID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseSessionToken проверяет подпись и срок действия токена.
func ParseSessionToken(token, secret string) (Session, error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Session{}, err
	}
	if !t.Valid || claims.RoomHash == "" {
		return Session{}, fmt.Errorf("invalid session token")
	}
	return Session{RoomHash: claims.RoomHash, SellerID: claims.SellerID}, nil
}

// SetLoginCookie выдаёт cookie сессии продавца.
func SetLoginCookie(w http.ResponseWriter, s Session, secret string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	token, err := NewSessionToken(s, secret, ttl)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secureCookies,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
	})
	return nil
}

// ClearLoginCookie удаляет cookie сессии.
func ClearLoginCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secureCookies,
		MaxAge:   -1,
	})
}

// WithAuth кладёт сессию продавца в контекст, если cookie валидна.
// Без cookie запрос проходит анонимным: права проверяют хендлеры.
func WithAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(CookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			s, err := ParseSessionToken(c.Value, secret)
			if err != nil {
				log.Debugw("session rejected", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, s)))
		})
	}
}

// GetSessionFromContext возвращает сессию продавца, если она есть.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok
}
