package middleware

import (
	"crypto/subtle"
	"net/http"

	"InvoiceRoom/pkg/apierror"
	"InvoiceRoom/pkg/response"
)

// AdminKeyHeader - заголовок с ключом администратора.
const AdminKeyHeader = "X-Admin-Key"

// AdminKey пропускает только запросы с верным X-Admin-Key.
// Пустой key закрывает административные маршруты полностью.
func AdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(AdminKeyHeader)
			if key == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				response.Error(w, apierror.Unauthorized("admin key required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
