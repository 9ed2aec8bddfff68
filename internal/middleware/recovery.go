package middleware

import (
	"net/http"
	"runtime/debug"

	"InvoiceRoom/pkg/apierror"
	"InvoiceRoom/pkg/response"
)

// Recovery превращает панику хендлера в ответ 500.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Errorw("panic recovered",
					"panic", rec,
					"request_id", GetRequestID(r.Context()),
					"stack", string(debug.Stack()),
				)
				response.Error(w, apierror.InternalError("internal server error"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
