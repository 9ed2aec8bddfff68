package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

var log = zap.NewNop().Sugar()

// SetLogger задаёт логгер для всех мидлварей пакета.
func SetLogger(l *zap.SugaredLogger) {
	if l != nil {
		log = l
	}
}

type responseData struct {
	status int
	size   int
}

// loggingResponseWriter запоминает код и размер ответа.
type loggingResponseWriter struct {
	http.ResponseWriter
	data *responseData
}

func (w *loggingResponseWriter) Write(b []byte) (int, error) {
	size, err := w.ResponseWriter.Write(b)
	w.data.size += size
	return size, err
}

func (w *loggingResponseWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.data.status = statusCode
}

// Hijack нужен для апгрейда websocket через обёрнутый writer.
func (w *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.data.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *loggingResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// WithLogging логирует метод, URI, код, размер ответа и длительность запроса.
func WithLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		data := &responseData{status: http.StatusOK}
		lw := &loggingResponseWriter{ResponseWriter: w, data: data}

		h.ServeHTTP(lw, r)

		log.Infow("request",
			"method", r.Method,
			"uri", r.RequestURI,
			"status", data.status,
			"size", data.size,
			"duration", time.Since(start),
			"request_id", GetRequestID(r.Context()),
		)
	})
}
