package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"InvoiceRoom/internal/service"
	"InvoiceRoom/pkg/apierror"
	"InvoiceRoom/pkg/response"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// writeError переводит ошибку сервиса в ответ API.
func writeError(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	var (
		apiErr *apierror.Error
		pe     *service.PreconditionError
		ve     *service.ValidationError
	)
	switch {
	case errors.As(err, &apiErr):
		response.Error(w, apiErr)
	case errors.As(err, &pe):
		expected := make([]string, 0, len(pe.Expected))
		for _, s := range pe.Expected {
			expected = append(expected, string(s))
		}
		response.Error(w, apierror.PreconditionFailed(pe.Error(), string(pe.Current), expected...))
	case errors.As(err, &ve):
		details := make([]apierror.FieldError, 0, len(ve.Fields))
		for _, f := range ve.Fields {
			details = append(details, apierror.FieldError{Field: f.Field, Message: f.Message})
		}
		response.Error(w, apierror.ValidationError("validation failed", details...))
	case errors.Is(err, service.ErrNotFound):
		response.Error(w, apierror.NotFound("room not found"))
	case errors.Is(err, service.ErrUnauthorized):
		response.Error(w, apierror.Unauthorized("invalid credentials"))
	case errors.Is(err, service.ErrConflict):
		response.Error(w, apierror.Conflict("room already has a buyer"))
	default:
		log.Errorw("request failed", "error", err)
		response.Error(w, apierror.InternalError(""))
	}
}

// decodeJSON читает тело запроса; пустое тело оставляет dst нетронутым.
// Поле неверного типа попадает в details.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apierror.BadRequest("invalid JSON body").WithDetails(apierror.FieldError{
			Field:   typeErr.Field,
			Message: "must be " + typeErr.Type.String(),
		})
	}
	return apierror.BadRequest("invalid JSON body")
}
