package service

import (
	"errors"
	"fmt"
	"strings"

	"InvoiceRoom/internal/identity"
	"InvoiceRoom/internal/ledger"
	"InvoiceRoom/internal/model"
	"InvoiceRoom/internal/repo"

	"gorm.io/gorm"
)

var (
	// ErrNotFound - комната, счёт или ключ проверки неизвестны.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized - неверный buyer_hash или секрет продавца.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict - в комнате уже есть покупатель.
	ErrConflict = errors.New("conflict")
)

// ValidationError - входные данные отклонены целиком, с указанием полей.
type ValidationError = ledger.ValidationError

// PreconditionError - переход недопустим из текущего статуса счёта.
type PreconditionError struct {
	Transition string
	Current    model.InvoiceStatus
	Expected   []model.InvoiceStatus
}

func (e *PreconditionError) Error() string {
	exp := make([]string, 0, len(e.Expected))
	for _, s := range e.Expected {
		exp = append(exp, string(s))
	}
	return fmt.Sprintf("%s not allowed: invoice status is %q, expected %s",
		e.Transition, e.Current, strings.Join(exp, " or "))
}

func fieldError(field, msg string) error {
	return &ValidationError{Fields: []ledger.FieldError{{Field: field, Message: msg}}}
}

// secretError переводит ошибку политики секрета в ошибку поля.
func secretError(field string, err error) error {
	var pe *identity.PolicyError
	switch {
	case errors.Is(err, identity.ErrEmptySecret):
		return fieldError(field, "must not be empty")
	case errors.As(err, &pe):
		return fieldError(field, "must "+strings.Join(pe.Unmet, ", "))
	}
	return err
}

// translate приводит ошибки хранилища к ошибкам сервиса.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrBuyerAssigned):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
