// Package apperr описывает типизированные доменные ошибки и их отображение на HTTP-статусы.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind определяет категорию ошибки.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindUnavailable
)

var kindNames = map[Kind]string{
	KindInternal:    "internal",
	KindValidation:  "validation",
	KindAuth:        "auth",
	KindForbidden:   "forbidden",
	KindNotFound:    "not_found",
	KindConflict:    "conflict",
	KindUnavailable: "unavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// HTTPStatus возвращает HTTP-статус для категории ошибки.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error описывает доменную ошибку. Message безопасно показывать клиенту, Err остаётся на сервере.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "apperr: <nil>"
	}

	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New создаёт ошибку указанной категории.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap создаёт ошибку указанной категории с исходной причиной.
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// Validation создаёт ошибку валидации входных данных.
func Validation(op, format string, args ...any) *Error {
	return New(KindValidation, op, fmt.Sprintf(format, args...))
}

// NotFound создаёт ошибку отсутствия ресурса.
func NotFound(op, message string) *Error {
	return New(KindNotFound, op, message)
}

// Internal оборачивает непредвиденную ошибку.
func Internal(op string, err error) *Error {
	return Wrap(KindInternal, op, "something went wrong", err)
}

// KindOf возвращает категорию ошибки. Нетипизированные ошибки считаются внутренними.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf возвращает сообщение для клиента.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "something went wrong"
}

// Is сообщает, относится ли ошибка к указанной категории.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
