// Package validation содержит функции валидации входных данных.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mmeshcher/sandwichshop/internal/apperr"
)

// New возвращает валидатор, который называет поля по их JSON-именам.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	return v
}

// Struct проверяет структуру и возвращает ошибку валидации с перечнем нарушений.
func Struct(v *validatorv10.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		return apperr.Wrap(apperr.KindValidation, "validate", "invalid input data", err)
	}

	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperr.Wrap(apperr.KindValidation, "validate", "invalid input data. "+strings.Join(msgs, ". "), err)
}

func fieldMessage(fe validatorv10.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "uuid":
		return field + " must be a valid id"
	case "min":
		if fe.Kind() == reflect.Slice {
			return field + " must contain at least " + fe.Param() + " entries"
		}
		if fe.Kind() == reflect.String {
			return field + " must be at least " + fe.Param() + " characters long"
		}
		return field + " must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return field + " must be at most " + fe.Param() + " characters long"
		}
		return field + " must be at most " + fe.Param()
	default:
		return field + " is invalid"
	}
}

// ParseID разбирает идентификатор ресурса.
func ParseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation("parse id", "invalid %s: %s", field, raw)
	}
	return id, nil
}

// ParseDay разбирает дату фильтра. Допускаются форматы 2006-01-02 (в часовом поясе loc) и RFC 3339.
// Возвращает полночь соответствующего календарного дня в loc.
func ParseDay(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}

	t, err := time.ParseInLocation(time.DateOnly, raw, loc)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, apperr.Validation("parse date", "invalid date: %s", raw)
		}
		t = t.In(loc)
	}

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}
