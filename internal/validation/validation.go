// Package validation holds the field-level input rules shared by the HTTP
// handlers and the repositories.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var ErrInvalid = errors.New("invalid input data")

const (
	MsgInvalidEmail    = "invalid email format"
	MsgPriceRequired   = "price is required"
	MsgPriceNotNumeric = "price must be numeric"
	MsgPriceNegative   = "price cannot be negative"
	MsgUnknownUser     = "user_id does not reference a real user"
	MsgOrderDate       = "order_date must match YYYY-MM-DD HH:MM:SS"
	MsgUserIDRequired  = "user_id is required"
	MsgUserIDInteger   = "user_id must be an integer"
)

// OrderDateLayout is the only accepted order_date literal, always read as UTC.
const OrderDateLayout = "2006-01-02 15:04:05"

// Error carries one message per offending field.
type Error struct {
	Fields map[string]string
}

func NewError(field, message string) *Error {
	return &Error{Fields: map[string]string{field: message}}
}

func (e *Error) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// Merge folds the field messages of err into e. An err that carries no field
// messages is returned unchanged.
func (e *Error) Merge(err error) error {
	var other *Error
	if !errors.As(err, &other) {
		return err
	}
	for field, msg := range other.Fields {
		e.Add(field, msg)
	}
	return nil
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error {
	return ErrInvalid
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields under their JSON names so messages match the payload
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct runs the `validate` tags of s and converts failures into *Error.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	verr := &Error{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), message(fe))
	}
	return verr
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "contains":
		if fe.Field() == "email" {
			return MsgInvalidEmail
		}
	case "gte":
		if fe.Field() == "price" {
			return MsgPriceNegative
		}
	}
	return fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag())
}

func Email(email string) error {
	if err := validate.Var(email, "contains=@"); err != nil {
		return NewError("email", MsgInvalidEmail)
	}
	return nil
}

// Price converts a decoded JSON value into a non-negative price. Numbers and
// numeric strings are accepted.
func Price(v any) (float64, error) {
	var (
		price float64
		err   error
	)

	switch t := v.(type) {
	case float64:
		price = t
	case float32:
		price = float64(t)
	case int:
		price = float64(t)
	case int64:
		price = float64(t)
	case json.Number:
		price, err = t.Float64()
	case string:
		price, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		err = fmt.Errorf("unsupported price type %T", v)
	}

	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, NewError("price", MsgPriceNotNumeric)
	}
	if price < 0 {
		return 0, NewError("price", MsgPriceNegative)
	}
	return price, nil
}

// UserID converts a decoded JSON value into a user reference. Integral
// numbers and integer strings are accepted.
func UserID(v any) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, NewError("user_id", MsgUserIDRequired)
	case float64:
		if t == math.Trunc(t) && t >= math.MinInt32 && t <= math.MaxInt32 {
			return int(t), nil
		}
	case int:
		if t >= math.MinInt32 && t <= math.MaxInt32 {
			return t, nil
		}
	case json.Number:
		if id, err := ParseID(t.String()); err == nil {
			return id, nil
		}
	case string:
		if id, err := ParseID(strings.TrimSpace(t)); err == nil {
			return id, nil
		}
	}
	return 0, NewError("user_id", MsgUserIDInteger)
}

// ParseID parses a decimal id that fits the int4 key columns.
func ParseID(s string) (int, error) {
	id, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// OrderDate parses an optional order_date literal. An absent or empty value
// yields now in UTC.
func OrderDate(raw *string, now func() time.Time) (time.Time, error) {
	if raw == nil || *raw == "" {
		return now().UTC(), nil
	}

	t, err := time.ParseInLocation(OrderDateLayout, *raw, time.UTC)
	if err != nil {
		return time.Time{}, NewError("order_date", MsgOrderDate)
	}
	return t, nil
}
