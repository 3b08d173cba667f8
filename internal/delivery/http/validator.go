package http

import (
	"errors"
	"fmt"
	"market-insight/internal/dto"
	"market-insight/pkg/common"
	"reflect"
	"strings"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// NewValidator returns a validator that knows the ticker and period rules and
// compares decimal fields numerically.
func NewValidator() *goValidator.Validate {
	v := goValidator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"json", "query", "param"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return field.Name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("ticker", func(fl goValidator.FieldLevel) bool {
		return dto.IsValidTicker(dto.NormalizeTicker(fl.Field().String()))
	})
	_ = v.RegisterValidation("period", func(fl goValidator.FieldLevel) bool {
		return dto.IsValidPeriod(fl.Field().String())
	})
	return v
}

// bindAndValidate decodes the request into req and runs struct validation.
func (h *HttpAPIHandler) bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: malformed request", common.ErrInvalidInput)
	}
	if err := h.validator.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", common.ErrInvalidInput, validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var fieldErrs goValidator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "ticker":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid ticker symbol", fe.Field()))
		case "period":
			msgs = append(msgs, fmt.Sprintf("%s must be one of 1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, ytd", fe.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", fe.Field(), fe.Param()))
		case "min", "max", "gt":
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}
