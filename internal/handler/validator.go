package handler

import (
    "errors"
    "net/http"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
)

// RequestValidator plugs validator/v10 into echo so handlers can call
// c.Validate on bound request bodies.
type RequestValidator struct {
    v *validator.Validate
}

// NewRequestValidator returns a validator that reports JSON field names.
func NewRequestValidator() *RequestValidator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
    return rv.v.Struct(i)
}

// fieldErrors flattens validator errors into field -> rule.
func fieldErrors(err error) map[string]string {
    var ves validator.ValidationErrors
    if !errors.As(err, &ves) {
        return nil
    }
    out := make(map[string]string, len(ves))
    for _, fe := range ves {
        rule := fe.Tag()
        if fe.Param() != "" {
            rule += "=" + fe.Param()
        }
        _, field, _ := strings.Cut(fe.Namespace(), ".")
        out[field] = rule
    }
    return out
}

// bindAndValidate binds the body into req and validates it, writing a 400
// response on failure.  ok is false when the response has been written.
func bindAndValidate(c echo.Context, req interface{}) (ok bool, err error) {
    if err := c.Bind(req); err != nil {
        return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := c.Validate(req); err != nil {
        if fields := fieldErrors(err); fields != nil {
            return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
        }
        return false, c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    return true, nil
}
