package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"order-service/pkg/apierror"
)

const maxBodyBytes = 1 << 20

type bodyContextKey[T any] struct{}

type paramsContextKey[T any] struct{}

// normalizer is implemented by request bodies that clean up input before
// validation.
type normalizer interface {
	Normalize()
}

// Validator wraps validator/v10 so violations are reported by json field name.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{validate: validate}
}

// Struct validates value and returns an INVALID_INPUT error listing every
// violated field.
func (v *Validator) Struct(value any, part string) error {
	err := v.validate.Struct(value)
	if err == nil {
		return nil
	}

	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return apierror.InvalidInput("invalid request "+part, nil).WithCause(err)
	}

	fields := make(map[string]string, len(violations))
	for _, violation := range violations {
		fields[fieldPath(violation.Namespace())] = violationMessage(violation)
	}
	return apierror.InvalidInput("invalid request "+part, fields).WithCause(err)
}

// ValidateBody decodes the JSON body into T, validates it and stores it for
// BodyFromContext.
func ValidateBody[T any](v *Validator) Stage {
	return func(r *http.Request) (*http.Request, error) {
		var body T
		if err := decodeJSON(r.Body, &body); err != nil {
			return nil, err
		}
		if n, ok := any(&body).(normalizer); ok {
			n.Normalize()
		}
		if err := v.Struct(&body, "body"); err != nil {
			return nil, err
		}

		ctx := context.WithValue(r.Context(), bodyContextKey[T]{}, body)
		return r.WithContext(ctx), nil
	}
}

// ValidateParams builds T from the chi URL parameters, matched by json tag.
func ValidateParams[T any](v *Validator) Stage {
	return func(r *http.Request) (*http.Request, error) {
		raw := map[string]string{}
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				if key == "*" || i >= len(rctx.URLParams.Values) {
					continue
				}
				raw[key] = rctx.URLParams.Values[i]
			}
		}

		var params T
		encoded, err := json.Marshal(raw)
		if err == nil {
			err = json.Unmarshal(encoded, &params)
		}
		if err != nil {
			return nil, apierror.InvalidInput("invalid request params", nil).WithCause(err)
		}
		if err := v.Struct(&params, "params"); err != nil {
			return nil, err
		}

		ctx := context.WithValue(r.Context(), paramsContextKey[T]{}, params)
		return r.WithContext(ctx), nil
	}
}

func BodyFromContext[T any](ctx context.Context) (T, bool) {
	body, ok := ctx.Value(bodyContextKey[T]{}).(T)
	return body, ok
}

func ParamsFromContext[T any](ctx context.Context) (T, bool) {
	params, ok := ctx.Value(paramsContextKey[T]{}).(T)
	return params, ok
}

func decodeJSON(body io.Reader, dst any) error {
	if body == nil {
		return apierror.BadRequest("INVALID_JSON", "request body is required", "")
	}

	data, err := io.ReadAll(io.LimitReader(body, maxBodyBytes+1))
	if err != nil {
		return apierror.BadRequest("INVALID_JSON", "could not read request body", "").WithCause(err)
	}
	if len(data) > maxBodyBytes {
		return apierror.New("BODY_TOO_LARGE", "request body too large", "", http.StatusRequestEntityTooLarge)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return apierror.BadRequest("INVALID_JSON", "request body is required", "")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apierror.BadRequest("INVALID_JSON", "invalid JSON body", err.Error()).WithCause(err)
	}
	if dec.More() {
		return apierror.BadRequest("INVALID_JSON", "invalid JSON body", "unexpected data after JSON object")
	}
	return nil
}

// fieldPath drops the root struct name: "CreateOrderRequest.items[0].quantity"
// becomes "items[0].quantity".
func fieldPath(namespace string) string {
	if _, rest, found := strings.Cut(namespace, "."); found {
		return rest
	}
	return namespace
}

func violationMessage(fe validator.FieldError) string {
	kind := fe.Kind().String()
	param := fe.Param()
	sized := kind == "string" || kind == "slice" || kind == "array"

	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "max", "lte":
		if sized {
			return "This field must have a maximum length of " + param
		}
		return "This field must be less than or equal to " + param
	case "min", "gte":
		if sized {
			return "This field must have a minimum length of " + param
		}
		return "This field must be greater than or equal to " + param
	case "gt":
		return "This field must be greater than " + param
	case "lt":
		return "This field must be less than " + param
	case "len":
		return "This field must have a length of " + param
	case "oneof":
		return "This field must be one of: " + param
	case "uuid":
		return "This field must be a valid UUID"
	case "uppercase":
		return "This field must be upper case"
	case "hexadecimal":
		return "This field must be hexadecimal"
	default:
		return "This field is invalid"
	}
}
