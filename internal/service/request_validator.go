package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "mgtrako/internal/errors"
	"mgtrako/internal/shipment"
)

var plantPattern = regexp.MustCompile(`^[A-Za-z0-9]{4}$`)

// NewValidator builds the validator shared by the HTTP layer and the
// services. Field names in errors are the JSON names; the "plant" tag accepts
// an empty string or exactly four alphanumeric characters.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
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
	_ = v.RegisterValidation("plant", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || plantPattern.MatchString(s)
	})
	return v
}

// ToValidationError converts validator failures into a field-level
// ValidationError. Other errors are returned unchanged.
func ToValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &apperrors.ValidationError{}
	for _, fe := range verrs {
		out.Add(fieldPath(fe), reason(fe))
	}
	return out
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + fe.Param()
	case "plant":
		return "must be exactly 4 alphanumeric characters"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// RequestValidator normalizes and validates request payloads before they
// reach the database.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a new request validator.
func NewRequestValidator(v *validator.Validate) *RequestValidator {
	if v == nil {
		v = NewValidator()
	}
	return &RequestValidator{validate: v}
}

// Validate trims the input, checks every field and resolves the pallet
// count. A missing pallet count is computed from the parts; an explicit one
// must be at least 1.
func (v *RequestValidator) Validate(in RequestInput) (RequestInput, error) {
	in = normalize(in)

	if err := v.validate.Struct(in); err != nil {
		return in, ToValidationError(err)
	}

	if in.PalletCount == nil {
		computed := shipment.PalletCount(in.Trailers)
		in.PalletCount = &computed
	}
	if *in.PalletCount < 1 {
		return in, apperrors.NewValidationError("pallet_count", "must be at least 1")
	}
	return in, nil
}

func normalize(in RequestInput) RequestInput {
	in.ShipmentNumber = strings.TrimSpace(in.ShipmentNumber)
	in.Plant = strings.TrimSpace(in.Plant)
	in.RouteInfo = strings.TrimSpace(in.RouteInfo)
	in.AdditionalNotes = strings.TrimSpace(in.AdditionalNotes)

	trailers := make([]shipment.TrailerGroup, len(in.Trailers))
	for i, group := range in.Trailers {
		parts := make([]shipment.PartLine, len(group.Parts))
		for j, line := range group.Parts {
			parts[j] = shipment.PartLine{
				PartNumber: strings.TrimSpace(line.PartNumber),
				Quantity:   line.Quantity,
			}
		}
		trailers[i] = shipment.TrailerGroup{
			TrailerNumber: strings.TrimSpace(group.TrailerNumber),
			Parts:         parts,
		}
	}
	if in.Trailers != nil {
		in.Trailers = trailers
	}
	return in
}
