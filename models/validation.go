package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("event_type", func(fl validator.FieldLevel) bool {
		return EventType(fl.Field().String()).IsValid()
	})
}

var fieldNames = map[string]string{
	"BusinessID": "businessId",
	"EventType":  "eventType",
	"Timestamp":  "timestamp",
}

// Validate checks the mandatory fields and the event type of an event. It
// returns the first problem found as a *ValidationError.
func (e EngagementEvent) Validate() error {
	if err := validate.Struct(e); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok || len(verrs) == 0 {
			return NewEventValidationError("", err.Error())
		}
		fe := verrs[0]
		field := fieldNames[fe.Field()]
		switch fe.Tag() {
		case "required":
			return NewEventValidationError(field, "is required")
		case "event_type":
			return NewEventValidationError(field, fmt.Sprintf("unrecognised event type %q", fe.Value()))
		default:
			return NewEventValidationError(field, fmt.Sprintf("must satisfy %s constraint", fe.Tag()))
		}
	}
	return nil
}
