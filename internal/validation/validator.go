package validation

import (
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// Struct-level check for WebhookPayload: the event id must survive
	// trimming, since it becomes the storage primary key.
	v.RegisterStructValidation(webhookStructValidation, WebhookPayload{})

	return v
}

// webhookStructValidation rejects submission identifiers that are whitespace-only.
func webhookStructValidation(sl validatorv10.StructLevel) {
	p := sl.Current().Interface().(WebhookPayload)

	if strings.TrimSpace(p.EventID) == "" {
		sl.ReportError(p.EventID, "eventId", "EventID", "nonblank_event_id", "")
	}
}
