package validation

import "github.com/formsight/formflow/internal/forms"

// FieldPayload is one answered question as delivered by the form webhook.
// Value is left untyped: the upstream sends null, scalars, or lists of
// scalars depending on the question type.
type FieldPayload struct {
	Key     string          `json:"key" validate:"required"`
	Label   *string         `json:"label"`
	Value   any             `json:"value"`
	Type    string          `json:"type" validate:"required"`
	Options []OptionPayload `json:"options,omitempty" validate:"dive"`
}

// OptionPayload maps a selectable option id to its display text.
type OptionPayload struct {
	ID   string `json:"id" validate:"required"`
	Text string `json:"text"`
}

// WebhookData nests the ordered field list.
type WebhookData struct {
	Fields []FieldPayload `json:"fields" validate:"required,min=1,dive"`
}

// WebhookPayload is the inbound form-submission webhook body.
// EventID doubles as the submission identifier and is idempotency-critical.
type WebhookPayload struct {
	EventID   string      `json:"eventId" validate:"required"`
	EventType string      `json:"eventType" validate:"required"`
	Data      WebhookData `json:"data" validate:"required"`
}

// UpdateResultPayload is the body for the operator PUT /results/:id endpoint.
type UpdateResultPayload struct {
	Variant   string `json:"variant" validate:"required"`
	NewResult string `json:"new_result" validate:"required"`
	Reason    string `json:"reason,omitempty"`
}

// Submission converts the wire payload into the domain model, preserving
// field order.
func (p *WebhookPayload) Submission() forms.Submission {
	sub := forms.Submission{
		ID:     p.EventID,
		Fields: make([]forms.Field, 0, len(p.Data.Fields)),
	}
	for _, f := range p.Data.Fields {
		field := forms.Field{
			Key:   f.Key,
			Value: f.Value,
			Type:  f.Type,
		}
		if f.Label != nil {
			field.Label = *f.Label
		}
		for _, opt := range f.Options {
			field.Options = append(field.Options, forms.Option{ID: opt.ID, Text: opt.Text})
		}
		sub.Fields = append(sub.Fields, field)
	}
	return sub
}
