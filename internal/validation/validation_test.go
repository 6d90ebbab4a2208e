package validation

import (
	"testing"
)

func strPtr(s string) *string { return &s }

func validPayload() WebhookPayload {
	return WebhookPayload{
		EventID:   "sub-1",
		EventType: "FORM_RESPONSE",
		Data: WebhookData{
			Fields: []FieldPayload{
				{Key: "q_sector", Label: strPtr("Sector"), Value: "Banking", Type: "INPUT_TEXT"},
				{Key: "q_auto", Label: strPtr("Automation level"), Value: 6, Type: "LINEAR_SCALE"},
			},
		},
	}
}

func TestWebhookPayload_Valid(t *testing.T) {
	v := New()

	p := validPayload()
	if err := v.Struct(p); err != nil {
		t.Fatalf("expected valid, got error: %v", err)
	}
}

func TestWebhookPayload_BlankEventID(t *testing.T) {
	v := New()

	p := validPayload()
	p.EventID = "   "
	if err := v.Struct(p); err == nil {
		t.Fatal("expected validation error for blank event id, got nil")
	}
}

func TestWebhookPayload_MissingFields(t *testing.T) {
	v := New()

	p := validPayload()
	p.Data.Fields = nil
	if err := v.Struct(p); err == nil {
		t.Fatal("expected validation error for empty field list, got nil")
	}
}

func TestWebhookPayload_Submission_PreservesOrderAndOptions(t *testing.T) {
	p := validPayload()
	p.Data.Fields = append(p.Data.Fields, FieldPayload{
		Key:   "q_tools",
		Value: []any{"opt_1", "opt_2"},
		Type:  "MULTIPLE_CHOICE",
		Options: []OptionPayload{
			{ID: "opt_1", Text: "Yes"},
		},
	})

	sub := p.Submission()
	if sub.ID != "sub-1" {
		t.Fatalf("unexpected submission id: %s", sub.ID)
	}
	if len(sub.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(sub.Fields))
	}
	if sub.Fields[0].Label != "Sector" || sub.Fields[2].Key != "q_tools" {
		t.Fatalf("field order not preserved: %+v", sub.Fields)
	}
	if sub.Fields[2].Label != "" {
		t.Fatalf("nil label should map to empty string, got %q", sub.Fields[2].Label)
	}
	if text, ok := sub.Fields[2].ResolveOption("opt_1"); !ok || text != "Yes" {
		t.Fatalf("option resolution failed: %q %v", text, ok)
	}
	if _, ok := sub.Fields[2].ResolveOption("opt_2"); ok {
		t.Fatal("expected opt_2 to be unresolved")
	}
}
