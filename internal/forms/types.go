// Package forms holds the structured submission model produced by the
// webhook boundary and consumed by the prompt builder and lifecycle
// controller. The submission id comes from the upstream form system and is
// untrusted but idempotency-critical.
package forms

// Option resolves a selected option id into its display text.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Field is one answered question. Value is nil, a scalar (string, number,
// bool), or an ordered list of scalars. List items may be option ids that
// resolve against Options.
type Field struct {
	Key     string   `json:"key"`
	Label   string   `json:"label,omitempty"`
	Value   any      `json:"value"`
	Type    string   `json:"type"`
	Options []Option `json:"options,omitempty"`
}

// Submission is one form submission. Fields keep the upstream insertion
// order; rendering must never sort them.
type Submission struct {
	ID     string
	Fields []Field
}

// ResolveOption returns the display text for an option id, or ok=false when
// the id is not in the field's option set.
func (f Field) ResolveOption(id string) (string, bool) {
	for _, opt := range f.Options {
		if opt.ID == id {
			return opt.Text, true
		}
	}
	return "", false
}
