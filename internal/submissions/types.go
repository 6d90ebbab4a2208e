package submissions

import (
	"strings"
	"time"
)

// Status values for processing records. Lowercase is the viewer contract.
const (
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusError      = "error"
)

// Error sentinels stored in result slots. The reserved marker keeps failed
// slots distinguishable from legitimate generated content without heuristics.
const (
	ErrorMarker = "__ERROR__:"

	// SentinelEmptyResponse marks a provider call that succeeded but
	// returned no text.
	SentinelEmptyResponse = ErrorMarker + "empty_response"

	// SentinelProviderFailurePrefix precedes the error kind and diagnostic
	// for transport/API/shape failures.
	SentinelProviderFailurePrefix = ErrorMarker + "provider_failure:"
)

// IsErrorSentinel reports whether a slot value is an error sentinel rather
// than generated content.
func IsErrorSentinel(v string) bool {
	return strings.HasPrefix(v, ErrorMarker)
}

// Record is the shape persisted in the submissions DynamoDB table. Exactly
// one record ever exists per submission id; slots in Results are written
// independently, one per variant.
type Record struct {
	SubmissionID  string            `dynamodbav:"submission_id"` // PK
	Status        string            `dynamodbav:"status"`
	Results       map[string]string `dynamodbav:"results"`
	Remaining     int               `dynamodbav:"remaining"` // variants still outstanding
	UserResponses string            `dynamodbav:"user_responses,omitempty"`
	FormKind      string            `dynamodbav:"form_kind,omitempty"`
	Note          string            `dynamodbav:"note,omitempty"`
	CreatedAt     time.Time         `dynamodbav:"created_at"`
	UpdatedAt     time.Time         `dynamodbav:"updated_at"`
	ExpiresAt     int64             `dynamodbav:"expires_at"` // TTL epoch seconds
}

// Diagnostic returns the first error sentinel found in the result slots, or
// the record note when no slot carries one. Only meaningful for error records.
func (r *Record) Diagnostic() string {
	for _, v := range r.Results {
		if IsErrorSentinel(v) {
			return v
		}
	}
	return r.Note
}
