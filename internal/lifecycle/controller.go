// Package lifecycle owns the submission state machine: idempotent acceptance,
// per-variant generation, and result reconciliation under concurrent and
// partially-failing variant writers.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/formsight/formflow/internal/aws"
	"github.com/formsight/formflow/internal/forms"
	"github.com/formsight/formflow/internal/metrics"
	"github.com/formsight/formflow/internal/prompt"
	"github.com/formsight/formflow/internal/providers"
	"github.com/formsight/formflow/internal/submissions"
)

// Store is the record persistence surface the controller needs.
type Store interface {
	CreateIfNotExists(ctx context.Context, id string, variantCount int, userResponses, formKind string) (bool, error)
	Get(ctx context.Context, id string) (*submissions.Record, error)
	WriteSlotSuccess(ctx context.Context, id, slot, text string) (int, error)
	WriteSlotError(ctx context.Context, id, slot, sentinel string) error
	MarkSuccess(ctx context.Context, id string) error
	OverwriteSlot(ctx context.Context, id, slot, text, note string) error
	MarkDispatchFailed(ctx context.Context, id, note string) error
}

// TaskPublisher enqueues per-variant generation work.
type TaskPublisher interface {
	SendGenerationTask(ctx context.Context, task aws.GenerationTask) error
}

// Controller drives submissions through processing -> {success, error}.
//
// Status is monotonic and error-dominant: any variant failure pins the record
// to error, and success requires every variant to finish cleanly. The only
// globally atomic step is the conditional insert in Accept; everything after
// it is independent per-variant work.
type Controller struct {
	store     Store
	publisher TaskPublisher
	generator providers.Generator // nil in the API binary, which never generates
	metrics   *metrics.Publisher
	logger    *zap.Logger

	// terminal-write retry policy
	writeAttempts uint
	writeDelay    time.Duration
}

// NewController wires a Controller. publisher may be nil when RunVariant is
// the only operation used (the worker binary); generator may be nil when it
// is not (the API binary). logger nil falls back to a no-op logger.
func NewController(store Store, publisher TaskPublisher, generator providers.Generator, m *metrics.Publisher, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:         store,
		publisher:     publisher,
		generator:     generator,
		metrics:       m,
		logger:        logger,
		writeAttempts: 2,
		writeDelay:    200 * time.Millisecond,
	}
}

// Accept handles one webhook delivery. The conditional insert decides the
// winner when the same submission arrives more than once: exactly one
// delivery observes Started, and only that one dispatches generation tasks.
func (c *Controller) Accept(ctx context.Context, sub forms.Submission) (*AcceptResult, error) {
	kind := prompt.Classify(sub)
	variants := prompt.Variants()

	created, err := c.store.CreateIfNotExists(ctx, sub.ID, len(variants), prompt.RenderResponses(sub), string(kind))
	if err != nil {
		c.metrics.CountAccept(ctx, "store_error")
		return nil, fmt.Errorf("create record: %w", err)
	}

	if !created {
		c.metrics.CountAccept(ctx, "duplicate")
		rec, err := c.store.Get(ctx, sub.ID)
		if err != nil {
			return nil, fmt.Errorf("read existing record: %w", err)
		}
		status := submissions.StatusProcessing
		if rec != nil {
			status = rec.Status
		}
		outcome := AcceptAlreadyInProgress
		if status != submissions.StatusProcessing {
			outcome = AcceptAlreadyTerminal
		}
		c.logger.Info("duplicate submission ignored",
			zap.String("submission_id", sub.ID),
			zap.String("status", status))
		return &AcceptResult{Outcome: outcome, Status: status}, nil
	}

	correlationID := uuid.NewString()
	for _, v := range variants {
		task := aws.GenerationTask{
			SubmissionID:  sub.ID,
			Variant:       string(v),
			Prompt:        prompt.Render(sub, v),
			CorrelationID: correlationID,
		}
		if err := c.publisher.SendGenerationTask(ctx, task); err != nil {
			c.metrics.CountAccept(ctx, "dispatch_error")
			note := fmt.Sprintf("task_dispatch_failed (%s): %v", v, err)
			if mErr := c.store.MarkDispatchFailed(ctx, sub.ID, note); mErr != nil {
				c.logger.Error("could not mark dispatch failure",
					zap.String("submission_id", sub.ID),
					zap.Error(mErr))
			}
			return nil, fmt.Errorf("dispatch %s task: %w", v, err)
		}
	}

	c.metrics.CountAccept(ctx, "started")
	c.logger.Info("submission accepted",
		zap.String("submission_id", sub.ID),
		zap.String("form_kind", string(kind)),
		zap.String("correlation_id", correlationID),
		zap.Int("variants", len(variants)))
	return &AcceptResult{Outcome: AcceptStarted, Status: submissions.StatusProcessing, CorrelationID: correlationID}, nil
}

// RunVariant performs one variant's generation: call the provider once, then
// write the slot terminally. The slot write carries an attribute_not_exists
// condition, so at-least-once task delivery still yields at-most-one
// generation result per slot; a pre-read skips the provider call entirely on
// obvious redeliveries.
func (c *Controller) RunVariant(ctx context.Context, submissionID, variant, promptText string) error {
	log := c.logger.With(
		zap.String("submission_id", submissionID),
		zap.String("variant", variant))

	rec, err := c.store.Get(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("read record: %w", err)
	}
	if rec == nil {
		// Record gone (never created, or TTL-expired). Nothing to write into.
		log.Warn("generation task for unknown submission dropped")
		c.observe(ctx, variant, "skipped", 0)
		return nil
	}
	if _, written := rec.Results[variant]; written {
		log.Info("slot already terminal, skipping regeneration")
		c.observe(ctx, variant, "skipped", 0)
		return nil
	}

	start := time.Now()
	res, genErr := c.generator.Generate(ctx, promptText)
	elapsed := time.Since(start)

	if genErr != nil {
		sentinel := failureSentinel(genErr)
		log.Warn("provider call failed",
			zap.String("sentinel", sentinel),
			zap.Duration("elapsed", elapsed),
			zap.Error(genErr))
		c.observe(ctx, variant, "provider_error", elapsed)
		return c.writeTerminal(ctx, log, func() error {
			return c.store.WriteSlotError(ctx, submissionID, variant, sentinel)
		})
	}

	if strings.TrimSpace(res.Text) == "" {
		log.Warn("provider returned empty response", zap.Duration("elapsed", elapsed))
		c.observe(ctx, variant, "empty", elapsed)
		return c.writeTerminal(ctx, log, func() error {
			return c.store.WriteSlotError(ctx, submissionID, variant, submissions.SentinelEmptyResponse)
		})
	}

	c.observe(ctx, variant, "success", elapsed)

	var remaining int
	err = c.writeTerminal(ctx, log, func() error {
		var werr error
		remaining, werr = c.store.WriteSlotSuccess(ctx, submissionID, variant, res.Text)
		return werr
	})
	if err != nil {
		return err
	}

	log.Info("variant generated",
		zap.String("model", res.Model),
		zap.Duration("elapsed", elapsed),
		zap.Int("remaining", remaining))

	if remaining > 0 {
		return nil
	}

	// Last variant in. Flip processing -> success; losing the conditional
	// check means an error was recorded and must stand.
	err = retry.Do(
		func() error { return c.store.MarkSuccess(ctx, submissionID) },
		retry.Context(ctx),
		retry.Attempts(c.writeAttempts),
		retry.Delay(c.writeDelay),
		retry.RetryIf(func(err error) bool { return !errors.Is(err, submissions.ErrStatusMismatch) }),
		retry.LastErrorOnly(true),
	)
	if errors.Is(err, submissions.ErrStatusMismatch) {
		log.Info("success flip skipped, record already terminal")
		return nil
	}
	if err != nil {
		log.Error("fatal inconsistency: all variants done but status flip failed", zap.Error(err))
		return fmt.Errorf("mark success: %w", err)
	}
	return nil
}

// writeTerminal retries a terminal slot write. A conditional-check failure is
// a redelivery (someone already wrote the slot) and is absorbed; any other
// error that survives the retries is a fatal inconsistency: generated output
// exists that the record will never reflect.
func (c *Controller) writeTerminal(ctx context.Context, log *zap.Logger, write func() error) error {
	err := retry.Do(
		write,
		retry.Context(ctx),
		retry.Attempts(c.writeAttempts),
		retry.Delay(c.writeDelay),
		retry.RetryIf(func(err error) bool { return !errors.Is(err, submissions.ErrStatusMismatch) }),
		retry.LastErrorOnly(true),
	)
	if errors.Is(err, submissions.ErrStatusMismatch) {
		log.Info("slot written concurrently, treating as no-op")
		return nil
	}
	if err != nil {
		log.Error("fatal inconsistency: terminal slot write failed after retries", zap.Error(err))
		return fmt.Errorf("terminal write: %w", err)
	}
	return nil
}

// Query reads the record for a submission id. Returns (nil, nil) when no
// record exists.
func (c *Controller) Query(ctx context.Context, submissionID string) (*submissions.Record, error) {
	return c.store.Get(ctx, submissionID)
}

// Amend overwrites one variant's slot on a terminal record, for operator
// corrections. Returns ErrNotFound when no record exists, ErrInProgress when
// the record has not reached a terminal status, and ErrUnknownVariant for a
// variant name outside the configured set.
func (c *Controller) Amend(ctx context.Context, submissionID, variant, text, reason string) error {
	if !knownVariant(variant) {
		return fmt.Errorf("%w: %s", ErrUnknownVariant, variant)
	}

	rec, err := c.store.Get(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("read record: %w", err)
	}
	if rec == nil {
		return ErrNotFound
	}
	if rec.Status == submissions.StatusProcessing {
		return ErrInProgress
	}

	note := fmt.Sprintf("amended %s", variant)
	if reason != "" {
		note = fmt.Sprintf("amended %s: %s", variant, reason)
	}
	if err := c.store.OverwriteSlot(ctx, submissionID, variant, text, note); err != nil {
		return fmt.Errorf("overwrite slot: %w", err)
	}

	c.logger.Info("slot amended",
		zap.String("submission_id", submissionID),
		zap.String("variant", variant),
		zap.String("reason", reason))
	return nil
}

func (c *Controller) observe(ctx context.Context, variant, outcome string, elapsed time.Duration) {
	provider := "none"
	if c.generator != nil {
		provider = c.generator.Name()
	}
	c.metrics.ObserveGeneration(ctx, provider, variant, outcome, elapsed)
}

// failureSentinel builds the slot sentinel for a failed provider call.
func failureSentinel(err error) string {
	kind := providers.KindTransport
	msg := err.Error()
	if pe, ok := providers.AsProviderError(err); ok {
		kind = pe.Kind
		msg = pe.Message
	}
	return fmt.Sprintf("%s%s: %s", submissions.SentinelProviderFailurePrefix, kind, msg)
}

func knownVariant(v string) bool {
	for _, known := range prompt.Variants() {
		if string(known) == v {
			return true
		}
	}
	return false
}
