package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/formsight/formflow/internal/aws"
)

// VariantRunner is the single lifecycle operation the worker drives.
type VariantRunner interface {
	RunVariant(ctx context.Context, submissionID, variant, promptText string) error
}

// Processor consumes SQS generation-task batches.
type Processor struct {
	runner VariantRunner
	logger *zap.Logger
}

// NewProcessor returns a Processor bound to a variant runner.
func NewProcessor(runner VariantRunner, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{runner: runner, logger: logger}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda retries the batch, and the slot write
			// conditions make the retry safe. Poison messages end up in
			// the DLQ after enough failures.
			p.logger.Error("worker message failed",
				zap.String("message_id", rec.MessageId),
				zap.Error(err))
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var task aws.GenerationTask
	if err := json.Unmarshal([]byte(rec.Body), &task); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if task.SubmissionID == "" || task.Variant == "" {
		return fmt.Errorf("incomplete generation task: %q", rec.Body)
	}

	p.logger.Info("generation task received",
		zap.String("submission_id", task.SubmissionID),
		zap.String("variant", task.Variant),
		zap.String("correlation_id", task.CorrelationID))

	return p.runner.RunVariant(ctx, task.SubmissionID, task.Variant, task.Prompt)
}
