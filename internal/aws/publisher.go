package aws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// GenerationTask is the payload sent from the API to the worker, one message
// per (submission, variant) pair.
type GenerationTask struct {
	SubmissionID  string `json:"submission_id"`
	Variant       string `json:"variant"`
	Prompt        string `json:"prompt"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// Publisher wraps an SQS client and the generation task queue URL.
type Publisher struct {
	SQS      SQSAPI
	QueueURL string
}

// NewPublisher returns a Publisher bound to a queue URL.
func NewPublisher(sqsClient SQSAPI, queueURL string) *Publisher {
	return &Publisher{
		SQS:      sqsClient,
		QueueURL: queueURL,
	}
}

// SendGenerationTask enqueues one variant's generation work. The submission id
// and variant ride along as message attributes for queue-side filtering.
func (p *Publisher) SendGenerationTask(ctx context.Context, task GenerationTask) error {
	body, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	bodyStr := string(body)

	input := &sqs.SendMessageInput{
		QueueUrl:    &p.QueueURL,
		MessageBody: &bodyStr,
		MessageAttributes: map[string]sqstypes.MessageAttributeValue{
			"submission_id": {
				DataType:    awsString("String"),
				StringValue: &task.SubmissionID,
			},
			"variant": {
				DataType:    awsString("String"),
				StringValue: &task.Variant,
			},
		},
	}
	if task.CorrelationID != "" {
		input.MessageAttributes["correlation_id"] = sqstypes.MessageAttributeValue{
			DataType:    awsString("String"),
			StringValue: &task.CorrelationID,
		}
	}

	if _, err := p.SQS.SendMessage(ctx, input); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// awsString helper
func awsString(s string) *string { return &s }
