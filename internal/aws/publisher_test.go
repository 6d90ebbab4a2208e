package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type mockSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (m *mockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{}, nil
}

func TestSendGenerationTask(t *testing.T) {
	mock := &mockSQS{}
	p := NewPublisher(mock, "https://sqs.example/queue")

	task := GenerationTask{
		SubmissionID:  "sub-1",
		Variant:       "client",
		Prompt:        "prompt text",
		CorrelationID: "corr-1",
	}
	if err := p.SendGenerationTask(context.Background(), task); err != nil {
		t.Fatalf("SendGenerationTask: %v", err)
	}

	if len(mock.inputs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(mock.inputs))
	}
	in := mock.inputs[0]
	if *in.QueueUrl != "https://sqs.example/queue" {
		t.Fatalf("queue url: %s", *in.QueueUrl)
	}

	var decoded GenerationTask
	if err := json.Unmarshal([]byte(*in.MessageBody), &decoded); err != nil {
		t.Fatalf("body not json: %v", err)
	}
	if decoded != task {
		t.Fatalf("round-tripped task: %+v", decoded)
	}

	for _, attr := range []string{"submission_id", "variant", "correlation_id"} {
		if _, ok := in.MessageAttributes[attr]; !ok {
			t.Fatalf("missing message attribute %s", attr)
		}
	}
}

func TestSendGenerationTask_NoCorrelationAttribute(t *testing.T) {
	mock := &mockSQS{}
	p := NewPublisher(mock, "q")

	task := GenerationTask{SubmissionID: "sub-1", Variant: "client", Prompt: "p"}
	if err := p.SendGenerationTask(context.Background(), task); err != nil {
		t.Fatalf("SendGenerationTask: %v", err)
	}
	if _, ok := mock.inputs[0].MessageAttributes["correlation_id"]; ok {
		t.Fatal("correlation_id attribute should be omitted when empty")
	}
}

func TestSendGenerationTask_SendFailure(t *testing.T) {
	mock := &mockSQS{err: errors.New("queue unavailable")}
	p := NewPublisher(mock, "q")

	err := p.SendGenerationTask(context.Background(), GenerationTask{SubmissionID: "s", Variant: "v"})
	if err == nil {
		t.Fatal("expected send error")
	}
}
