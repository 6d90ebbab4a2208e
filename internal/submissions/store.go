package submissions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/formsight/formflow/internal/aws"
)

// Store encapsulates processing-record operations against DynamoDB. All
// mutations are attribute-level update expressions so concurrent variant
// writers never clobber each other's slots.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration // record expiry window, enforced by the table's TTL attribute
	nowFunc   func() time.Time
}

// NewStore returns a configured Store.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// ErrStatusMismatch indicates a conditional update failed: the record was not
// in the state the transition requires, or the slot was already written.
var ErrStatusMismatch = errors.New("conditional check failed")

// CreateIfNotExists atomically creates a processing record unless one already
// exists for the submission id. This single conditional PutItem closes the
// race between near-simultaneous deliveries of the same webhook.
// Returns (true, nil) when created, (false, nil) when the id already existed.
func (s *Store) CreateIfNotExists(ctx context.Context, id string, variantCount int, userResponses, formKind string) (bool, error) {
	now := s.nowFunc()
	rec := Record{
		SubmissionID:  id,
		Status:        StatusProcessing,
		Results:       map[string]string{},
		Remaining:     variantCount,
		UserResponses: userResponses,
		FormKind:      formKind,
		CreatedAt:     now,
		UpdatedAt:     now,
		ExpiresAt:     now.Add(s.ttlWindow).Unix(),
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}

	input := &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(submission_id)"),
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return false, nil
		}
		return false, fmt.Errorf("put item: %w", err)
	}

	return true, nil
}

// Get retrieves a record by submission id. If not found, returns (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	input := &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"submission_id": &types.AttributeValueMemberS{Value: id},
		},
	}
	out, err := s.client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return &rec, nil
}

// WriteSlotSuccess writes one variant's generated text into its slot and
// decrements the outstanding-variant counter, returning the new count. The
// attribute_not_exists condition makes redelivered tasks no-ops: a slot is
// written exactly once. Returns ErrStatusMismatch when the slot was already
// terminal.
func (s *Store) WriteSlotSuccess(ctx context.Context, id, slot, text string) (int, error) {
	out, err := s.updateSlot(ctx, id, slot, text, false)
	if err != nil {
		return 0, err
	}
	return remainingFrom(out)
}

// WriteSlotError writes one variant's error sentinel into its slot, sets the
// record status to error, and decrements the outstanding-variant counter.
// Error is dominant: a later success never lifts it (see MarkSuccess).
func (s *Store) WriteSlotError(ctx context.Context, id, slot, sentinel string) error {
	_, err := s.updateSlot(ctx, id, slot, sentinel, true)
	return err
}

func (s *Store) updateSlot(ctx context.Context, id, slot, value string, markError bool) (*dyn.UpdateItemOutput, error) {
	now := s.nowFunc()

	updateExpr := "SET results.#v = :val, remaining = remaining - :one, updated_at = :ua"
	values := map[string]types.AttributeValue{
		":val": &types.AttributeValueMemberS{Value: value},
		":one": &types.AttributeValueMemberN{Value: "1"},
		":ua":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
	}
	names := map[string]string{"#v": slot}

	if markError {
		updateExpr = "SET results.#v = :val, #st = :error, remaining = remaining - :one, updated_at = :ua"
		names["#st"] = "status"
		values[":error"] = &types.AttributeValueMemberS{Value: StatusError}
	}

	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"submission_id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:          &updateExpr,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConditionExpression:       awsString("attribute_exists(submission_id) AND attribute_not_exists(results.#v)"),
		ReturnValues:              types.ReturnValueAllNew,
	}

	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, ErrStatusMismatch
		}
		return nil, fmt.Errorf("update slot: %w", err)
	}
	return out, nil
}

// MarkSuccess flips status processing -> success. The condition keeps the
// transition monotonic: a concurrent error write wins and the flip becomes
// ErrStatusMismatch, which callers treat as a no-op.
func (s *Store) MarkSuccess(ctx context.Context, id string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"submission_id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:         awsString("SET #st = :success, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#st": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":success":    &types.AttributeValueMemberS{Value: StatusSuccess},
			":processing": &types.AttributeValueMemberS{Value: StatusProcessing},
			":ua":         &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("#st = :processing"),
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item (mark success): %w", err)
	}
	return nil
}

// OverwriteSlot replaces a slot's content on an existing record. Used by the
// operator amend endpoint; the lifecycle controller enforces that the record
// is terminal first.
func (s *Store) OverwriteSlot(ctx context.Context, id, slot, text, note string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"submission_id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:         awsString("SET results.#v = :val, note = :n, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#v": slot},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":val": &types.AttributeValueMemberS{Value: text},
			":n":   &types.AttributeValueMemberS{Value: note},
			":ua":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
		ConditionExpression: awsString("attribute_exists(submission_id)"),
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item (overwrite slot): %w", err)
	}
	return nil
}

// MarkDispatchFailed marks the record as error when task publishing failed
// after the record was created, and stores a note for operator triage.
func (s *Store) MarkDispatchFailed(ctx context.Context, id, note string) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"submission_id": &types.AttributeValueMemberS{Value: id},
		},
		UpdateExpression:         awsString("SET #st = :error, note = :n, updated_at = :ua"),
		ExpressionAttributeNames: map[string]string{"#st": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":error": &types.AttributeValueMemberS{Value: StatusError},
			":n":     &types.AttributeValueMemberS{Value: note},
			":ua":    &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		return fmt.Errorf("update item (mark dispatch failed): %w", err)
	}
	return nil
}

func remainingFrom(out *dyn.UpdateItemOutput) (int, error) {
	if out == nil || out.Attributes == nil {
		return 0, fmt.Errorf("update returned no attributes")
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Attributes, &rec); err != nil {
		return 0, fmt.Errorf("unmarshal updated record: %w", err)
	}
	return rec.Remaining, nil
}

// Helper
func awsString(s string) *string { return &s }
