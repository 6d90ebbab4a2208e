package submissions

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// simpleMock is a small in-memory stand-in for PutItem/GetItem/UpdateItem.
// It understands only the expressions this store issues; not production-grade.
type simpleMock struct {
	mu    sync.Mutex
	table map[string]map[string]types.AttributeValue

	putCalls    int
	getCalls    int
	updateCalls int

	// failUpdates makes the next N UpdateItem calls fail with a generic error,
	// to exercise the controller's write retry path.
	failUpdates int
}

func newSimpleMock() *simpleMock {
	return &simpleMock{
		table: map[string]map[string]types.AttributeValue{},
	}
}

func (m *simpleMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++

	keyAttr, ok := params.Item["submission_id"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing submission_id")
	}
	k := keyAttr.Value

	if params.ConditionExpression != nil && strings.Contains(*params.ConditionExpression, "attribute_not_exists(submission_id)") {
		if _, exists := m.table[k]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.table[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *simpleMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++

	keyAttr, ok := params.Key["submission_id"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing submission_id key")
	}
	item, exists := m.table[keyAttr.Value]
	if !exists {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *simpleMock) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++

	if m.failUpdates > 0 {
		m.failUpdates--
		return nil, errors.New("simulated store failure")
	}

	keyAttr, ok := params.Key["submission_id"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing submission_id key")
	}
	item, exists := m.table[keyAttr.Value]

	cond := ""
	if params.ConditionExpression != nil {
		cond = *params.ConditionExpression
	}

	if !exists {
		if strings.Contains(cond, "attribute_exists(submission_id)") {
			return nil, &types.ConditionalCheckFailedException{}
		}
		return nil, errors.New("item not found")
	}

	vals := params.ExpressionAttributeValues
	slot := params.ExpressionAttributeNames["#v"]

	results, _ := item["results"].(*types.AttributeValueMemberM)
	if results == nil {
		results = &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{}}
		item["results"] = results
	}

	// Conditions first, then mutations.
	if strings.Contains(cond, "attribute_not_exists(results.#v)") {
		if _, written := results.Value[slot]; written {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	if strings.Contains(cond, "#st = :processing") {
		st, _ := item["status"].(*types.AttributeValueMemberS)
		if st == nil || st.Value != StatusProcessing {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}

	if v, ok := vals[":val"]; ok && slot != "" {
		results.Value[slot] = v
	}
	if _, ok := vals[":one"]; ok {
		rem, _ := item["remaining"].(*types.AttributeValueMemberN)
		if rem == nil {
			return nil, errors.New("remaining attribute missing")
		}
		n, err := strconv.Atoi(rem.Value)
		if err != nil {
			return nil, err
		}
		item["remaining"] = &types.AttributeValueMemberN{Value: strconv.Itoa(n - 1)}
	}
	if v, ok := vals[":error"]; ok {
		item["status"] = v
	}
	if v, ok := vals[":success"]; ok {
		item["status"] = v
	}
	if v, ok := vals[":n"]; ok {
		item["note"] = v
	}
	if v, ok := vals[":ua"]; ok {
		item["updated_at"] = v
	}

	m.table[keyAttr.Value] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}
