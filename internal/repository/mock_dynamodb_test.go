package repository_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeDynamo is an in-memory table understanding the handful of expressions the store sends.
type fakeDynamo struct {
	mu    sync.Mutex
	table map[string]map[string]types.AttributeValue

	putCalls    int
	getCalls    int
	updateCalls int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{table: map[string]map[string]types.AttributeValue{}}
}

func keyOf(item map[string]types.AttributeValue) (string, error) {
	attr, ok := item["checkout_request_id"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("missing key")
	}
	return attr.Value, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++

	k, err := keyOf(params.Item)
	if err != nil {
		return nil, err
	}

	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(checkout_request_id)" {
		if _, ok := f.table[k]; ok {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}

	f.table[k] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++

	k, err := keyOf(params.Key)
	if err != nil {
		return nil, err
	}

	item, ok := f.table[k]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}

	copied := make(map[string]types.AttributeValue, len(item))
	for name, v := range item {
		copied[name] = v
	}
	return &dynamodb.GetItemOutput{Item: copied}, nil
}

func (f *fakeDynamo) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++

	k, err := keyOf(params.Key)
	if err != nil {
		return nil, err
	}

	item, ok := f.table[k]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}

	status, _ := item["status"].(*types.AttributeValueMemberS)
	pending, _ := params.ExpressionAttributeValues[":pending"].(*types.AttributeValueMemberS)
	if status == nil || pending == nil || status.Value != pending.Value {
		return nil, &types.ConditionalCheckFailedException{}
	}

	updated := make(map[string]types.AttributeValue, len(item))
	for name, v := range item {
		updated[name] = v
	}

	clauses := strings.Split(strings.TrimPrefix(*params.UpdateExpression, "SET "), ", ")
	for _, clause := range clauses {
		parts := strings.SplitN(clause, " = ", 2)
		if len(parts) != 2 {
			return nil, errors.New("unsupported update expression")
		}

		name := parts[0]
		if alias, ok := params.ExpressionAttributeNames[name]; ok {
			name = alias
		}
		updated[name] = params.ExpressionAttributeValues[parts[1]]
	}

	f.table[k] = updated
	return &dynamodb.UpdateItemOutput{}, nil
}
