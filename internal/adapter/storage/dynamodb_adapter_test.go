package storage

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/itemstore/internal/core/domain"
)

// fakeDynamoDB applies ADD updates to an in-memory table.
type fakeDynamoDB struct {
	mu     sync.Mutex
	values map[string]int64
	err    error
	inputs []*dynamodb.UpdateItemInput
}

func newFakeDynamoDB() *fakeDynamoDB {
	return &fakeDynamoDB{values: make(map[string]int64)}
}

func (f *fakeDynamoDB) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}

	name := params.Key["name"].(*types.AttributeValueMemberS).Value
	delta, err := strconv.ParseInt(params.ExpressionAttributeValues[":one"].(*types.AttributeValueMemberN).Value, 10, 64)
	if err != nil {
		return nil, err
	}
	f.values[name] += delta

	return &dynamodb.UpdateItemOutput{
		Attributes: map[string]types.AttributeValue{
			"value": &types.AttributeValueMemberN{Value: strconv.FormatInt(f.values[name], 10)},
		},
	}, nil
}

func (f *fakeDynamoDB) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	name := params.Key["name"].(*types.AttributeValueMemberS).Value
	value, ok := f.values[name]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}

	return &dynamodb.GetItemOutput{
		Item: map[string]types.AttributeValue{
			"name":  &types.AttributeValueMemberS{Value: name},
			"value": &types.AttributeValueMemberN{Value: strconv.FormatInt(value, 10)},
		},
	}, nil
}

func TestDynamoDBNextValue(t *testing.T) {
	client := newFakeDynamoDB()
	adapter := NewDynamoDBAdapter(client, "counters")
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := adapter.NextValue(ctx, domain.ItemSequence)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	input := client.inputs[0]
	assert.Equal(t, "counters", aws.ToString(input.TableName))
	assert.Equal(t, "ADD #value :one", aws.ToString(input.UpdateExpression))
	assert.Equal(t, types.ReturnValueUpdatedNew, input.ReturnValues)

	counter, err := adapter.Counter(ctx, domain.ItemSequence)
	require.NoError(t, err)
	assert.Equal(t, int64(3), counter.Value)

	counter, err = adapter.Counter(ctx, "unused")
	require.NoError(t, err)
	assert.Zero(t, counter.Value)
}

func TestDynamoDBNextValue_Error(t *testing.T) {
	client := newFakeDynamoDB()
	client.err = errors.New("throttled")
	adapter := NewDynamoDBAdapter(client, "counters")

	_, err := adapter.NextValue(context.Background(), domain.ItemSequence)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}
