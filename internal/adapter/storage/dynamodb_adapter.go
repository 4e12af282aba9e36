package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/rl1809/itemstore/internal/core/domain"
)

// DynamoDBAPI is the subset of the DynamoDB client the counter table needs.
type DynamoDBAPI interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// counterRecord is one row of the counter table, keyed by name.
type counterRecord struct {
	Name  string `dynamodbav:"name"`
	Value int64  `dynamodbav:"value"`
}

type DynamoDBAdapter struct {
	client DynamoDBAPI
	table  string
}

func NewDynamoDBAdapter(client DynamoDBAPI, table string) *DynamoDBAdapter {
	return &DynamoDBAdapter{client: client, table: table}
}

// NextValue issues a single UpdateItem with ADD, which creates the item and
// the attribute on first use.
func (d *DynamoDBAdapter) NextValue(ctx context.Context, name string) (int64, error) {
	out, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(d.table),
		Key:              counterKey(name),
		UpdateExpression: aws.String("ADD #value :one"),
		ExpressionAttributeNames: map[string]string{
			"#value": "value",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w: %w", name, domain.ErrPersistence, err)
	}

	var record counterRecord
	if err := attributevalue.UnmarshalMap(out.Attributes, &record); err != nil {
		return 0, fmt.Errorf("unmarshal counter %s: %w: %w", name, domain.ErrPersistence, err)
	}
	if record.Value <= 0 {
		return 0, fmt.Errorf("counter %s returned no value: %w", name, domain.ErrPersistence)
	}

	return record.Value, nil
}

func (d *DynamoDBAdapter) Counter(ctx context.Context, name string) (domain.Counter, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            counterKey(name),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.Counter{}, fmt.Errorf("read counter %s: %w: %w", name, domain.ErrPersistence, err)
	}
	if out.Item == nil {
		return domain.Counter{Name: name}, nil
	}

	var record counterRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return domain.Counter{}, fmt.Errorf("unmarshal counter %s: %w: %w", name, domain.ErrPersistence, err)
	}

	return domain.Counter{Name: name, Value: record.Value}, nil
}

func counterKey(name string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"name": &types.AttributeValueMemberS{Value: name},
	}
}
