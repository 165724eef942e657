package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/glimpse-app/glimpse-api/internal/aws"
)

// DynamoStore persists idempotency records in a DynamoDB table with a TTL
// attribute (expires_at, epoch seconds) enabled on the table.
type DynamoStore struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewDynamoStore returns a configured DynamoStore.
func NewDynamoStore(client aws.DynamoDBAPI, tableName string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// PutIfAbsent creates the record only when the key does not exist, using a
// conditional PutItem. This is the atomic in-flight marker: of two concurrent
// writers exactly one observes created=true.
func (s *DynamoStore) PutIfAbsent(ctx context.Context, key string, rec Record, ttl time.Duration) (bool, error) {
	now := s.nowFunc()
	rec.Key = key
	rec.CachedAt = now
	rec.ExpiresAt = now.Add(ttl).Unix()

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}

	input := &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
		// Only create when attribute_not_exists(idempotency_key)
		ConditionExpression: awsString("attribute_not_exists(idempotency_key)"),
	}

	_, err = s.client.PutItem(ctx, input)
	if err != nil {
		// detect conditional check failure
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return false, nil
		}
		return false, fmt.Errorf("put item: %w", err)
	}

	return true, nil
}

// Get retrieves a record by key. If not found (or past its TTL but not yet
// reaped by DynamoDB), returns (nil, nil).
func (s *DynamoStore) Get(ctx context.Context, key string) (*Record, error) {
	input := &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"idempotency_key": &types.AttributeValueMemberS{Value: key},
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
	// DynamoDB TTL reaping lags; treat expired items as absent.
	if rec.ExpiresAt > 0 && s.nowFunc().Unix() > rec.ExpiresAt {
		return nil, nil
	}
	return &rec, nil
}

// Complete sets status DONE and stores the captured response under the key.
func (s *DynamoStore) Complete(ctx context.Context, key string, rec Record, ttl time.Duration) error {
	now := s.nowFunc()
	headers, err := attributevalue.Marshal(rec.Headers)
	if err != nil {
		return fmt.Errorf("marshal headers: %w", err)
	}
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"idempotency_key": &types.AttributeValueMemberS{Value: key},
		},
		UpdateExpression: awsString("SET #s = :done, response_body = :rb, response_status = :rs, response_headers = :rh, cached_at = :ca, expires_at = :ea"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":done": &types.AttributeValueMemberS{Value: StatusDone},
			":rb":   &types.AttributeValueMemberB{Value: rec.Body},
			":rs":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", rec.StatusCode)},
			":rh":   headers,
			":ca":   &types.AttributeValueMemberS{Value: rec.CachedAt.Format(time.RFC3339)},
			":ea":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Add(ttl).Unix())},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	}
	_, err = s.client.UpdateItem(ctx, input)
	if err != nil {
		return fmt.Errorf("update item (complete): %w", err)
	}
	return nil
}

// Delete releases the key so a later retry starts fresh.
func (s *DynamoStore) Delete(ctx context.Context, key string) error {
	input := &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"idempotency_key": &types.AttributeValueMemberS{Value: key},
		},
	}
	_, err := s.client.DeleteItem(ctx, input)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// Helper
func awsString(s string) *string { return &s }
