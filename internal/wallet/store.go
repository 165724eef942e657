package wallet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/glimpse-app/glimpse-api/internal/aws"
)

// ErrInsufficientFunds indicates the sender's balance cannot cover a transfer.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Store encapsulates operations on the balances table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new balances Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Get fetches a balance by user id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, userID string) (*Balance, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var b Balance
	if err := attributevalue.UnmarshalMap(out.Item, &b); err != nil {
		return nil, fmt.Errorf("unmarshal balance: %w", err)
	}
	return &b, nil
}

// Credit adds settled credits to a user's balance, creating the row if needed.
func (s *Store) Credit(ctx context.Context, userID string, credits int) error {
	now := s.nowFunc()
	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
		UpdateExpression: awsString("SET credits = if_not_exists(credits, :zero) + :inc, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":inc":  &types.AttributeValueMemberN{Value: strconv.Itoa(credits)},
			":ua":   &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}
	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	return nil
}

// Transfer moves credits between two users atomically via TransactWriteItems.
// The debit carries a sufficient-funds condition; the whole transaction rolls
// back when the sender cannot cover the amount.
func (s *Store) Transfer(ctx context.Context, fromUserID, toUserID string, credits int) error {
	if credits <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %d", credits)
	}
	now := s.nowFunc().Format(time.RFC3339)
	amount := strconv.Itoa(credits)

	transactItems := []types.TransactWriteItem{
		{
			Update: &types.Update{
				TableName: &s.tableName,
				Key: map[string]types.AttributeValue{
					"user_id": &types.AttributeValueMemberS{Value: fromUserID},
				},
				UpdateExpression: awsString("SET credits = credits - :amt, updated_at = :ua"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":amt": &types.AttributeValueMemberN{Value: amount},
					":ua":  &types.AttributeValueMemberS{Value: now},
				},
				ConditionExpression: awsString("attribute_exists(user_id) AND credits >= :amt"),
			},
		},
		{
			Update: &types.Update{
				TableName: &s.tableName,
				Key: map[string]types.AttributeValue{
					"user_id": &types.AttributeValueMemberS{Value: toUserID},
				},
				UpdateExpression: awsString("SET credits = if_not_exists(credits, :zero) + :amt, updated_at = :ua"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":zero": &types.AttributeValueMemberN{Value: "0"},
					":amt":  &types.AttributeValueMemberN{Value: amount},
					":ua":   &types.AttributeValueMemberS{Value: now},
				},
			},
		},
	}

	_, err := s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: transactItems,
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return ErrInsufficientFunds
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
