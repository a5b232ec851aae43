package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	pkPrefixUpdate = "UPDATE#"
	ttlDuration    = 24 * time.Hour // Telegram stops redelivering well before this
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// Client records which webhook updates have already been accepted so that a
// redelivered update is dispatched only once.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

func updatePK(updateID int64) string {
	return pkPrefixUpdate + strconv.FormatInt(updateID, 10)
}

// ClaimUpdate marks updateID as seen. It returns false when another delivery
// of the same update already claimed it.
func (c *Client) ClaimUpdate(ctx context.Context, updateID int64, chatID int64) (bool, error) {
	now := c.now().UTC()
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"PK":         &types.AttributeValueMemberS{Value: updatePK(updateID)},
			"chatId":     &types.AttributeValueMemberN{Value: strconv.FormatInt(chatID, 10)},
			"receivedAt": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
			"ttl":        &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Add(ttlDuration).Unix(), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}
		return false, fmt.Errorf("repository: ClaimUpdate %d: %w", updateID, err)
	}
	return true, nil
}
