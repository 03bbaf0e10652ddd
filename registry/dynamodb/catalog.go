// Package dynamodb provides a DynamoDB-backed registry.Catalog.
//
// Every saved model is recorded as an item; the latest model is answered by a
// descending query on the sort key, so resolution does not depend on listing
// the artifact bucket.
//
// Table schema:
//   - Partition key: namespace (string) - e.g. the bucket/prefix of the registry
//   - Sort key: model_name (string) - generated names sort by creation time
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name pqhash-models \
//	  --attribute-definitions AttributeName=namespace,AttributeType=S AttributeName=model_name,AttributeType=S \
//	  --key-schema AttributeName=namespace,KeyType=HASH AttributeName=model_name,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/pqhash/registry"
)

// Client is the interface for DynamoDB operations.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Catalog implements registry.Catalog on a DynamoDB table.
type Catalog struct {
	client    Client
	tableName string
	namespace string
}

// NewCatalog creates a Catalog. namespace separates registries sharing a table.
func NewCatalog(client Client, tableName, namespace string) *Catalog {
	return &Catalog{
		client:    client,
		tableName: tableName,
		namespace: namespace,
	}
}

// Record stores the model item. Recording a name twice fails with
// registry.ErrModelExists.
func (c *Catalog) Record(ctx context.Context, name string, createdAt time.Time) error {
	_, err := c.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"namespace":  &types.AttributeValueMemberS{Value: c.namespace},
			"model_name": &types.AttributeValueMemberS{Value: name},
			"created_at": &types.AttributeValueMemberS{Value: createdAt.UTC().Format(time.RFC3339)},
		},
		ConditionExpression: aws.String("attribute_not_exists(model_name)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return fmt.Errorf("%w: %s", registry.ErrModelExists, name)
		}
		return fmt.Errorf("failed to record model in DynamoDB: %w", err)
	}
	return nil
}

// Latest queries the greatest model name in the namespace.
func (c *Catalog) Latest(ctx context.Context) (string, error) {
	resp, err := c.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("#ns = :ns"),
		ExpressionAttributeNames: map[string]string{
			"#ns": "namespace",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ns": &types.AttributeValueMemberS{Value: c.namespace},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return "", fmt.Errorf("failed to query DynamoDB: %w", err)
	}

	if len(resp.Items) == 0 {
		return "", registry.ErrNoModel
	}

	nameAttr, ok := resp.Items[0]["model_name"].(*types.AttributeValueMemberS)
	if !ok {
		return "", errors.New("invalid model_name attribute in DynamoDB")
	}
	return nameAttr.Value, nil
}
