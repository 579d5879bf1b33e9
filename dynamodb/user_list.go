package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// KeyValueRepository implements userlist.Storage with one item per key.
type KeyValueRepository struct {
	client *dynamodb.Client
	table  string
}

type keyValueItem struct {
	Key       string `dynamodbav:"key"`
	Value     string `dynamodbav:"value"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

// NewKeyValueRepository fails with ErrTableRequired for a blank table.
func NewKeyValueRepository(client *dynamodb.Client, table string) (*KeyValueRepository, error) {
	table, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &KeyValueRepository{
		client: client,
		table:  table,
	}, nil
}

func (r *KeyValueRepository) Table() string {
	return r.table
}

// EnsureTable creates the repository's table if it does not exist yet.
func (r *KeyValueRepository) EnsureTable(ctx context.Context) error {
	return CreateKeyValueTable(ctx, r.client, r.table)
}

func (r *KeyValueRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &r.table,
		Key:            itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("dynamodb: get %s: %w", key, err)
	}
	if out.Item == nil {
		return nil, false, nil
	}

	var item keyValueItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, false, fmt.Errorf("dynamodb: unmarshal %s: %w", key, err)
	}
	return []byte(item.Value), true, nil
}

func (r *KeyValueRepository) Put(ctx context.Context, key string, value []byte) error {
	av, err := attributevalue.MarshalMap(keyValueItem{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("dynamodb: marshal %s: %w", key, err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.table,
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("dynamodb: put %s: %w", key, err)
	}
	return nil
}

func (r *KeyValueRepository) Delete(ctx context.Context, key string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: &r.table,
		Key:       itemKey(key),
	})
	if err != nil {
		return fmt.Errorf("dynamodb: delete %s: %w", key, err)
	}
	return nil
}

// CreateKeyValueTable creates the table with "key" as its hash key. An
// existing table is left alone.
func CreateKeyValueTable(ctx context.Context, client *dynamodb.Client, table string) error {
	table, err := tableName(table)
	if err != nil {
		return err
	}

	_, err = client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &table,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("key"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("key"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	var inUse *types.ResourceInUseException
	if errors.As(err, &inUse) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("dynamodb: create table %s: %w", table, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: &table}, time.Minute); err != nil {
		return fmt.Errorf("dynamodb: wait for table %s: %w", table, err)
	}
	return nil
}

func itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"key": &types.AttributeValueMemberS{Value: key},
	}
}
