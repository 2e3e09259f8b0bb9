package dynamodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/AlirezaQolamian-dev/img-uploader/internal/application/port"
	"github.com/AlirezaQolamian-dev/img-uploader/internal/infrastructure/awsclient"
)

const (
	attrPK        = "PK"
	attrValue     = "value"
	attrUpdatedAt = "updated_at"

	keyPrefix = "SNAPSHOT#"
)

type Config struct {
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// SnapshotStore хранит snapshot как один item таблицы: PK=SNAPSHOT#<key>, value (B)
type SnapshotStore struct {
	client    API
	tableName string
}

func NewSnapshotStore(ctx context.Context, cfg Config) (*SnapshotStore, error) {
	if strings.TrimSpace(cfg.TableName) == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}

	awsCfg, err := awsclient.Load(ctx, "dynamodb", awsclient.Options{
		Region:          cfg.Region,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}

	client := dynamodb.NewFromConfig(awsCfg, func(options *dynamodb.Options) {
		options.BaseEndpoint = awsclient.Endpoint(cfg.Endpoint)
	})

	return NewWithClient(client, cfg.TableName), nil
}

// NewWithClient is used by tests and by callers that build their own client.
func NewWithClient(client API, tableName string) *SnapshotStore {
	return &SnapshotStore{client: client, tableName: strings.TrimSpace(tableName)}
}

func (s *SnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	output, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            map[string]types.AttributeValue{attrPK: &types.AttributeValueMemberS{Value: keyPrefix + key}},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item failed: %w", err)
	}
	if len(output.Item) == 0 {
		return nil, port.ErrSnapshotNotFound
	}

	value, ok := output.Item[attrValue].(*types.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("snapshot item %q has no binary value", key)
	}
	return value.Value, nil
}

func (s *SnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			attrPK:        &types.AttributeValueMemberS{Value: keyPrefix + key},
			attrValue:     &types.AttributeValueMemberB{Value: data},
			attrUpdatedAt: &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		return fmt.Errorf("put item failed: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Ping(ctx context.Context) error {
	if _, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)}); err != nil {
		return fmt.Errorf("describe table failed: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Close() error {
	return nil
}
