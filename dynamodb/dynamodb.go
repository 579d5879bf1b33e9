// Package dynamodb keeps the user lists in a DynamoDB table with one item per
// storage key.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const DefaultUserListsTable = "user_lists"

// localCredential is accepted by dynamodb-local, which ignores its value but
// still rejects unsigned requests.
const localCredential = "local"

var (
	ErrRegionRequired = errors.New("dynamodb: region is required")
	ErrTableRequired  = errors.New("dynamodb: user lists table is required")
	ErrHalfCredential = errors.New("dynamodb: access key and secret key must be set together")
)

type Options struct {
	Region string
	// Endpoint points the client at dynamodb-local or another compatible
	// server. Without static keys such an endpoint is signed with dummy ones.
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	// Table holds the user lists; DefaultUserListsTable when empty.
	Table string
}

// Open connects and returns the user list repository for opts.Table.
func Open(ctx context.Context, opts Options) (*KeyValueRepository, error) {
	client, err := NewClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	table := opts.Table
	if strings.TrimSpace(table) == "" {
		table = DefaultUserListsTable
	}
	return NewKeyValueRepository(client, table)
}

func NewClient(ctx context.Context, opts Options) (*dynamodb.Client, error) {
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		return nil, ErrRegionRequired
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(region),
	}
	provider, err := staticCredentials(opts)
	if err != nil {
		return nil, err
	}
	if provider != nil {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(provider))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: load aws config: %w", err)
	}

	endpoint := strings.TrimSpace(opts.Endpoint)
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// staticCredentials returns nil when the default AWS credential chain should
// be used.
func staticCredentials(opts Options) (aws.CredentialsProvider, error) {
	switch {
	case opts.AccessKey != "" && opts.SecretKey != "":
		return credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, opts.SessionToken), nil
	case opts.AccessKey != "" || opts.SecretKey != "" || opts.SessionToken != "":
		return nil, ErrHalfCredential
	case strings.TrimSpace(opts.Endpoint) != "":
		return credentials.NewStaticCredentialsProvider(localCredential, localCredential, ""), nil
	default:
		return nil, nil
	}
}

func tableName(table string) (string, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return "", ErrTableRequired
	}
	return table, nil
}
