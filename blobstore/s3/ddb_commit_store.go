package s3

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/kdgo/blobstore"
)

// DDBCommitStore wraps a Store and keeps CURRENT in DynamoDB, where a
// conditional write gives publishers the compare-and-swap that S3 lacks.
// All other blobs are delegated to the Store.
//
// Every publish appends an item, so the table doubles as a history of
// published snapshots.
//
// Table schema:
//   - Partition key: base_uri (string), the store's s3://bucket/prefix/
//   - Sort key: version (number), increasing per publish
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name kdgo-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	*Store
	ddbClient DDBClient
	tableName string
	baseURI   string
}

// DDBClient is the subset of *dynamodb.Client used by DDBCommitStore.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentModification is returned when another writer published the
// same version first.
var ErrConcurrentModification = errors.New("s3: concurrent modification detected")

// Commit is one published CURRENT value.
type Commit struct {
	Version  uint64
	Snapshot string
}

// NewDDBCommitStore creates a commit store keyed by the store's BaseURI.
func NewDDBCommitStore(store *Store, ddbClient DDBClient, tableName string) *DDBCommitStore {
	return &DDBCommitStore{
		Store:     store,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   store.BaseURI(),
	}
}

// Open serves CURRENT from DynamoDB and everything else from S3.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name != blobstore.CurrentName {
		return s.Store.Open(ctx, name)
	}

	commits, err := s.History(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, blobstore.ErrNotFound
	}
	mem := blobstore.NewMemoryStore()
	if err := mem.Put(ctx, name, []byte(commits[0].Snapshot)); err != nil {
		return nil, err
	}
	return mem.Open(ctx, name)
}

// Put commits CURRENT through DynamoDB and delegates other blobs to S3.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name != blobstore.CurrentName {
		return s.Store.Put(ctx, name, data)
	}

	commits, err := s.History(ctx, 1)
	if err != nil {
		return err
	}
	var next uint64 = 1
	if len(commits) > 0 {
		next = commits[0].Version + 1
	}

	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"snapshot": &types.AttributeValueMemberS{Value: string(data)},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("s3: commit version %d: %w", next, err)
	}
	return nil
}

// History returns up to limit commits, newest first.
func (s *DDBCommitStore) History(ctx context.Context, limit int32) ([]Commit, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("s3: query commits: %w", err)
	}

	commits := make([]Commit, 0, len(resp.Items))
	for _, item := range resp.Items {
		versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
		if !ok {
			return nil, errors.New("s3: commit item without numeric version")
		}
		snapshotAttr, ok := item["snapshot"].(*types.AttributeValueMemberS)
		if !ok {
			return nil, errors.New("s3: commit item without snapshot")
		}
		version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("s3: parse commit version: %w", err)
		}
		commits = append(commits, Commit{Version: version, Snapshot: snapshotAttr.Value})
	}
	return commits, nil
}
