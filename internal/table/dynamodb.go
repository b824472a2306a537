package table

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

const (
	// DynamoDB rejects BatchWriteItem requests with more than 25 puts.
	dynamoBatchSize = 25
	// Unprocessed items are resubmitted at most this many times per chunk.
	dynamoMaxPasses = 5
)

type DynamoAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

type DynamoTable struct {
	client DynamoAPI
	name   string
}

func NewDynamoTable(client DynamoAPI, name string) (*DynamoTable, error) {
	name = strings.TrimSpace(name)
	if client == nil || name == "" {
		return nil, ErrInvalidInput
	}
	return &DynamoTable{client: client, name: name}, nil
}

func NewDynamoTableFromConfig(cfg aws.Config, name string) (*DynamoTable, error) {
	return NewDynamoTable(dynamodb.NewFromConfig(cfg), name)
}

// Upsert writes rows in batches. Rows sharing a problem id collapse to the
// last one, since a batch may not name the same key twice.
func (t *DynamoTable) Upsert(ctx context.Context, rows []Row) error {
	for _, row := range rows {
		if strings.TrimSpace(row.ProblemID) == "" {
			return ErrInvalidInput
		}
	}
	rows = lastByID(rows)
	requests := make([]types.WriteRequest, 0, len(rows))
	for _, row := range rows {
		item, err := attributevalue.MarshalMap(row)
		if err != nil {
			return fmt.Errorf("marshal row %s: %w", row.ProblemID, err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	for start := 0; start < len(requests); start += dynamoBatchSize {
		end := start + dynamoBatchSize
		if end > len(requests) {
			end = len(requests)
		}
		if err := t.writeChunk(ctx, requests[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func lastByID(rows []Row) []Row {
	index := make(map[string]int, len(rows))
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if i, ok := index[row.ProblemID]; ok {
			out[i] = row
			continue
		}
		index[row.ProblemID] = len(out)
		out = append(out, row)
	}
	return out
}

// writeChunk sends one BatchWriteItem and resubmits whatever the service
// hands back as unprocessed.
func (t *DynamoTable) writeChunk(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{t.name: requests}
	for pass := 0; pass < dynamoMaxPasses; pass++ {
		out, err := t.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			var apiErr smithy.APIError
			if errors.As(err, &apiErr) {
				return fmt.Errorf("batch write %s: %s: %w", t.name, apiErr.ErrorCode(), err)
			}
			return fmt.Errorf("batch write %s: %w", t.name, err)
		}
		if out == nil || len(out.UnprocessedItems[t.name]) == 0 {
			return nil
		}
		pending = map[string][]types.WriteRequest{t.name: out.UnprocessedItems[t.name]}
	}
	return fmt.Errorf("batch write %s: %d items still unprocessed after %d passes", t.name, len(pending[t.name]), dynamoMaxPasses)
}

func (t *DynamoTable) Kind() string {
	return "dynamodb"
}

func (t *DynamoTable) Name() string {
	return t.name
}
