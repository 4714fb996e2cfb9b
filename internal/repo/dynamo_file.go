package repo

import (
	"Next_Express/model"
	"Next_Express/utils"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// DynamoFileRepository stores file metadata as items keyed by a random uuid.
type DynamoFileRepository struct {
	client DynamoAPI
	table  string
}

func NewDynamoFileRepository(client DynamoAPI, table string) *DynamoFileRepository {
	return &DynamoFileRepository{client: client, table: table}
}

func (r *DynamoFileRepository) Create(ctx context.Context, file *model.File) error {
	if file.ID == "" {
		file.ID = utils.NewObjectID()
	}
	item, err := attributevalue.MarshalMap(file)
	if err != nil {
		return fmt.Errorf("marshal file: %w", err)
	}
	expr, err := conditionExpression(expression.AttributeNotExists(expression.Name("id")))
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.table),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if isConditionFailed(err) {
		return ErrDuplicate
	}
	return err
}

func (r *DynamoFileRepository) Get(ctx context.Context, id string) (*model.File, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       idKey(id),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	var file model.File
	if err := attributevalue.UnmarshalMap(out.Item, &file); err != nil {
		return nil, fmt.Errorf("unmarshal file: %w", err)
	}
	return &file, nil
}

func (r *DynamoFileRepository) Delete(ctx context.Context, id string) error {
	expr, err := conditionExpression(expression.AttributeExists(expression.Name("id")))
	if err != nil {
		return err
	}
	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.table),
		Key:                      idKey(id),
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if isConditionFailed(err) {
		return ErrNotFound
	}
	return err
}

func (r *DynamoFileRepository) List(ctx context.Context) ([]model.File, error) {
	items, err := scanAll(ctx, r.client, r.table)
	if err != nil {
		return nil, err
	}
	files := make([]model.File, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &files); err != nil {
		return nil, fmt.Errorf("unmarshal files: %w", err)
	}
	return files, nil
}

func (r *DynamoFileRepository) Ping(ctx context.Context) error {
	return pingTable(ctx, r.client, r.table)
}
