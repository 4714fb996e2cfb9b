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
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoUserRepository stores users as items keyed by a random uuid.
// Email lookups go through a global secondary index.
type DynamoUserRepository struct {
	client     DynamoAPI
	table      string
	emailIndex string
}

func NewDynamoUserRepository(client DynamoAPI, table, emailIndex string) *DynamoUserRepository {
	return &DynamoUserRepository{client: client, table: table, emailIndex: emailIndex}
}

func (r *DynamoUserRepository) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = utils.NewObjectID()
	}
	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
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

func (r *DynamoUserRepository) Get(ctx context.Context, id string) (*model.User, error) {
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
	var user model.User
	if err := attributevalue.UnmarshalMap(out.Item, &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &user, nil
}

func (r *DynamoUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	keyCond := expression.Key("email").Equal(expression.Value(email))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, err
	}
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String(r.emailIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, ErrNotFound
	}
	var user model.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &user, nil
}

// Update sets the supplied attributes and returns the full item afterwards.
func (r *DynamoUserRepository) Update(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	expr, err := BuildUpdateExpression(patch.Fields(), patch.UpdatedAt)
	if err != nil {
		return nil, err
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       idKey(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := attributevalue.UnmarshalMap(out.Attributes, &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &user, nil
}

func (r *DynamoUserRepository) Delete(ctx context.Context, id string) error {
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

// List scans the whole table; order is whatever the scan yields.
func (r *DynamoUserRepository) List(ctx context.Context) ([]model.User, error) {
	items, err := scanAll(ctx, r.client, r.table)
	if err != nil {
		return nil, err
	}
	users := make([]model.User, 0, len(items))
	if err := attributevalue.UnmarshalListOfMaps(items, &users); err != nil {
		return nil, fmt.Errorf("unmarshal users: %w", err)
	}
	return users, nil
}

func (r *DynamoUserRepository) Ping(ctx context.Context) error {
	return pingTable(ctx, r.client, r.table)
}
