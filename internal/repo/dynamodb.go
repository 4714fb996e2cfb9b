package repo

import (
	"Next_Express/config"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// DynamoAPI is the subset of the DynamoDB client the repositories and the
// table bootstrap use.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

var _ DynamoAPI = (*dynamodb.Client)(nil)

var Dynamo DynamoAPI

// NewDynamoClient builds a DynamoDB client, honouring DYNAMODB_ENDPOINT for DynamoDB Local.
func NewDynamoClient(ctx context.Context, c config.Config) (*dynamodb.Client, error) {
	awsCfg, err := config.LoadAWSConfig(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if c.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(c.DynamoEndpoint)
		}
	}), nil
}

// InitDynamo sets Dynamo from config.
func InitDynamo(ctx context.Context, logger *zap.Logger) error {
	if !config.AppConfig.DynamoConfigured() {
		return errors.New("dynamodb not configured")
	}
	client, err := NewDynamoClient(ctx, config.AppConfig)
	if err != nil {
		return err
	}
	Dynamo = client
	logger.Info("init dynamodb success",
		zap.String("region", config.AppConfig.AWSRegion),
		zap.String("endpoint", config.AppConfig.DynamoEndpoint))
	return nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func idKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func conditionExpression(cond expression.ConditionBuilder) (expression.Expression, error) {
	return expression.NewBuilder().WithCondition(cond).Build()
}

// scanAll walks every page of a table scan.
func scanAll(ctx context.Context, client DynamoAPI, table string) ([]map[string]types.AttributeValue, error) {
	paginator := dynamodb.NewScanPaginator(client, &dynamodb.ScanInput{
		TableName: aws.String(table),
	})
	var items []map[string]types.AttributeValue
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// pingTable mirrors a health probe: one-item scan.
func pingTable(ctx context.Context, client DynamoAPI, table string) error {
	_, err := client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(table),
		Limit:     aws.Int32(1),
	})
	return err
}
