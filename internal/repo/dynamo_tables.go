package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// TableSpec names the tables the app expects.
type TableSpec struct {
	UsersTable string
	FilesTable string
	EmailIndex string
}

// usersTableInput: id hash key plus the email GSI, on-demand billing.
func usersTableInput(spec TableSpec) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(spec.UsersTable),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String("email"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(spec.EmailIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String("email"), KeyType: types.KeyTypeHash},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	}
}

func filesTableInput(spec TableSpec) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(spec.FilesTable),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	}
}

// EnsureTables creates the users and files tables when they are missing.
// It returns the names of the tables it created.
func EnsureTables(ctx context.Context, client DynamoAPI, spec TableSpec, logger *zap.Logger) ([]string, error) {
	existing := make(map[string]bool)
	paginator := dynamodb.NewListTablesPaginator(client, &dynamodb.ListTablesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		for _, name := range page.TableNames {
			existing[name] = true
		}
	}

	var created []string
	for _, input := range []*dynamodb.CreateTableInput{usersTableInput(spec), filesTableInput(spec)} {
		name := aws.ToString(input.TableName)
		if existing[name] {
			logger.Info("table already exists", zap.String("table", name))
			continue
		}
		if _, err := client.CreateTable(ctx, input); err != nil {
			var inUse *types.ResourceInUseException
			if errors.As(err, &inUse) {
				continue
			}
			return created, fmt.Errorf("create table %s: %w", name, err)
		}
		logger.Info("table created", zap.String("table", name))
		created = append(created, name)
	}
	return created, nil
}
