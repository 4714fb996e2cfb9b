package repo

import (
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
)

// attributes an update never touches
var immutableAttributes = map[string]bool{
	"id":        true,
	"createdAt": true,
}

// BuildUpdateExpression turns a partial field map into a SET expression.
// Names and values are always aliased (#n / :v), so reserved words such as
// "name" are safe. updatedAt is always set; the item must already exist.
func BuildUpdateExpression(fields map[string]any, updatedAt time.Time) (expression.Expression, error) {
	names := make([]string, 0, len(fields))
	for name, value := range fields {
		if immutableAttributes[name] || name == "updatedAt" || value == nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	update := expression.UpdateBuilder{}
	for _, name := range names {
		update = update.Set(expression.Name(name), expression.Value(fields[name]))
	}
	update = update.Set(expression.Name("updatedAt"), expression.Value(updatedAt))

	return expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("id"))).
		Build()
}
