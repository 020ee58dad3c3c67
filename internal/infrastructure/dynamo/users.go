package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/atcloud/message-center/internal/domain"
)

// UserRepo reads the users table owned by the account service. Only the
// audience resolver consumes it, so the surface is read-only here.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

// ListActive returns every enabled user via the enable-index GSI, following
// pagination until the index is exhausted. The result is the raw audience
// for "send to all active users" broadcasts.
func (r *UserRepo) ListActive(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String("enable-index"),
			KeyConditionExpression: aws.String("#e = :one"),
			ExpressionAttributeNames: map[string]string{
				"#e": fieldEnable,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":one": &types.AttributeValueMemberN{Value: "1"},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.User
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		users = append(users, page...)
		if out.LastEvaluatedKey == nil {
			return users, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
