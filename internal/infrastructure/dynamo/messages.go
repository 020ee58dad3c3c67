package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/atcloud/message-center/internal/domain"
)

// MessageRepo provides typed DynamoDB operations for the messages table.
//
// One item holds the shared broadcast fields plus the recipient_states map.
// Every per-recipient mutation is a single UpdateItem against a document
// path inside that map, so two recipients writing to the same message never
// contend and no code path does a whole-item read-modify-write.
type MessageRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMessageRepo(client *dynamodb.Client, tableName string) *MessageRepo {
	return &MessageRepo{client: client, tableName: tableName}
}

func (r *MessageRepo) Put(ctx context.Context, m *domain.Message) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *MessageRepo) Get(ctx context.Context, messageID string) (*domain.Message, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldMessageID, messageID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}
	var m domain.Message
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListForRecipient returns every message that carries a state entry for the
// recipient. Map keys cannot back a GSI, so this is a filtered scan; the
// visibility predicates (active, removed flags) are evaluated by the caller.
func (r *MessageRepo) ListForRecipient(ctx context.Context, recipientID string) ([]domain.Message, error) {
	var messages []domain.Message
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(r.tableName),
			FilterExpression: aws.String("attribute_exists(#rs.#rid)"),
			ExpressionAttributeNames: map[string]string{
				"#rs":  fieldRecipientStates,
				"#rid": recipientID,
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Message
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		messages = append(messages, page...)
		if out.LastEvaluatedKey == nil {
			return messages, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// HasRecipient reports whether the recipient has a state entry on the
// message. Returns domain.ErrNotFound when the message itself is unknown.
func (r *MessageRepo) HasRecipient(ctx context.Context, messageID, recipientID string) (bool, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(r.tableName),
		Key:                  strKey(fieldMessageID, messageID),
		ProjectionExpression: aws.String("#rs.#rid, #id"),
		ExpressionAttributeNames: map[string]string{
			"#rs":  fieldRecipientStates,
			"#rid": recipientID,
			"#id":  fieldMessageID,
		},
	})
	if err != nil {
		return false, err
	}
	if out.Item == nil {
		return false, fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}
	rs, ok := out.Item[fieldRecipientStates].(*types.AttributeValueMemberM)
	if !ok {
		return false, nil
	}
	_, present := rs.Value[recipientID]
	return present, nil
}

// UpdateRecipientState applies a field set produced by the domain state
// rules to exactly one recipient's entry. The condition guards against the
// entry having vanished between the caller's read and this write; callers
// resolve message existence beforehand, so a failed condition always means
// the recipient is not eligible.
func (r *MessageRepo) UpdateRecipientState(ctx context.Context, messageID, recipientID string, updates map[string]interface{}) error {
	ue, err := buildEntryUpdateExpr(recipientID, updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldMessageID, messageID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#rs.#rid)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("message %s recipient %s: %w", messageID, recipientID, domain.ErrNotEligible)
		}
		return err
	}
	return nil
}

// AppendRecipients seeds a fresh unread state for each recipient that does
// not already have one. if_not_exists keeps the call idempotent: existing
// entries are never overwritten, so re-appending a recipient cannot reset
// their read/removed flags.
func (r *MessageRepo) AppendRecipients(ctx context.Context, messageID string, recipientIDs []string) error {
	fresh, err := attributevalue.Marshal(domain.RecipientState{})
	if err != nil {
		return fmt.Errorf("marshal fresh state: %w", err)
	}
	for _, rid := range recipientIDs {
		_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:           aws.String(r.tableName),
			Key:                 strKey(fieldMessageID, messageID),
			UpdateExpression:    aws.String("SET #rs.#rid = if_not_exists(#rs.#rid, :fresh)"),
			ConditionExpression: aws.String("attribute_exists(#id)"),
			ExpressionAttributeNames: map[string]string{
				"#rs":  fieldRecipientStates,
				"#rid": rid,
				"#id":  fieldMessageID,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":fresh": fresh,
			},
		})
		if err != nil {
			var ccf *types.ConditionalCheckFailedException
			if errors.As(err, &ccf) {
				return fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
			}
			return err
		}
	}
	return nil
}

// SetActive flips the global visibility toggle. This and Put are the only
// writers of shared message fields.
func (r *MessageRepo) SetActive(ctx context.Context, messageID string, active bool) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		fieldIsActive:  active,
		fieldUpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldMessageID, messageID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(message_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
		}
		return err
	}
	return nil
}
