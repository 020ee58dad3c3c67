package dynamo

import (
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// strKey builds a DynamoDB primary key map with a single string attribute.
func strKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// updateExpr bundles a SET expression with its name and value placeholders.
type updateExpr struct {
	Expr   string
	Names  map[string]string
	Values map[string]types.AttributeValue
}

// buildUpdateExpr converts a map of field->value into a DynamoDB SET
// expression over top-level attributes. Keys are processed in sorted order
// so generated expressions are deterministic and assertable in tests.
func buildUpdateExpr(updates map[string]interface{}) (*updateExpr, error) {
	ue := &updateExpr{
		Names:  make(map[string]string),
		Values: make(map[string]types.AttributeValue),
		Expr:   "SET ",
	}
	if err := appendAssignments(ue, updates, func(nameKey string) string { return nameKey }); err != nil {
		return nil, err
	}
	return ue, nil
}

// buildEntryUpdateExpr is buildUpdateExpr for fields nested inside one
// recipient's entry of the recipient_states map. Every document path is
// scoped to #rs.#rid so the write can never touch another recipient's entry.
func buildEntryUpdateExpr(recipientID string, updates map[string]interface{}) (*updateExpr, error) {
	ue := &updateExpr{
		Names: map[string]string{
			"#rs":  fieldRecipientStates,
			"#rid": recipientID,
		},
		Values: make(map[string]types.AttributeValue),
		Expr:   "SET ",
	}
	if err := appendAssignments(ue, updates, func(nameKey string) string { return "#rs.#rid." + nameKey }); err != nil {
		return nil, err
	}
	return ue, nil
}

func appendAssignments(ue *updateExpr, updates map[string]interface{}, path func(nameKey string) string) error {
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":v%d", i)
		ue.Names[nameKey] = k
		av, err := attributevalue.Marshal(updates[k])
		if err != nil {
			return fmt.Errorf("marshal field %s: %w", k, err)
		}
		ue.Values[valueKey] = av
		if i > 0 {
			ue.Expr += ", "
		}
		ue.Expr += fmt.Sprintf("%s = %s", path(nameKey), valueKey)
	}
	if len(keys) == 0 {
		return fmt.Errorf("no fields to update")
	}
	return nil
}
