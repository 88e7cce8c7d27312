package cont

import (
	"context"

	"doorcheck/entity"
)

type ctxKey string

const OperatorKey ctxKey = "operator"

func PutOperator(c context.Context, op *entity.Operator) context.Context {
	return context.WithValue(c, OperatorKey, *op)
}

// GetOperator returns nil when the request was not authenticated.
func GetOperator(c context.Context) *entity.Operator {
	op, ok := c.Value(OperatorKey).(entity.Operator)
	if !ok {
		return nil
	}
	return &op
}
