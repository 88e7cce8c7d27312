package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"doorcheck/entity"
)

type Database interface {
	GetOperator(ctx context.Context, token string) (*entity.Operator, error)
}

type Auth struct {
	db Database
}

func New(db Database) *Auth {
	return &Auth{db: db}
}

func (a Auth) OperatorByToken(ctx context.Context, token string) (*entity.Operator, error) {
	if a.db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}
	op, err := a.db.GetOperator(ctx, token)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, fmt.Errorf("operator not found")
	}
	return op, nil
}

// Static serves operators from the config file.
type Static struct {
	operators []entity.Operator
}

func NewStatic(operators []entity.Operator) *Static {
	list := make([]entity.Operator, len(operators))
	copy(list, operators)
	return &Static{operators: list}
}

func (s *Static) GetOperator(_ context.Context, token string) (*entity.Operator, error) {
	for i := range s.operators {
		if subtle.ConstantTimeCompare([]byte(s.operators[i].Token), []byte(token)) == 1 {
			op := s.operators[i]
			return &op, nil
		}
	}
	return nil, nil
}
