package entity

import (
	"net/http"

	"doorcheck/lib/validate"
)

// OperatorRole controls what a staff member may do at the door.
// Both roles may check tickets in today; the role still travels with every
// call so the two can diverge later.
type OperatorRole string

const (
	RoleAdmin     OperatorRole = "admin"
	RoleVolunteer OperatorRole = "volunteer"
)

// Operator is an authenticated staff identity, looked up by its bearer token.
type Operator struct {
	Id    string       `json:"id" bson:"id" yaml:"id" validate:"required"`
	Name  string       `json:"name" bson:"name" yaml:"name" validate:"omitempty"`
	Role  OperatorRole `json:"role" bson:"role" yaml:"role" validate:"required,oneof=admin volunteer"`
	Token string       `json:"-" bson:"token" yaml:"token" validate:"required,min=8"`
}

func (o *Operator) Bind(_ *http.Request) error {
	return validate.Struct(o)
}

func (o *Operator) IsAdmin() bool {
	return o.Role == RoleAdmin
}

func (o *Operator) CanCheckIn() bool {
	return o.Role == RoleAdmin || o.Role == RoleVolunteer
}
