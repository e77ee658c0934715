package permission

import (
	"strings"

	"github.com/google/uuid"
)

type Resource string

type Action string

const (
	ActionCreate  Action = "create"
	ActionView    Action = "view"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionApprove Action = "approve"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionView, ActionUpdate, ActionDelete, ActionApprove:
		return true
	}
	return false
}

func (a Action) EqualFold(other Action) bool {
	return strings.EqualFold(string(a), string(other))
}

func (r Resource) EqualFold(other Resource) bool {
	return strings.EqualFold(string(r), string(other))
}

type Permission struct {
	ID       uuid.UUID
	Name     string
	Resource Resource
	Action   Action
}

// Matches reports whether the permission grants the requested resource and
// action. Matching is case-insensitive on both sides.
func (p *Permission) Matches(resource, action string) bool {
	return strings.EqualFold(string(p.Resource), resource) &&
		strings.EqualFold(string(p.Action), action)
}
