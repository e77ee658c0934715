package role

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/core/domain/entities/permission"
)

// SuperAdminName short-circuits every permission check for holders of a role
// carrying this name, compared case-insensitively.
const SuperAdminName = "Super Admin"

type Role struct {
	id          uuid.UUID
	name        string
	description string
	permissions []*permission.Permission
	createdAt   time.Time
	updatedAt   time.Time
}

type Option func(*Role)

func WithID(id uuid.UUID) Option {
	return func(r *Role) {
		r.id = id
	}
}

func WithDescription(description string) Option {
	return func(r *Role) {
		r.description = description
	}
}

func WithPermissions(permissions []*permission.Permission) Option {
	return func(r *Role) {
		r.permissions = permissions
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(r *Role) {
		r.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(r *Role) {
		r.updatedAt = updatedAt
	}
}

func New(name string, opts ...Option) *Role {
	r := &Role{
		id:        uuid.New(),
		name:      strings.TrimSpace(name),
		createdAt: time.Now(),
		updatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Role) ID() uuid.UUID { return r.id }

func (r *Role) Name() string { return r.name }

func (r *Role) Description() string { return r.description }

func (r *Role) Permissions() []*permission.Permission { return r.permissions }

func (r *Role) CreatedAt() time.Time { return r.createdAt }

func (r *Role) UpdatedAt() time.Time { return r.updatedAt }

func (r *Role) IsSuperAdmin() bool {
	return strings.EqualFold(r.name, SuperAdminName)
}

// Grants reports whether any of the role's permissions matches the requested
// resource and action.
func (r *Role) Grants(resource, action string) bool {
	for _, p := range r.permissions {
		if p.Matches(resource, action) {
			return true
		}
	}
	return false
}

func (r *Role) SetName(name string) {
	r.name = strings.TrimSpace(name)
	r.updatedAt = time.Now()
}

func (r *Role) SetDescription(description string) {
	r.description = description
	r.updatedAt = time.Now()
}

func (r *Role) SetPermissions(permissions []*permission.Permission) {
	r.permissions = permissions
	r.updatedAt = time.Now()
}
