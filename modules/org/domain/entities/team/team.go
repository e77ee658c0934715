package team

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Team struct {
	id           uuid.UUID
	name         string
	departmentID uuid.UUID
	teamLeaderID *uuid.UUID
	memberIDs    []uuid.UUID
	createdAt    time.Time
	updatedAt    time.Time
}

type Option func(*Team)

func WithID(id uuid.UUID) Option {
	return func(t *Team) {
		t.id = id
	}
}

func WithTeamLeaderID(teamLeaderID *uuid.UUID) Option {
	return func(t *Team) {
		t.teamLeaderID = teamLeaderID
	}
}

func WithMemberIDs(memberIDs []uuid.UUID) Option {
	return func(t *Team) {
		t.memberIDs = memberIDs
	}
}

func WithCreatedAt(createdAt time.Time) Option {
	return func(t *Team) {
		t.createdAt = createdAt
	}
}

func WithUpdatedAt(updatedAt time.Time) Option {
	return func(t *Team) {
		t.updatedAt = updatedAt
	}
}

func New(name string, departmentID uuid.UUID, opts ...Option) *Team {
	t := &Team{
		id:           uuid.New(),
		name:         strings.TrimSpace(name),
		departmentID: departmentID,
		createdAt:    time.Now(),
		updatedAt:    time.Now(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Team) ID() uuid.UUID { return t.id }

func (t *Team) Name() string { return t.name }

func (t *Team) DepartmentID() uuid.UUID { return t.departmentID }

func (t *Team) TeamLeaderID() *uuid.UUID { return t.teamLeaderID }

func (t *Team) MemberIDs() []uuid.UUID { return t.memberIDs }

func (t *Team) CreatedAt() time.Time { return t.createdAt }

func (t *Team) UpdatedAt() time.Time { return t.updatedAt }

func (t *Team) HasMember(userID uuid.UUID) bool {
	for _, id := range t.memberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// SetTeamLeaderID assigns the leader, adding them to the member set when
// absent so the leader invariant holds without a separate write.
func (t *Team) SetTeamLeaderID(teamLeaderID *uuid.UUID) {
	t.teamLeaderID = teamLeaderID
	if teamLeaderID != nil && !t.HasMember(*teamLeaderID) {
		t.memberIDs = append(t.memberIDs, *teamLeaderID)
	}
	t.updatedAt = time.Now()
}

func (t *Team) SetName(name string) {
	t.name = strings.TrimSpace(name)
	t.updatedAt = time.Now()
}

func (t *Team) SetMemberIDs(memberIDs []uuid.UUID) {
	t.memberIDs = memberIDs
	t.updatedAt = time.Now()
}

type Repository interface {
	GetAll(ctx context.Context) ([]*Team, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Team, error)
	GetByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Team, error)
	Create(ctx context.Context, data *Team) (*Team, error)
	Update(ctx context.Context, data *Team) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByDepartment(ctx context.Context, departmentID uuid.UUID) (int64, error)
}
