package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/leadsplit/backend/internal/types"
)

var (
	// ErrUnavailable means the persistence backend could not be reached.
	// Writes attempted before the failure stay persisted.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrNotFound means the requested entity does not exist for this owner.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail means an agent or user email uniqueness rule was violated.
	ErrDuplicateEmail = errors.New("email already exists")
)

// Store defines the persistence interface. All agent and assignment data
// is scoped by owner; no data is shared across owners.
type Store interface {
	CreateUser(user types.User) error
	GetUserByEmail(email string) (*types.User, error)
	GetUser(id string) (*types.User, error)

	// CreateAgent appends to the owner's roster. ListAgents returns the
	// roster in creation order, which is the order the partitioner
	// consumes.
	CreateAgent(agent types.Agent) error
	GetAgent(ownerID, agentID string) (*types.Agent, error)
	ListAgents(ownerID string) ([]types.Agent, error)
	UpdateAgent(agent types.Agent) error
	DeleteAgent(ownerID, agentID string) error

	// SaveAssignment persists one record-to-agent tuple. There is no batch
	// atomicity; a failure partway through an ingestion leaves earlier
	// writes in place.
	SaveAssignment(assignment types.Assignment) error
	ListAssignments(ownerID string) ([]types.Assignment, error)
	ListAssignmentsByAgent(ownerID, agentID string) ([]types.Assignment, error)
}

// Fixed-width timestamp so lexicographic sort-key order matches time order.
const sortKeyTimeFormat = "2006-01-02T15:04:05.000000000Z"

// AgentSortKey orders agents by creation time within an owner partition.
func AgentSortKey(createdAt time.Time, agentID string) string {
	return createdAt.UTC().Format(sortKeyTimeFormat) + "#" + agentID
}

// AssignmentSortKey orders assignments by write time, then batch, then
// position within the batch, which is insertion order.
func AssignmentSortKey(createdAt time.Time, batchID string, position int) string {
	return fmt.Sprintf("%s#%s#%06d", createdAt.UTC().Format(sortKeyTimeFormat), batchID, position)
}
