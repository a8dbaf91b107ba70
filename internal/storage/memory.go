package storage

import (
	"strings"
	"sync"

	"github.com/leadsplit/backend/internal/types"
)

// MemoryStore is an in-process Store used when DynamoDB is disabled and as
// the test double. Slices keep insertion order, which doubles as roster
// creation order and assignment write order.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]types.User // keyed by lowercased email
	agents      map[string][]types.Agent
	assignments map[string][]types.Assignment
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]types.User),
		agents:      make(map[string][]types.Agent),
		assignments: make(map[string][]types.Assignment),
	}
}

func (s *MemoryStore) CreateUser(user types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, exists := s.users[key]; exists {
		return ErrDuplicateEmail
	}
	s.users[key] = user
	return nil
}

func (s *MemoryStore) GetUserByEmail(email string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) GetUser(id string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.ID == id {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateAgent(agent types.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.agents[agent.OwnerID] {
		if strings.EqualFold(existing.Email, agent.Email) {
			return ErrDuplicateEmail
		}
	}
	s.agents[agent.OwnerID] = append(s.agents[agent.OwnerID], agent)
	return nil
}

func (s *MemoryStore) GetAgent(ownerID, agentID string) (*types.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, agent := range s.agents[ownerID] {
		if agent.ID == agentID {
			a := agent
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListAgents(ownerID string) ([]types.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Agent, len(s.agents[ownerID]))
	copy(out, s.agents[ownerID])
	return out, nil
}

func (s *MemoryStore) UpdateAgent(agent types.Agent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster := s.agents[agent.OwnerID]
	for i, existing := range roster {
		if existing.ID == agent.ID {
			for j, other := range roster {
				if j != i && strings.EqualFold(other.Email, agent.Email) {
					return ErrDuplicateEmail
				}
			}
			roster[i] = agent
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) DeleteAgent(ownerID, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster := s.agents[ownerID]
	for i, existing := range roster {
		if existing.ID == agentID {
			s.agents[ownerID] = append(roster[:i:i], roster[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) SaveAssignment(assignment types.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.assignments[assignment.OwnerID] = append(s.assignments[assignment.OwnerID], assignment)
	return nil
}

func (s *MemoryStore) ListAssignments(ownerID string) ([]types.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Assignment, len(s.assignments[ownerID]))
	copy(out, s.assignments[ownerID])
	return out, nil
}

func (s *MemoryStore) ListAssignmentsByAgent(ownerID, agentID string) ([]types.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.Assignment
	for _, assignment := range s.assignments[ownerID] {
		if assignment.AgentID == agentID {
			out = append(out, assignment)
		}
	}
	return out, nil
}
