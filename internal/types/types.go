package types

import "time"

// User is an operator account. Every agent and every persisted assignment
// is scoped to the user that created it.
type User struct {
	ID           string    `json:"id" dynamodbav:"UserID"`
	Name         string    `json:"name" dynamodbav:"Name"`
	Email        string    `json:"email" dynamodbav:"Email"`
	PasswordHash string    `json:"-" dynamodbav:"PasswordHash"`
	CreatedAt    time.Time `json:"createdAt" dynamodbav:"CreatedAt"`
}

// Agent is a roster member that receives distributed contact records.
// Roster order is creation order; SortKey makes that order explicit in
// storage instead of relying on map traversal.
type Agent struct {
	ID        string    `json:"id" dynamodbav:"AgentID"`
	OwnerID   string    `json:"-" dynamodbav:"OwnerID"`
	SortKey   string    `json:"-" dynamodbav:"SortKey"`
	Name      string    `json:"name" dynamodbav:"Name"`
	Email     string    `json:"email" dynamodbav:"Email"`
	Phone     string    `json:"phone,omitempty" dynamodbav:"Phone"`
	CreatedAt time.Time `json:"createdAt" dynamodbav:"CreatedAt"`
}

// ContactRecord is one normalized row of an uploaded list. Immutable once
// created; identity is positional within the batch until persisted.
type ContactRecord struct {
	FirstName string `json:"firstName" dynamodbav:"FirstName"`
	Phone     string `json:"phone" dynamodbav:"Phone"`
	Notes     string `json:"notes" dynamodbav:"Notes"`
}

// Assignment is one persisted (record, owner, agent) tuple. Written exactly
// once per normalized record during an ingestion, never mutated.
type Assignment struct {
	ID        string        `json:"id" dynamodbav:"AssignmentID"`
	OwnerID   string        `json:"-" dynamodbav:"OwnerID"`
	SortKey   string        `json:"-" dynamodbav:"SortKey"`
	AgentID   string        `json:"agentId" dynamodbav:"AgentID"`
	BatchID   string        `json:"batchId" dynamodbav:"BatchID"`
	Position  int           `json:"position" dynamodbav:"Position"`
	Record    ContactRecord `json:"record" dynamodbav:"Record"`
	CreatedAt time.Time     `json:"createdAt" dynamodbav:"CreatedAt"`
}

// AssignmentView is an assignment joined with the assigned agent's identity,
// the shape returned by the list endpoints.
type AssignmentView struct {
	Assignment
	AgentName  string `json:"agentName"`
	AgentEmail string `json:"agentEmail"`
}

// DistributionSummary is a derived per-agent view of persisted assignments.
// Only agents with at least one item appear.
type DistributionSummary struct {
	AgentID    string          `json:"agentId"`
	AgentName  string          `json:"agentName"`
	AgentEmail string          `json:"agentEmail"`
	Count      int             `json:"count"`
	Items      []ContactRecord `json:"items"`
}
