// Package distributor runs the upload pipeline: decode, normalize,
// partition, persist, and builds the grouped distribution views.
package distributor

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/leadsplit/backend/internal/decode"
	"github.com/leadsplit/backend/internal/metrics"
	"github.com/leadsplit/backend/internal/normalize"
	"github.com/leadsplit/backend/internal/partition"
	"github.com/leadsplit/backend/internal/storage"
	"github.com/leadsplit/backend/internal/types"
	"github.com/rs/zerolog"
)

// Service wires the pipeline stages over a Store.
type Service struct {
	store  storage.Store
	policy normalize.Policy
	logger zerolog.Logger
}

// NewService creates a Service with the given validation policy.
func NewService(store storage.Store, policy normalize.Policy, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		policy: policy,
		logger: logger.With().Str("component", "distributor").Logger(),
	}
}

// Result reports one completed ingestion batch. Summaries cover this batch
// only; the lifetime view is Summarize.
type Result struct {
	BatchID   string                      `json:"batchId"`
	Persisted int                         `json:"persisted"`
	Skipped   []normalize.RowDiagnostic   `json:"skipped,omitempty"`
	Summaries []types.DistributionSummary `json:"summaries"`
}

// Distribute ingests one uploaded file for the owner. The roster snapshot
// is taken once at the start; a roster change mid-upload does not affect a
// running batch. On a storage failure partway through, the already-written
// assignments stay persisted and the returned Result reports how far the
// batch got alongside the error.
func (s *Service) Distribute(ownerID string, r io.Reader, format decode.Format) (*Result, error) {
	m := metrics.Get()

	agents, err := s.store.ListAgents(ownerID)
	if err != nil {
		m.RecordUploadFailed()
		return nil, err
	}
	if len(agents) == 0 {
		m.RecordUploadFailed()
		return nil, partition.ErrNoAgents
	}

	reader, err := decode.Open(r, format)
	if err != nil {
		m.RecordUploadFailed()
		return nil, err
	}
	defer reader.Close()

	records, diags, err := normalize.Run(reader, s.policy)
	if err != nil {
		m.RecordUploadFailed()
		return nil, err
	}
	m.RecordRowsDecoded(len(records) + len(diags))
	m.RecordRowsSkipped(len(diags))

	agentIDs := make([]string, len(agents))
	for i, agent := range agents {
		agentIDs[i] = agent.ID
	}
	buckets, err := partition.Split(records, agentIDs)
	if err != nil {
		m.RecordUploadFailed()
		return nil, err
	}

	batchID := uuid.New().String()
	now := time.Now().UTC()
	result := &Result{BatchID: batchID, Skipped: diags, Summaries: []types.DistributionSummary{}}

	position := 0
	for _, agent := range agents {
		items := buckets[agent.ID]
		for _, record := range items {
			assignment := types.Assignment{
				ID:        uuid.New().String(),
				OwnerID:   ownerID,
				AgentID:   agent.ID,
				BatchID:   batchID,
				Position:  position,
				SortKey:   storage.AssignmentSortKey(now, batchID, position),
				Record:    record,
				CreatedAt: now,
			}
			if err := s.store.SaveAssignment(assignment); err != nil {
				// Per-record writes, no rollback: report the partial batch.
				m.RecordUploadFailed()
				s.logger.Error().Err(err).
					Str("owner_id", ownerID).
					Str("batch_id", batchID).
					Int("persisted", result.Persisted).
					Int("total", len(records)).
					Msg("batch partially persisted")
				return result, fmt.Errorf("batch %s partially persisted (%d of %d records): %w",
					batchID, result.Persisted, len(records), err)
			}
			result.Persisted++
			position++
		}

		if len(items) == 0 {
			continue
		}
		result.Summaries = append(result.Summaries, types.DistributionSummary{
			AgentID:    agent.ID,
			AgentName:  agent.Name,
			AgentEmail: agent.Email,
			Count:      len(items),
			Items:      items,
		})
	}

	m.RecordUpload(result.Persisted)
	s.logger.Info().
		Str("owner_id", ownerID).
		Str("batch_id", batchID).
		Int("agents", len(agents)).
		Int("persisted", result.Persisted).
		Int("skipped", len(diags)).
		Msg("batch distributed")

	return result, nil
}

// ListAll returns every persisted assignment for the owner, in insertion
// order, joined with the assigned agent's identity.
func (s *Service) ListAll(ownerID string) ([]types.AssignmentView, error) {
	assignments, err := s.store.ListAssignments(ownerID)
	if err != nil {
		return nil, err
	}
	return s.join(ownerID, assignments)
}

// ListByAgent is ListAll filtered to one agent.
func (s *Service) ListByAgent(ownerID, agentID string) ([]types.AssignmentView, error) {
	assignments, err := s.store.ListAssignmentsByAgent(ownerID, agentID)
	if err != nil {
		return nil, err
	}
	return s.join(ownerID, assignments)
}

func (s *Service) join(ownerID string, assignments []types.Assignment) ([]types.AssignmentView, error) {
	agents, err := s.store.ListAgents(ownerID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]types.Agent, len(agents))
	for _, agent := range agents {
		byID[agent.ID] = agent
	}

	views := make([]types.AssignmentView, 0, len(assignments))
	for _, assignment := range assignments {
		view := types.AssignmentView{Assignment: assignment}
		if agent, ok := byID[assignment.AgentID]; ok {
			view.AgentName = agent.Name
			view.AgentEmail = agent.Email
		}
		views = append(views, view)
	}
	return views, nil
}

// Summarize groups all persisted assignments for the owner by agent, one
// entry per agent with at least one assignment. Entries follow roster
// order, so repeated calls over unchanged data return the same sequence.
func (s *Service) Summarize(ownerID string) ([]types.DistributionSummary, error) {
	agents, err := s.store.ListAgents(ownerID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.store.ListAssignments(ownerID)
	if err != nil {
		return nil, err
	}

	itemsByAgent := make(map[string][]types.ContactRecord)
	for _, assignment := range assignments {
		itemsByAgent[assignment.AgentID] = append(itemsByAgent[assignment.AgentID], assignment.Record)
	}

	summaries := make([]types.DistributionSummary, 0, len(agents))
	for _, agent := range agents {
		items := itemsByAgent[agent.ID]
		if len(items) == 0 {
			continue
		}
		summaries = append(summaries, types.DistributionSummary{
			AgentID:    agent.ID,
			AgentName:  agent.Name,
			AgentEmail: agent.Email,
			Count:      len(items),
			Items:      items,
		})
	}
	return summaries, nil
}
