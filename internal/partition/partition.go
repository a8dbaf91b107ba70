// Package partition computes the balanced split of a record batch across
// an agent roster.
package partition

import (
	"errors"

	"github.com/leadsplit/backend/internal/types"
)

// ErrNoAgents means the roster was empty at partition time.
var ErrNoAgents = errors.New("no agents available for distribution")

// Split assigns records to agents in contiguous blocks. With n records and
// k agents, the agent at roster index i receives n/k records, plus one
// extra when i < n%k. Shares differ by at most one, concatenating the
// blocks in roster order reproduces the input order, and the result is
// fully determined by the two input orders.
//
// Every agent appears in the result, zero-share agents with an empty block.
// The roster emptiness check runs before any record is touched.
func Split(records []types.ContactRecord, agentIDs []string) (map[string][]types.ContactRecord, error) {
	if len(agentIDs) == 0 {
		return nil, ErrNoAgents
	}

	base := len(records) / len(agentIDs)
	remainder := len(records) % len(agentIDs)

	out := make(map[string][]types.ContactRecord, len(agentIDs))
	next := 0
	for i, id := range agentIDs {
		share := base
		if i < remainder {
			share++
		}
		block := make([]types.ContactRecord, share)
		copy(block, records[next:next+share])
		out[id] = block
		next += share
	}
	return out, nil
}
