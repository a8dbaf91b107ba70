package partition

import (
	"errors"
	"fmt"
	"testing"

	"github.com/leadsplit/backend/internal/types"
)

func makeRecords(n int) []types.ContactRecord {
	records := make([]types.ContactRecord, n)
	for i := range records {
		records[i] = types.ContactRecord{
			FirstName: fmt.Sprintf("contact-%d", i),
			Phone:     fmt.Sprintf("555%04d", i),
		}
	}
	return records
}

func TestSplitTenRecordsThreeAgents(t *testing.T) {
	records := makeRecords(10)
	agents := []string{"A", "B", "C"}

	got, err := Split(records, agents)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantShares := map[string]int{"A": 4, "B": 3, "C": 3}
	for id, want := range wantShares {
		if len(got[id]) != want {
			t.Errorf("agent %s: expected %d records, got %d", id, want, len(got[id]))
		}
	}

	// Contiguous blocks: A gets records 0-3, B gets 4-6, C gets 7-9.
	if got["A"][0] != records[0] || got["A"][3] != records[3] {
		t.Error("agent A did not receive the first contiguous block")
	}
	if got["B"][0] != records[4] || got["B"][2] != records[6] {
		t.Error("agent B did not receive the second contiguous block")
	}
	if got["C"][0] != records[7] || got["C"][2] != records[9] {
		t.Error("agent C did not receive the last contiguous block")
	}
}

func TestSplitEmptyRoster(t *testing.T) {
	_, err := Split(makeRecords(5), nil)
	if !errors.Is(err, ErrNoAgents) {
		t.Fatalf("expected ErrNoAgents, got %v", err)
	}
	_, err = Split(nil, []string{})
	if !errors.Is(err, ErrNoAgents) {
		t.Fatalf("expected ErrNoAgents for zero records too, got %v", err)
	}
}

func TestSplitEmptyInput(t *testing.T) {
	got, err := Split(nil, []string{"A", "B"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected both agents present, got %d entries", len(got))
	}
	for id, block := range got {
		if block == nil {
			t.Errorf("agent %s: expected empty non-nil block", id)
		}
		if len(block) != 0 {
			t.Errorf("agent %s: expected 0 records, got %d", id, len(block))
		}
	}
}

func TestSplitFewerRecordsThanAgents(t *testing.T) {
	records := makeRecords(2)
	got, err := Split(records, []string{"A", "B", "C", "D"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got["A"]) != 1 || len(got["B"]) != 1 {
		t.Error("first agents in roster order should take the remainder")
	}
	if len(got["C"]) != 0 || len(got["D"]) != 0 {
		t.Error("later agents should receive nothing")
	}
	if got["A"][0] != records[0] || got["B"][0] != records[1] {
		t.Error("records assigned out of input order")
	}
}

func TestSplitProperties(t *testing.T) {
	for n := 0; n <= 25; n++ {
		for k := 1; k <= 6; k++ {
			records := makeRecords(n)
			agents := make([]string, k)
			for i := range agents {
				agents[i] = fmt.Sprintf("agent-%d", i)
			}

			got, err := Split(records, agents)
			if err != nil {
				t.Fatalf("n=%d k=%d: unexpected error: %v", n, k, err)
			}

			total, minShare, maxShare := 0, n+1, -1
			for _, id := range agents {
				share := len(got[id])
				total += share
				if share < minShare {
					minShare = share
				}
				if share > maxShare {
					maxShare = share
				}
			}
			if total != n {
				t.Errorf("n=%d k=%d: shares sum to %d", n, k, total)
			}
			if maxShare-minShare > 1 {
				t.Errorf("n=%d k=%d: share spread %d exceeds 1", n, k, maxShare-minShare)
			}

			// First n%k agents get exactly one more than the rest.
			for i, id := range agents {
				want := n / k
				if i < n%k {
					want++
				}
				if len(got[id]) != want {
					t.Errorf("n=%d k=%d: agent %d expected %d records, got %d", n, k, i, want, len(got[id]))
				}
			}

			// Concatenation in roster order reproduces the input.
			var flat []types.ContactRecord
			for _, id := range agents {
				flat = append(flat, got[id]...)
			}
			for i := range records {
				if flat[i] != records[i] {
					t.Fatalf("n=%d k=%d: concatenated order diverges at %d", n, k, i)
				}
			}
		}
	}
}

func TestSplitDoesNotAliasInput(t *testing.T) {
	records := makeRecords(4)
	got, err := Split(records, []string{"A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got["A"][0].FirstName = "mutated"
	if records[0].FirstName == "mutated" {
		t.Error("partition blocks must be copies, not views of the input")
	}
}
