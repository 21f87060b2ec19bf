// Package scratchpad implements the in-memory rolling signal store and
// the live session Observer that feeds it: tool calls flow in, the
// Observer turns them into AcuteCandidate signals, and the Scratchpad
// holds them until the decider or a promotion consumes them.
package scratchpad

import (
	"sync"

	"github.com/agentmemory/memoryd/internal/model"
)

// maxCandidates bounds the rolling buffer so a long session cannot grow
// the scratchpad unboundedly; the oldest entries are evicted first.
const maxCandidates = 500

// Scratchpad is a per-session rolling buffer of AcuteCandidate signals.
// It is the only mutable state the StepInjectionDecider consults besides
// the Store, and it never persists: a restart loses unsynthesized
// signals, which is acceptable per spec (promoted candidates are
// durable memories; the rest are working state).
type Scratchpad struct {
	mu         sync.Mutex
	candidates []model.AcuteCandidate
}

// New creates an empty Scratchpad.
func New() *Scratchpad {
	return &Scratchpad{}
}

// Add records a new acute candidate, evicting the oldest entry if the
// buffer is at capacity.
func (s *Scratchpad) Add(c model.AcuteCandidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates = append(s.candidates, c)
	if len(s.candidates) > maxCandidates {
		s.candidates = s.candidates[len(s.candidates)-maxCandidates:]
	}
}

// GetNewSince implements scratchpad-reflection trigger:
// every candidate captured at a step strictly after the given step
// number, oldest first.
func (s *Scratchpad) GetNewSince(stepNumber int) []model.AcuteCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.AcuteCandidate
	for _, c := range s.candidates {
		if c.StepNumber > stepNumber {
			out = append(out, c)
		}
	}
	return out
}
