package scratchpad

import (
	"testing"

	"github.com/agentmemory/memoryd/internal/model"
)

func TestScratchpadGetNewSince(t *testing.T) {
	pad := New()
	pad.Add(model.AcuteCandidate{SignalType: model.SignalSelfCorrection, StepNumber: 1})
	pad.Add(model.AcuteCandidate{SignalType: model.SignalRepeatedError, StepNumber: 3})
	pad.Add(model.AcuteCandidate{SignalType: model.SignalRepeatedError, StepNumber: 5})

	got := pad.GetNewSince(2)
	if len(got) != 2 {
		t.Fatalf("GetNewSince(2) = %d candidates, want 2", len(got))
	}
	if got[0].StepNumber != 3 || got[1].StepNumber != 5 {
		t.Fatalf("GetNewSince(2) = %+v, want step numbers 3 then 5", got)
	}

	if got := pad.GetNewSince(5); len(got) != 0 {
		t.Fatalf("GetNewSince(5) = %d candidates, want 0", len(got))
	}
}

func TestScratchpadAddEvictsOldest(t *testing.T) {
	pad := New()
	for i := 0; i < maxCandidates+10; i++ {
		pad.Add(model.AcuteCandidate{StepNumber: i})
	}

	all := pad.GetNewSince(-1)
	if len(all) != maxCandidates {
		t.Fatalf("buffer holds %d candidates, want capped at %d", len(all), maxCandidates)
	}
	if all[0].StepNumber != 10 {
		t.Fatalf("oldest surviving candidate has StepNumber %d, want 10 (first 10 evicted)", all[0].StepNumber)
	}
}
