package memory

import (
	"testing"

	"github.com/agentmemory/memoryd/internal/model"
)

func TestOrEmptyStrings(t *testing.T) {
	if got := orEmptyStrings(nil); got == nil || len(got) != 0 {
		t.Errorf("orEmptyStrings(nil) = %#v, want non-nil empty slice", got)
	}
	in := []string{"a", "b"}
	if got := orEmptyStrings(in); len(got) != 2 {
		t.Errorf("orEmptyStrings(%v) = %v, want unchanged", in, got)
	}
}

func TestOrEmptyRelations(t *testing.T) {
	if got := orEmptyRelations(nil); got == nil || len(got) != 0 {
		t.Errorf("orEmptyRelations(nil) = %#v, want non-nil empty slice", got)
	}
	in := []model.Relation{{TargetMemoryID: "m1"}}
	if got := orEmptyRelations(in); len(got) != 1 {
		t.Errorf("orEmptyRelations(%v) = %v, want unchanged", in, got)
	}
}

func TestNullIfEmpty(t *testing.T) {
	if got := nullIfEmpty(""); got != nil {
		t.Errorf("nullIfEmpty(\"\") = %v, want nil", got)
	}
	if got := nullIfEmpty("x"); got != "x" {
		t.Errorf("nullIfEmpty(\"x\") = %v, want \"x\"", got)
	}
}

func TestZeroToNil(t *testing.T) {
	if got := zeroToNil(0); got != nil {
		t.Errorf("zeroToNil(0) = %v, want nil", got)
	}
	if got := zeroToNil(5); got != 5 {
		t.Errorf("zeroToNil(5) = %v, want 5", got)
	}
}

func TestJoinTags(t *testing.T) {
	got := joinTags([]string{"a", "b"})
	want := `["a","b"]`
	if got != want {
		t.Errorf("joinTags = %q, want %q", got, want)
	}
	if got := joinTags(nil); got != "null" {
		t.Errorf("joinTags(nil) = %q, want %q", got, "null")
	}
}
