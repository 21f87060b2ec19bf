package scratchpad

import "testing"

func TestTopLevelModule(t *testing.T) {
	cases := map[string]string{
		"internal/store/store.go": "internal",
		"main.go":                 "main.go",
		"":                        "",
	}
	for in, want := range cases {
		if got := topLevelModule(in); got != want {
			t.Errorf("topLevelModule(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestErrorSignatureStableAndLineScoped(t *testing.T) {
	a := errorSignature("panic: nil pointer dereference\nat foo.go:10")
	b := errorSignature("panic: nil pointer dereference\nat bar.go:99")
	if a != b {
		t.Errorf("errorSignature should only hash the first line, got %q != %q", a, b)
	}

	c := errorSignature("a different error entirely")
	if a == c {
		t.Errorf("errorSignature collided for distinct first lines")
	}
}

func TestErrorPatternIDDeterministic(t *testing.T) {
	id1 := errorPatternID("proj1", "sig1")
	id2 := errorPatternID("proj1", "sig1")
	if id1 != id2 {
		t.Errorf("errorPatternID not deterministic: %q != %q", id1, id2)
	}
	if id3 := errorPatternID("proj2", "sig1"); id3 == id1 {
		t.Errorf("errorPatternID collided across projects")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("truncate should be a no-op under the limit, got %q", got)
	}
	if got := truncate("hello world", 5); got != "hello" {
		t.Errorf("truncate(11, 5) = %q, want %q", got, "hello")
	}
}
