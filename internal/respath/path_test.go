package respath

import "testing"

func TestNormalizeIdempotent(t *testing.T) {
	cases := []string{
		`Base/Sub\x.txt`,
		`base\\sub//x.txt`,
		`FOO\BAR\baz.bin`,
		`\leading\sep\`,
	}
	for _, c := range cases {
		p1, err := New(c)
		if err != nil {
			t.Fatalf("New(%q): %v", c, err)
		}
		p2, err := New(p1.String())
		if err != nil {
			t.Fatalf("New(%q) (second pass): %v", p1.String(), err)
		}
		if p1 != p2 {
			t.Errorf("normalization not idempotent: New(%q) = %q, New(that) = %q", c, p1.String(), p2.String())
		}
	}
}

func TestNormalizeRejectsInvalidBytes(t *testing.T) {
	if _, err := New("c:\\windows"); err == nil {
		t.Fatalf("expected error for colon in path")
	}
	if _, err := New("caf\xe9.txt"); err == nil {
		t.Fatalf("expected error for non-ASCII byte in path")
	}
}

func TestNormalizeCaseFoldAndSeparators(t *testing.T) {
	p, err := New(`Base/Sub\X.TXT`)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, want := p.String(), `base\sub\x.txt`; got != want {
		t.Errorf("normalized = %q, want %q", got, want)
	}
}

func TestNormalizeCollapsesRepeatedSeparators(t *testing.T) {
	p, err := New(`a//b\\c`)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, want := p.String(), `a\b\c`; got != want {
		t.Errorf("normalized = %q, want %q", got, want)
	}
}

func TestNormalizeStripsTrailingSeparator(t *testing.T) {
	p, err := New(`a\b\`)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, want := p.String(), `a\b`; got != want {
		t.Errorf("normalized = %q, want %q", got, want)
	}
}

// TestPathIDComposition covers the hash-agreement testable property:
// path_id(a/b) == fnv1a64_continue(fnv1a64_continue(path_id(a), "\\"), b).
func TestPathIDComposition(t *testing.T) {
	a := MustNew("base")
	b := MustNew("sub")
	joined := a.Join(b)

	want := JoinIDOf(a.ID(), b.String())
	if got := joined.ID(); got != want {
		t.Errorf("joined.ID() = %#x, want %#x", got, want)
	}
}

// TestScenarioS2 is spec scenario S2:
// path_id(path("Base/Sub\x.txt")) == path_id(path("base") / path("sub") / path("x.txt"))
func TestScenarioS2(t *testing.T) {
	whole, err := New(`Base/Sub\x.txt`)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	composed := MustNew("base").Join(MustNew("sub")).Join(MustNew("x.txt"))
	if whole.ID() != composed.ID() {
		t.Errorf("path_id mismatch: whole=%#x composed=%#x (whole=%q composed=%q)",
			whole.ID(), composed.ID(), whole.String(), composed.String())
	}
}

func TestRootPathID(t *testing.T) {
	if Root.ID() != 0xcbf29ce484222325 {
		t.Errorf("Root.ID() = %#x, want FNV-1a64 offset basis 0xcbf29ce484222325", Root.ID())
	}
}

func TestBaseAndDir(t *testing.T) {
	p := MustNew(`a\b\c.txt`)
	if got, want := p.Base(), "c.txt"; got != want {
		t.Errorf("Base() = %q, want %q", got, want)
	}
	if got, want := p.Dir().String(), `a\b`; got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
}

func TestComponents(t *testing.T) {
	p := MustNew(`a\b\c`)
	got := p.Components()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Components() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Components()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
