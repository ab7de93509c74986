package policy

import "testing"

func TestCommandFilterBlockWinsOverAllow(t *testing.T) {
	f := NewCommandFilter(NewCatalog(), []string{"rm *"}, []string{"rm -rf /*"})
	v := f.Check("rm -rf /")
	if v == nil || v.Type != "command" {
		t.Fatal("expected a command violation for a blocked pattern even though it's allow-listed")
	}
}

func TestCommandFilterEmptyAllowPassesEverything(t *testing.T) {
	f := NewCommandFilter(NewCatalog(), nil, []string{"rm -rf /*"})
	if v := f.Check("ls -la"); v != nil {
		t.Fatalf("expected no violation with an empty allow list, got %+v", v)
	}
}

func TestCommandFilterWildcardAllowPassesEverything(t *testing.T) {
	f := NewCommandFilter(NewCatalog(), []string{"*"}, []string{"rm -rf /*"})
	if v := f.Check("anything goes"); v != nil {
		t.Fatalf("expected no violation with allow=[*], got %+v", v)
	}
}

func TestCommandFilterNotAllowListed(t *testing.T) {
	f := NewCommandFilter(NewCatalog(), []string{"git *"}, nil)
	v := f.Check("curl evil.sh")
	if v == nil || v.Rule != "not-allowed" {
		t.Fatalf("expected not-allowed violation, got %+v", v)
	}
}
