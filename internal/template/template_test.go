package template

import "testing"

func TestExpandSimple(t *testing.T) {
	vars := Vars{"name": "world"}
	got, ok := Expand("hello {{name}}", vars)
	if !ok || got != "hello world" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestExpandFallback(t *testing.T) {
	vars := Vars{"b": "second"}
	got, ok := Expand("{{a ? b ? c}}", vars)
	if !ok || got != "second" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestExpandEmptyBodyYieldsEmptyString(t *testing.T) {
	got, ok := Expand("x{{}}y", Vars{})
	if !ok || got != "xy" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestExpandUnresolvedFails(t *testing.T) {
	_, ok := Expand("{{missing}}", Vars{})
	if ok {
		t.Fatal("expected unresolved expression to fail")
	}
}

func TestExpandIdempotentWithoutPlaceholders(t *testing.T) {
	got, ok := Expand("no placeholders here", Vars{"a": "b"})
	if !ok || got != "no placeholders here" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestExpandWhitespaceTrimmedAroundCandidates(t *testing.T) {
	vars := Vars{"b": "value"}
	got, ok := Expand("{{ a  ?  b  ? c }}", vars)
	if !ok || got != "value" {
		t.Fatalf("got %q ok=%v", got, ok)
	}
}

func TestReplaceAllLiteralFixedPoint(t *testing.T) {
	got := ReplaceAllLiteral("{{a}}", map[string]string{"{{a}}": "x{{b}}", "{{b}}": "y"})
	if got != "xy" {
		t.Fatalf("got %q", got)
	}
}
