package aptcore

import "testing"

func TestParseDependencyField(t *testing.T) {
	clauses, err := ParseDependencyField("a, b (>= 1), c | d (= 2)", Depends)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clauses) != 3 {
		t.Fatalf("got %d clauses, want 3", len(clauses))
	}
	if len(clauses[0]) != 1 || clauses[0][0].Name != "a" {
		t.Errorf("clause 0 = %+v", clauses[0])
	}
	if len(clauses[1]) != 1 || clauses[1][0].Name != "b" || clauses[1][0].Constraint.Op != OpGreaterEqual {
		t.Errorf("clause 1 = %+v", clauses[1])
	}
	if len(clauses[2]) != 2 {
		t.Fatalf("clause 2 has %d atoms, want 2", len(clauses[2]))
	}
	if clauses[2][0].Name != "c" || clauses[2][0].Constraint.Op != OpAny {
		t.Errorf("clause 2 atom 0 = %+v", clauses[2][0])
	}
	if clauses[2][1].Name != "d" || clauses[2][1].Constraint.Op != OpEqual {
		t.Errorf("clause 2 atom 1 = %+v", clauses[2][1])
	}
	for _, c := range clauses {
		for _, a := range c {
			if a.Kind != Depends {
				t.Errorf("atom %+v has kind %v, want Depends", a, a.Kind)
			}
		}
	}
}

func TestParseDependencyFieldRoundTrip(t *testing.T) {
	clauses, err := ParseDependencyField("libfoo (>= 2:1.0-1)", PreDepends)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rendered := clauses[0].String()
	reparsed, err := ParseDependencyField(rendered, PreDepends)
	if err != nil {
		t.Fatalf("re-parsing rendered clause %q: %v", rendered, err)
	}
	if len(reparsed) != 1 || reparsed[0][0] != clauses[0][0] {
		t.Errorf("round trip mismatch: got %+v, want %+v", reparsed[0][0], clauses[0][0])
	}
}

func TestParseDependencyFieldAliasOperators(t *testing.T) {
	clauses, err := ParseDependencyField("a (< 2), b (> 1)", Depends)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clauses[0][0].Constraint.Op != OpLess {
		t.Errorf("alias < should map to OpLess, got %v", clauses[0][0].Constraint.Op)
	}
	if clauses[1][0].Constraint.Op != OpGreater {
		t.Errorf("alias > should map to OpGreater, got %v", clauses[1][0].Constraint.Op)
	}
}

func TestParseDependencyFieldMalformed(t *testing.T) {
	cases := []string{
		"a (>= )",
		"a (foo 1.0)",
		"a (>= 1.0",
	}
	for _, s := range cases {
		if _, err := ParseDependencyField(s, Depends); err == nil {
			t.Errorf("ParseDependencyField(%q): expected error, got nil", s)
		}
	}
}
