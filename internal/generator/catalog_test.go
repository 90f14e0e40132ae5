package generator

import "testing"

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	want := []string{"gallop", "jacks", "stairs", "stream", "trill"}

	list := c.List()
	if len(list) != len(want) {
		t.Fatalf("List returned %d patterns, expected %d", len(list), len(want))
	}
	for i, p := range list {
		if p.Name != want[i] {
			t.Errorf("List[%d] = %q, expected %q", i, p.Name, want[i])
		}
		if p.Duration() <= 0 {
			t.Errorf("pattern %q has no duration", p.Name)
		}
	}
}

func TestCatalogRegisterRejectsDuplicates(t *testing.T) {
	c := DefaultCatalog()
	err := c.Register(Pattern{Name: "stream", BaseDifficulty: 0.1, Steps: steps(200*ms, 0)})
	if err == nil {
		t.Fatal("expected an error for a duplicate name")
	}
	if c.Len() != 5 {
		t.Errorf("Len = %d after failed register, expected 5", c.Len())
	}
}

func TestCatalogRegisterValidates(t *testing.T) {
	tests := []struct {
		name string
		p    Pattern
	}{
		{"no name", Pattern{Steps: steps(100*ms, 0)}},
		{"no steps", Pattern{Name: "empty"}},
		{"negative lane", Pattern{Name: "neg", Steps: steps(100*ms, -1)}},
		{"zero interval", Pattern{Name: "zero", Steps: steps(0, 1)}},
		{"difficulty out of range", Pattern{Name: "hard", BaseDifficulty: 1.5, Steps: steps(100*ms, 1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := NewCatalog().Register(tt.p); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestCatalogRegisterCopiesSteps(t *testing.T) {
	c := NewCatalog()
	s := steps(100*ms, 0, 1)
	if err := c.Register(Pattern{Name: "mine", Steps: s}); err != nil {
		t.Fatal(err)
	}
	s[0].Lane = 3

	p, err := c.Get("mine")
	if err != nil {
		t.Fatal(err)
	}
	if p.Steps[0].Lane != 0 {
		t.Error("registered pattern changed through the caller's slice")
	}
	if _, err := c.Get("missing"); err == nil {
		t.Error("expected an error for an unknown pattern")
	}
	if !c.Exists("mine") || c.Exists("missing") {
		t.Error("Exists disagrees with Register")
	}
}
