package model

import "testing"

func TestIssueCollector(t *testing.T) {
	var c IssueCollector
	if got := c.Issues(); len(got) != 0 {
		t.Fatalf("fresh collector: got %d issues", len(got))
	}

	c.Warnf("npm", "no license declared for %s", "left-pad@1.3.0")
	c.Errorf("npm", "registry returned %d", 503)
	c.Add(Issue{Source: "npm", Message: "noted", Severity: SeverityHint})

	issues := c.Issues()
	if len(issues) != 3 {
		t.Fatalf("got %d issues, want 3", len(issues))
	}
	if issues[0].Severity != SeverityWarning || issues[0].Message != "no license declared for left-pad@1.3.0" {
		t.Errorf("Warnf issue = %+v", issues[0])
	}
	if issues[1].Severity != SeverityError || issues[1].Message != "registry returned 503" {
		t.Errorf("Errorf issue = %+v", issues[1])
	}
	if issues[2].Severity != SeverityHint {
		t.Errorf("Add issue = %+v", issues[2])
	}
}

func TestIssueString(t *testing.T) {
	i := Issue{Source: "go", Message: "module not found", Severity: SeverityError}
	if got, want := i.String(), "go [error]: module not found"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseLinkage(t *testing.T) {
	for _, l := range []Linkage{LinkageStatic, LinkageDynamic, LinkageProjectStatic, LinkageProjectDynamic} {
		got, err := ParseLinkage(string(l))
		if err != nil {
			t.Fatalf("ParseLinkage(%q): %v", l, err)
		}
		if got != l {
			t.Errorf("ParseLinkage(%q) = %q", l, got)
		}
	}
	if _, err := ParseLinkage("shared"); err == nil {
		t.Error(`ParseLinkage("shared"): want error`)
	}
}

func TestLinkageIsProject(t *testing.T) {
	tests := []struct {
		l    Linkage
		want bool
	}{
		{LinkageStatic, false},
		{LinkageDynamic, false},
		{LinkageProjectStatic, true},
		{LinkageProjectDynamic, true},
	}
	for _, tt := range tests {
		if got := tt.l.IsProject(); got != tt.want {
			t.Errorf("%s.IsProject() = %v, want %v", tt.l, got, tt.want)
		}
	}
}
