package model

import "fmt"

// Severity ranks an issue for human review.
type Severity string

const (
	SeverityHint    Severity = "hint"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Issue records a non-fatal problem surfaced while resolving a dependency
// node. Issues are data, not errors: they flow into the persisted result
// attached to the node they concern and never abort a build.
type Issue struct {
	Source   string   `yaml:"source" json:"source"`
	Message  string   `yaml:"message" json:"message"`
	Severity Severity `yaml:"severity" json:"severity"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s [%s]: %s", i.Source, i.Severity, i.Message)
}

// IssueCollector accumulates issues during package resolution. Adapters
// report failures from CreatePackage through a collector instead of
// returning errors, keeping sibling resolution alive.
type IssueCollector struct {
	issues []Issue
}

// Add appends one issue.
func (c *IssueCollector) Add(issue Issue) {
	c.issues = append(c.issues, issue)
}

// Errorf records an error-severity issue with a formatted message.
func (c *IssueCollector) Errorf(source, format string, args ...interface{}) {
	c.Add(Issue{Source: source, Message: fmt.Sprintf(format, args...), Severity: SeverityError})
}

// Warnf records a warning-severity issue with a formatted message.
func (c *IssueCollector) Warnf(source, format string, args ...interface{}) {
	c.Add(Issue{Source: source, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning})
}

// Issues returns the collected issues in insertion order.
func (c *IssueCollector) Issues() []Issue {
	return c.issues
}
