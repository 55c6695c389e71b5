package rules

import (
	"fmt"
	"strings"
)

// ConfigErrorKind classifies why a rule set config was rejected.
type ConfigErrorKind string

const (
	// ErrKindMalformedJSON means the input was not parseable JSON at all.
	ErrKindMalformedJSON ConfigErrorKind = "malformed_json"
	// ErrKindSchemaViolation means a field had the wrong type, was missing,
	// fell outside its numeric range, or failed its key pattern.
	ErrKindSchemaViolation ConfigErrorKind = "schema_violation"
	// ErrKindSemanticViolation means a cross-field invariant failed:
	// duplicate slot or stat keys, min > max, or a dangling rule reference.
	ErrKindSemanticViolation ConfigErrorKind = "semantic_violation"
)

// ConfigIssue is one violation found during validation, located by a
// JSON-path-like string such as "scoring.stats[2].max".
type ConfigIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ConfigError rejects a config wholesale. All issues of the reported kind
// found in a single validation pass are collected so a config author can fix
// them together instead of one round trip per mistake.
type ConfigError struct {
	Kind   ConfigErrorKind `json:"kind"`
	Issues []ConfigIssue   `json:"issues"`
}

func (e *ConfigError) Error() string {
	if len(e.Issues) == 0 {
		return string(e.Kind)
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		if issue.Path == "" {
			parts[i] = issue.Message
			continue
		}
		parts[i] = fmt.Sprintf("%s: %s", issue.Path, issue.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(parts, "; "))
}

func newConfigError(kind ConfigErrorKind, issues []ConfigIssue) *ConfigError {
	return &ConfigError{Kind: kind, Issues: issues}
}
