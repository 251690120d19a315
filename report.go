package linkschema

import (
	"fmt"
	"sort"
	"strings"
)

// Severity classifies an Issue (spec §4.14).
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "Info"
	case Warning:
		return "Warning"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// Issue is one reported problem (spec §4.14). Code uses the dotted
// namespace taxonomy of spec §6.4 (schema.*, data.*, rule.*, unique.*,
// expression.*, import.*, io.*).
type Issue struct {
	Severity      Severity
	Message       string
	Path          string
	ValidatorName string
	Code          string
	Context       map[string]any
}

// Stats summarizes one validation run (spec §4.14).
type Stats struct {
	TotalValidated    int
	ErrorCount        int
	WarningCount      int
	InfoCount         int
	DurationMS        float64
	ValidatorsExecuted int
	CacheHitRate       float64
}

// Report is the structured outcome of a validation call (spec §4.14).
type Report struct {
	Valid       bool
	Issues      []Issue
	Stats       Stats
	SchemaID    string
	TargetClass string
}

// NewReport returns an empty, valid Report for the given schema/class.
func NewReport(schemaID, targetClass string) *Report {
	return &Report{Valid: true, SchemaID: schemaID, TargetClass: targetClass}
}

// AddIssue appends issue and recomputes Valid/Stats counters. valid is
// false iff any Error-severity issue exists (spec §4.14).
func (r *Report) AddIssue(issue Issue) {
	r.Issues = append(r.Issues, issue)
	switch issue.Severity {
	case Error:
		r.Stats.ErrorCount++
		r.Valid = false
	case Warning:
		r.Stats.WarningCount++
	case Info:
		r.Stats.InfoCount++
	}
}

// SortIssues orders issues by severity descending (Error, Warning, Info)
// then path ascending (spec §4.14).
func (r *Report) SortIssues() {
	sort.SliceStable(r.Issues, func(i, j int) bool {
		a, b := r.Issues[i], r.Issues[j]
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		return a.Path < b.Path
	})
}

// Summary renders a single human-readable line (spec §4.14).
func (r *Report) Summary() string {
	status := "valid"
	if !r.Valid {
		status = "invalid"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d error(s), %d warning(s), %d info(s) across %d instance(s)",
		status, r.Stats.ErrorCount, r.Stats.WarningCount, r.Stats.InfoCount, r.Stats.TotalValidated)
	return b.String()
}
