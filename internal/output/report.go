package output

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ivoronin/sparkql/internal/filter"
)

// jsonTimeFormat is the ISO 8601 UTC timestamp format for JSON output.
const jsonTimeFormat = "2006-01-02T15:04:05Z"

// Status values summarizing a parse result.
const (
	StatusOK   = "OK"
	StatusWarn = "WARN"
	StatusFail = "FAIL"
)

// Status returns FAIL for fatal errors, WARN for recoverable ones and OK otherwise.
func Status(r *filter.Result) string {
	switch {
	case r.HasFatalErrors():
		return StatusFail
	case r.HasErrors():
		return StatusWarn
	default:
		return StatusOK
	}
}

// Report implements Formatter for a single parsed filter.
type Report struct {
	Filter      string
	Grammar     string
	Timestamp   time.Time
	ToolVersion string
	Result      *filter.Result
}

// FormatText renders the clause table followed by an error table, if any.
func (r *Report) FormatText() string {
	var sections []string

	if len(r.Result.Clauses) > 0 {
		tw := NewTableWriter()
		tw.Header("#", "LEVEL", "GROUP", "CONJ", "FIELD", "OP", "VALUE", "TYPE")
		for i, c := range r.Result.Clauses {
			conj := string(c.Conjunction)
			if conj == "" {
				conj = "-"
			}
			tw.Row(strconv.Itoa(i+1), strconv.Itoa(c.Level), strconv.Itoa(c.BlockGroup),
				conj, c.Field, string(c.Operator), clauseValue(c), string(c.Type))
		}
		sections = append(sections, tw.String())
	}

	if r.Result.HasErrors() {
		sections = append(sections, errorTable(r.Result.Errors))
	}

	return strings.Join(sections, "\n\n")
}

// FormatJSON renders the report as a JSON object.
func (r *Report) FormatJSON() ([]byte, error) {
	jr := jsonReport{
		Filter:      r.Filter,
		Grammar:     r.Grammar,
		Timestamp:   r.Timestamp.UTC().Format(jsonTimeFormat),
		ToolVersion: r.ToolVersion,
		Status:      Status(r.Result),
		Clauses:     r.Result.Clauses,
		Errors:      r.Result.Errors,
	}
	if jr.Clauses == nil {
		jr.Clauses = []filter.Clause{}
	}
	if jr.Errors == nil {
		jr.Errors = []*filter.Error{}
	}
	return json.MarshalIndent(jr, "", "  ")
}

type jsonReport struct {
	Filter      string          `json:"filter"`
	Grammar     string          `json:"grammar"`
	Timestamp   string          `json:"timestamp"`
	ToolVersion string          `json:"tool_version"`
	Status      string          `json:"status"`
	Clauses     []filter.Clause `json:"clauses"`
	Errors      []*filter.Error `json:"errors"`
}

func clauseValue(c filter.Clause) string {
	if c.IsMulti() {
		return strings.Join(c.Values, ",")
	}
	return c.Value
}

func errorTable(errs []*filter.Error) string {
	tw := NewTableWriter()
	tw.Header("COLUMN", "KIND", "FATAL", "MESSAGE")
	for _, e := range errs {
		col := "-"
		if e.Column > 0 {
			col = strconv.Itoa(e.Column)
		}
		fatal := "no"
		if e.Fatal() {
			fatal = "yes"
		}
		tw.Row(col, e.Kind.String(), fatal, e.Message)
	}
	return tw.String()
}

// CheckEntry is the outcome of checking one line of a filter file.
type CheckEntry struct {
	Line   int
	Filter string
	Result *filter.Result
}

// CheckList implements Formatter for batch filter checks.
type CheckList struct {
	Entries []CheckEntry
}

// Failed reports whether any entry has a fatal error, or any error at all when strict.
func (l *CheckList) Failed(strict bool) bool {
	for _, e := range l.Entries {
		if e.Result.HasFatalErrors() || (strict && e.Result.HasErrors()) {
			return true
		}
	}
	return false
}

// FormatText returns one row per checked line. Only the first error is shown.
func (l *CheckList) FormatText() string {
	if len(l.Entries) == 0 {
		return ""
	}

	tw := NewTableWriter()
	tw.Header("LINE", "STATUS", "CLAUSES", "ERROR")
	for _, e := range l.Entries {
		msg := "-"
		if errs := e.Result.Errors; len(errs) > 0 {
			msg = errs[0].Error()
			if len(errs) > 1 {
				msg += fmt.Sprintf(" (+%d more)", len(errs)-1)
			}
		}
		tw.Row(strconv.Itoa(e.Line), Status(e.Result), strconv.Itoa(len(e.Result.Clauses)), msg)
	}
	return tw.String()
}

// FormatJSON returns a JSON array with one object per checked line.
func (l *CheckList) FormatJSON() ([]byte, error) {
	out := make([]jsonCheck, len(l.Entries))
	for i, e := range l.Entries {
		out[i] = jsonCheck{
			Line:    e.Line,
			Filter:  e.Filter,
			Status:  Status(e.Result),
			Clauses: len(e.Result.Clauses),
			Errors:  e.Result.Errors,
		}
		if out[i].Errors == nil {
			out[i].Errors = []*filter.Error{}
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

type jsonCheck struct {
	Line    int             `json:"line"`
	Filter  string          `json:"filter"`
	Status  string          `json:"status"`
	Clauses int             `json:"clauses"`
	Errors  []*filter.Error `json:"errors"`
}
