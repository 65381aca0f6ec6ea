package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BuildReport aggregates normalized rows into a ParseReport. rows must be in
// file order; the breakdown, issues and warnings follow that order.
func BuildReport(rows []NormalizedRow, dropped []DroppedRow) ParseReport {
	rep := ParseReport{
		TotalRows:       len(rows) + len(dropped),
		TotalHours:      decimal.Zero,
		FormatBreakdown: FormatBreakdown{},
		Warnings:        []string{},
		Issues:          []ValidationIssue{},
		DroppedRows:     append([]DroppedRow{}, dropped...),
	}

	aircraft := make(map[string]bool)
	breakdown := make(map[FormatTag]int)
	classes := newIssueClasses()

	for _, row := range rows {
		if _, seen := breakdown[row.Format]; !seen {
			breakdown[row.Format] = len(rep.FormatBreakdown)
			rep.FormatBreakdown = append(rep.FormatBreakdown, FormatCount{Format: row.Format})
		}
		rep.FormatBreakdown[breakdown[row.Format]].Count++

		if id := row.Record.AircraftID; id != "" {
			aircraft[id] = true
		}

		for _, iss := range row.Issues {
			rep.Issues = append(rep.Issues, iss)
			classes.add(iss.Severity, string(iss.Field)+": "+iss.Message, iss.Field, iss.Code, iss.Line)
		}

		if row.Fatal() {
			rep.ExcludedFlights++
			continue
		}
		rep.ValidFlights++
		if row.ZeroTime {
			rep.ZeroTimeFlights++
		}
		rep.TotalHours = rep.TotalHours.Add(row.Record.TotalTime)
	}

	for _, d := range dropped {
		classes.add("dropped", d.Reason, "", d.Reason, d.Line)
	}

	rep.AircraftCount = len(aircraft)
	rep.Warnings = classes.summaries()
	return rep
}

type issueClass struct {
	kind      string
	example   string
	count     int
	firstLine int
}

// issueClasses groups issues by kind, field and code, keeping first-seen
// order.
type issueClasses struct {
	order []string
	byKey map[string]*issueClass
}

func newIssueClasses() *issueClasses {
	return &issueClasses{byKey: make(map[string]*issueClass)}
}

func (c *issueClasses) add(kind Severity, example string, f Field, code string, line int) {
	key := string(kind) + "|" + string(f) + "|" + code
	cls, ok := c.byKey[key]
	if !ok {
		cls = &issueClass{kind: string(kind), example: example, firstLine: line}
		c.byKey[key] = cls
		c.order = append(c.order, key)
	}
	cls.count++
}

func (c *issueClasses) summaries() []string {
	out := make([]string, 0, len(c.order))
	for _, key := range c.order {
		cls := c.byKey[key]
		out = append(out, cls.String())
	}
	return out
}

func (cls *issueClass) String() string {
	var prefix string
	switch cls.kind {
	case string(SeverityFatal):
		prefix = fmt.Sprintf("%s excluded", pluralRows(cls.count))
	case string(SeverityWarning):
		prefix = fmt.Sprintf("%s with warnings", pluralRows(cls.count))
	default:
		prefix = fmt.Sprintf("%s dropped", pluralRows(cls.count))
	}
	return fmt.Sprintf("%s: %s (first at line %d)", prefix, strings.TrimSpace(cls.example), cls.firstLine)
}

func pluralRows(n int) string {
	if n == 1 {
		return "1 row"
	}
	return fmt.Sprintf("%d rows", n)
}
