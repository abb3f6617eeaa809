package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"passlaunch/internal/passinfo"
)

const submittedLayout = "2006-01-02 15:04:05"

type passColumn struct {
	header string
	align  text.Align
	value  func(passinfo.Pass) string
}

// Sequence numbers and job ids are right-aligned so they line up by digit.
var passColumns = []passColumn{
	{"Seq", text.AlignRight, func(p passinfo.Pass) string { return p.Seq.String() }},
	{"Pass", text.AlignLeft, func(p passinfo.Pass) string { return p.Name }},
	{"Job", text.AlignLeft, func(p passinfo.Pass) string { return p.JobName }},
	{"Master", text.AlignRight, func(p passinfo.Pass) string { return p.MasterJobID }},
	{"Array", text.AlignRight, func(p passinfo.Pass) string { return p.ArrayJobID }},
	{"Submitted", text.AlignLeft, submittedCell},
	{"Overrides", text.AlignLeft, overrideSummary},
}

// renderPassTable draws one row per pass. Missing values show as "-". A
// summary line under the table counts passes whose jobs were not all
// accepted.
func renderPassTable(passes []passinfo.Pass) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(passColumns))
	configs := make([]table.ColumnConfig, len(passColumns))
	for i, c := range passColumns {
		header[i] = c.header
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       c.align,
			AlignHeader: text.AlignLeft,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	incomplete := 0
	for _, p := range passes {
		if !p.Complete() {
			incomplete++
		}
		row := make(table.Row, len(passColumns))
		for i, c := range passColumns {
			cell := c.value(p)
			if cell == "" {
				cell = "-"
			}
			row[i] = cell
		}
		tw.AppendRow(row)
	}
	return tw.Render() + "\n" + passSummary(len(passes), incomplete)
}

func passSummary(total, incomplete int) string {
	noun := "passes"
	if total == 1 {
		noun = "pass"
	}
	if incomplete == 0 {
		return fmt.Sprintf("%d %s", total, noun)
	}
	return fmt.Sprintf("%d %s, %d incomplete", total, noun, incomplete)
}

func submittedCell(p passinfo.Pass) string {
	if p.Submitted.IsZero() {
		return ""
	}
	return p.Submitted.Format(submittedLayout)
}

func overrideSummary(p passinfo.Pass) string {
	var parts []string
	if p.MaxAttempts != "" {
		parts = append(parts, "maxattempts="+p.MaxAttempts)
	}
	if p.TaskIDRegex != "" {
		parts = append(parts, "taskidregex="+p.TaskIDRegex)
	}
	return strings.Join(parts, " ")
}
