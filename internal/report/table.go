// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pdiddy/explainor/pkg/types"
)

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true
	return tw
}

// WriteSourcesTable prints sources as a terminal table.
func WriteSourcesTable(w io.Writer, sources []types.Source) {
	tw := newTable(w)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: 50},
		{Number: 4, WidthMax: 60},
	})
	tw.AppendHeader(table.Row{"#", "Title", "Source", "URL"})
	for i, s := range sources {
		tw.AppendRow(table.Row{i + 1, s.Title, s.Source, s.URL})
	}
	if len(sources) == 0 {
		tw.AppendRow(table.Row{"-", "(no external sources)", "-", "-"})
	}
	tw.Render()
}

// WriteToolsTable prints the tool trace as a terminal table.
func WriteToolsTable(w io.Writer, tools []types.ToolInvocation) {
	tw := newTable(w)
	tw.AppendHeader(table.Row{"", "Tool", "Description"})
	for _, t := range tools {
		tw.AppendRow(table.Row{t.Icon, t.Name, t.Description})
	}
	tw.Render()
}

// WritePersonasTable prints the catalog as a terminal table.
func WritePersonasTable(w io.Writer, personas []types.Persona, fallback string) {
	tw := newTable(w)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
	})
	tw.AppendHeader(table.Row{"", "Persona", "Voice ID", "Stability/Style", "Speed", "Default"})
	for _, p := range personas {
		knobs, speed := "-", "-"
		if vs := p.VoiceSettings; vs != nil {
			knobs = fmt.Sprintf("%.2f / %.2f", vs.Stability, vs.Style)
			speed = fmt.Sprintf("%.2fx", vs.Speed)
		}
		def := ""
		if p.Name == fallback {
			def = "*"
		}
		tw.AppendRow(table.Row{p.Emoji, p.Name, p.VoiceID, knobs, speed, def})
	}
	tw.Render()
}
