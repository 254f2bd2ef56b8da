package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/conversion"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/internal/manifest"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/formatting"
	"github.com/Grand-Siecle/cli-renameImgXMLALTO/pkg/imaging"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// summaryText is the one-line result of a conversion.
func summaryText(s *conversion.Summary) string {
	return fmt.Sprintf(
		"converted %d pages, %d skipped → %s (%s)",
		s.Succeeded,
		s.Failed,
		s.Output,
		formatting.FormatBytes(s.OutputBytes, 1),
	)
}

func renderSummary(s *conversion.Summary) string {
	style := successStyle
	if s.Failed > 0 {
		style = warnStyle
	}
	return style.Render(summaryText(s)) + dimStyle.Render(fmt.Sprintf(" in %s", s.Elapsed().Round(10*time.Millisecond)))
}

// describeFailure names the cause of a fatal error in terms of what the
// user can act on.
func describeFailure(err error) string {
	switch {
	case errors.Is(err, conversion.ErrInvalidOptions):
		return err.Error()
	case errors.Is(err, conversion.ErrArchiveUnreadable):
		return "unreadable archive: " + err.Error()
	case errors.Is(err, conversion.ErrNoPages):
		return "no supported images converted: " + err.Error()
	case errors.Is(err, conversion.ErrOutputLocked):
		return "output in use: " + err.Error()
	case errors.Is(err, conversion.ErrMergeWrite), errors.Is(err, imaging.ErrWrite):
		return "write failure: " + err.Error()
	case errors.Is(err, manifest.ErrFetch):
		return "manifest unavailable: " + err.Error()
	default:
		return err.Error()
	}
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func shortName(path string) string {
	return filepath.Base(path)
}
