package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// OutputConfig holds global output settings
type OutputConfig struct {
	JSON  bool
	Quiet bool
	Out   io.Writer
	Err   io.Writer
}

var outputCfg = OutputConfig{Out: os.Stdout, Err: os.Stderr}

// PrintResult outputs data based on output config
func PrintResult(data interface{}) {
	if outputCfg.JSON {
		printJSON(data)
		return
	}

	switch v := data.(type) {
	case string:
		_, _ = fmt.Fprintln(outputCfg.Out, v)
	case []byte:
		_, _ = outputCfg.Out.Write(v)
	case []string:
		for _, s := range v {
			_, _ = fmt.Fprintln(outputCfg.Out, s)
		}
	default:
		// Fall back to JSON for complex types
		printJSON(data)
	}
}

func printJSON(data interface{}) {
	enc := json.NewEncoder(outputCfg.Out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// PrintTable outputs tabular data
func PrintTable(headers []string, rows [][]string, aligns ...columnAlignment) {
	if outputCfg.JSON {
		result := make([]map[string]string, len(rows))
		for i, row := range rows {
			m := make(map[string]string)
			for j, h := range headers {
				if j < len(row) {
					m[h] = row[j]
				}
			}
			result[i] = m
		}
		printJSON(result)
		return
	}
	_, _ = fmt.Fprintln(outputCfg.Out, renderTable(headers, rows, aligns))
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if isTerminal(outputCfg.Out) {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
	}

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
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

// PrintProgress prints progress if not quiet or JSON mode
func PrintProgress(format string, args ...interface{}) {
	if !outputCfg.Quiet && !outputCfg.JSON {
		_, _ = fmt.Fprintf(outputCfg.Out, format, args...)
	}
}

// PrintInfo prints info message if not quiet
func PrintInfo(format string, args ...interface{}) {
	if !outputCfg.Quiet && !outputCfg.JSON {
		_, _ = fmt.Fprintf(outputCfg.Out, format, args...)
	}
}

// PrintError prints error to stderr
func PrintError(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(outputCfg.Err, format, args...)
}

func isTerminal(w interface{}) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
