// Package output renders command results as table, JSON, or YAML: a
// switch on the -o flag feeding either a tabwriter table or a marshaled
// document.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format is the set of recognized -o values.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat defaults unrecognized or empty input to table.
func ParseFormat(s string) Format {
	switch Format(s) {
	case FormatJSON:
		return FormatJSON
	case FormatYAML:
		return FormatYAML
	default:
		return FormatTable
	}
}

// Write renders v to w in the given format. For FormatTable, tableFn is
// called to render a human-readable tabwriter table; JSON/YAML marshal v
// directly.
func Write(w io.Writer, format Format, v any, tableFn func(io.Writer) error) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return tableFn(w)
	}
}

// NewTabWriter builds a tabwriter with the column spacing used across the
// badge/status commands.
func NewTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
}

// ProgressBar renders a fixed-width ASCII progress bar.
func ProgressBar(value float64, width int) string {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	filled := int(value * float64(width))
	bar := make([]byte, width)
	for i := range bar {
		if i < filled {
			bar[i] = '#'
		} else {
			bar[i] = '-'
		}
	}
	return fmt.Sprintf("[%s] %3.0f%%", bar, value*100)
}
