// Package output renders takeoff results for people and machines.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"siding-takeoff/core/engine"
)

// Format is an output format name
type Format string

const (
	// FormatTable is a human-readable table
	FormatTable Format = "table"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"
)

// Formatter renders a takeoff in one format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// Render writes the takeoff to w
	Render(w io.Writer, t *engine.Takeoff) error
}

var formatters = map[Format]Formatter{
	FormatTable: &TableFormatter{ShowSkips: true},
	FormatJSON:  &JSONFormatter{Indent: "  "},
}

// Get returns the formatter for a format name, case-insensitively
func Get(name string) (Formatter, error) {
	f, ok := formatters[Format(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %s)", name, strings.Join(Available(), ", "))
	}
	return f, nil
}

// Available lists the registered format names
func Available() []string {
	out := make([]string, 0, len(formatters))
	for f := range formatters {
		out = append(out, string(f))
	}
	sort.Strings(out)
	return out
}

// JSONFormatter writes the takeoff as JSON
type JSONFormatter struct {
	Indent string
}

// Format implements Formatter
func (f *JSONFormatter) Format() Format { return FormatJSON }

// Render implements Formatter
func (f *JSONFormatter) Render(w io.Writer, t *engine.Takeoff) error {
	enc := json.NewEncoder(w)
	if f.Indent != "" {
		enc.SetIndent("", f.Indent)
	}
	return enc.Encode(t)
}
