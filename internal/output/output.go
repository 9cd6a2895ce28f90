// Package output renders parse results as text tables or JSON.
package output

import "fmt"

// Format represents the output format type.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseFormat converts a format name ("text" or "json") to a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown output format %q", name)
	}
}

// Formatter is the interface for output formatters.
type Formatter interface {
	FormatText() string
	FormatJSON() ([]byte, error)
}

// FormatOutput formats the given Formatter based on the specified format.
func FormatOutput(f Formatter, format Format) (string, error) {
	switch format {
	case FormatJSON:
		data, err := f.FormatJSON()
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return f.FormatText(), nil
	}
}
