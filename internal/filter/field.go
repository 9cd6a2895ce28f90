package filter

import (
	"fmt"
	"strings"
)

// customFieldSegments is the number of quoted segments in a custom field name.
const customFieldSegments = 2

// customField validates a compound field name written as quoted segments
// separated by dots, e.g. "General Property Description"."Taxes".
// segments and dots must be contiguous tokens in source order.
func customField(parts []Token) (string, error) {
	var (
		sb       strings.Builder
		segments int
	)
	for i, tok := range parts {
		if i > 0 && parts[i-1].end() != tok.Offset {
			return "", fmt.Errorf("unexpected whitespace in custom field")
		}
		sb.WriteString(tok.Text)
		if tok.Kind != TokenQuotedSegment {
			continue
		}
		segments++
		if err := checkSegment(unquote(tok.Text)); err != nil {
			return "", err
		}
	}
	if segments != customFieldSegments {
		return "", fmt.Errorf("custom field needs %d segments, got %d", customFieldSegments, segments)
	}
	return sb.String(), nil
}

func checkSegment(seg string) error {
	switch {
	case seg == "":
		return fmt.Errorf("empty custom field segment")
	case strings.HasPrefix(seg, "$"):
		return fmt.Errorf("custom field segment %q starts with '$'", seg)
	case strings.Contains(seg, "."):
		return fmt.Errorf("custom field segment %q contains '.'", seg)
	}
	return nil
}

// unquote strips the surrounding double quotes and resolves backslash escapes.
func unquote(s string) string {
	s = strings.TrimSuffix(strings.TrimPrefix(s, `"`), `"`)
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	escaped := false
	for _, r := range s {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		sb.WriteRune(r)
	}
	return sb.String()
}
