// Package cnab implements the fixed-width CNAB batch codec: field
// padding, remessa (outbound) encoding and retorno (inbound) parsing.
// All operations are pure and safe for concurrent use.
package cnab

import (
	"strings"

	"github.com/lotefacil/cnab-gateway/internal/domain"
)

// Align selects which side of a field receives the fill characters.
type Align int

const (
	// AlignLeft adds fill to the left, so the value ends up
	// right-aligned in the field. Used for numeric fields.
	AlignLeft Align = iota
	// AlignRight adds fill to the right, so the value ends up
	// left-aligned. Used for text fields (names, codes).
	AlignRight
)

// Pad formats value into exactly width characters. Values longer than
// width are silently truncated to their leftmost width characters;
// callers that cannot tolerate truncation must validate first (the
// remessa encoder does, under its default overflow policy).
//
// Width is counted in bytes; fields are expected to be ASCII.
func Pad(value string, width int, fill byte, align Align) string {
	if len(value) >= width {
		return value[:width]
	}
	padding := strings.Repeat(string(fill), width-len(value))
	if align == AlignLeft {
		return padding + value
	}
	return value + padding
}

// ComposeLine concatenates parts in order and right-pads the result
// with spaces to exactly domain.LineWidth characters. Parts that
// together already exceed the line width are NOT truncated here; only
// per-field truncation in Pad protects against overflow, so composing
// oversized parts is a caller error.
func ComposeLine(parts ...string) string {
	line := strings.Join(parts, "")
	if len(line) >= domain.LineWidth {
		return line
	}
	return line + strings.Repeat(" ", domain.LineWidth-len(line))
}
