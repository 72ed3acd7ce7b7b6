package quartofmt

import (
	"errors"
	"fmt"
)

// DefaultLineWidth is the wrap column used when Config.LineWidth is unset.
const DefaultLineWidth = 80

var (
	// ErrBadWrapMode reports an unrecognized wrap mode name.
	ErrBadWrapMode = errors.New("quartofmt: unknown wrap mode")
	// ErrBadLineEnding reports an unrecognized line ending name.
	ErrBadLineEnding = errors.New("quartofmt: unknown line ending")
)

// WrapMode selects how paragraph text is reflowed.
type WrapMode uint8

const (
	// WrapSoft reflows paragraphs at whitespace to the line width. Words
	// and atomic inline spans wider than the width overflow their line.
	WrapSoft WrapMode = iota
	// WrapOff preserves paragraph interiors exactly as written.
	WrapOff
	// WrapHard reflows like WrapSoft and additionally splits plain words
	// longer than the available width at grapheme cluster boundaries.
	// Inline code, math, links and citations are never split.
	WrapHard
)

func (m WrapMode) String() string {
	switch m {
	case WrapOff:
		return "off"
	case WrapHard:
		return "hard"
	default:
		return "soft"
	}
}

// ParseWrapMode converts a configuration string to a WrapMode.
func ParseWrapMode(s string) (WrapMode, error) {
	switch s {
	case "off":
		return WrapOff, nil
	case "soft", "":
		return WrapSoft, nil
	case "hard":
		return WrapHard, nil
	}
	return WrapSoft, fmt.Errorf("%w: %q", ErrBadWrapMode, s)
}

// LineEnding selects the newline sequence of formatted output.
type LineEnding uint8

const (
	// LineEndingAuto keeps whatever the input used, detected from its
	// first line break. Input without line breaks formats with LF.
	LineEndingAuto LineEnding = iota
	// LineEndingLF forces "\n".
	LineEndingLF
	// LineEndingCRLF forces "\r\n".
	LineEndingCRLF
)

func (e LineEnding) String() string {
	switch e {
	case LineEndingLF:
		return "lf"
	case LineEndingCRLF:
		return "crlf"
	default:
		return "auto"
	}
}

// ParseLineEnding converts a configuration string to a LineEnding.
func ParseLineEnding(s string) (LineEnding, error) {
	switch s {
	case "auto", "":
		return LineEndingAuto, nil
	case "lf":
		return LineEndingLF, nil
	case "crlf":
		return LineEndingCRLF, nil
	}
	return LineEndingAuto, fmt.Errorf("%w: %q", ErrBadLineEnding, s)
}

// Config controls formatting. The zero value is usable and means: wrap
// softly at 80 columns, keep the input's line endings, no math indent.
// Formatting never mutates a Config.
type Config struct {
	// LineWidth is the wrap column in display cells. Values below 1 mean
	// DefaultLineWidth.
	LineWidth int
	// Wrap selects the reflow behavior for paragraphs.
	Wrap WrapMode
	// LineEnding selects the output newline sequence.
	LineEnding LineEnding
	// MathIndent indents display math content by this many spaces.
	MathIndent int
}

// DefaultConfig returns the documented defaults, spelled out.
func DefaultConfig() Config {
	return Config{LineWidth: DefaultLineWidth, Wrap: WrapSoft, LineEnding: LineEndingAuto}
}

// normalized returns cfg with unset fields replaced by defaults.
func (cfg Config) normalized() Config {
	if cfg.LineWidth < 1 {
		cfg.LineWidth = DefaultLineWidth
	}
	if cfg.MathIndent < 0 {
		cfg.MathIndent = 0
	}
	return cfg
}
