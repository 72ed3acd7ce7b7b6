package quartofmt

import (
	"fmt"
	"io"
	"strings"
)

// Parse builds the lossless concrete syntax tree for src. The returned
// document's Text() reproduces src byte for byte, whatever the input looked
// like; malformed constructs degrade to plain text instead of failing. A
// non-nil error reports an internal invariant violation (the tree is still
// complete and usable).
func Parse(src string) (*Node, error) {
	return parseTree(src)
}

// Format parses src and renders it normalized according to cfg. The input
// must be valid UTF-8 text. Formatting is idempotent: feeding the output
// back in reproduces it.
func Format(src string, cfg Config) (string, error) {
	if err := ValidateInput([]byte(src)); err != nil {
		return "", err
	}
	cfg = cfg.normalized()
	doc, err := parseTree(src)
	if err != nil {
		return "", fmt.Errorf("parse: %w", err)
	}
	return formatTree(doc, cfg, detectLineEnding(src, cfg.LineEnding)), nil
}

// FormatDocument reads a whole document from r, formats it, and writes the
// result to w.
func FormatDocument(r io.Reader, w io.Writer, cfg Config) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	out, err := Format(string(src), cfg)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// detectLineEnding resolves the configured line ending against the input:
// auto follows the input's first line break.
func detectLineEnding(src string, cfg LineEnding) string {
	switch cfg {
	case LineEndingLF:
		return "\n"
	case LineEndingCRLF:
		return "\r\n"
	}
	if i := strings.IndexByte(src, '\n'); i > 0 && src[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
