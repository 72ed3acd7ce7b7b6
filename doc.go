// Package quartofmt formats extended Markdown as used by Quarto and Pandoc
// (.qmd and .md documents).
//
// The formatter is built on a lossless concrete syntax tree: the tokenizer
// and two parsing passes (blocks, then inlines) keep every input byte in
// the tree, so Parse followed by Node.Text reproduces the source exactly,
// and malformed input degrades to plain paragraphs instead of failing.
// Formatting is a pure tree walk and is idempotent.
//
// Core properties:
//   - Lossless CST; round-trips arbitrary input byte for byte
//   - Wrap modes off, soft and hard; inline code, math, links and
//     citations are never split across lines
//   - Width measured in display cells, East Asian width aware
//   - Never errors on malformed input
//
// Example:
//
//	out, err := quartofmt.Format(src, quartofmt.Config{LineWidth: 72})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Print(out)
//
// The zero Config wraps softly at 80 columns and keeps the input's line
// endings.
package quartofmt
