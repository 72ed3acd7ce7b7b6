package quartofmt

import (
	"strconv"
	"strings"
	"testing"
)

func benchmarkDoc() string {
	var sb strings.Builder
	sb.WriteString("---\ntitle: benchmark\n---\n\n")
	for i := 0; i < 40; i++ {
		sb.WriteString("## Section heading number ")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString("\n\n")
		sb.WriteString("A paragraph with `inline code`, some $x_i$ math, a ")
		sb.WriteString("[link](https://example.com/path) and a citation @key2020 ")
		sb.WriteString(strings.TrimSpace(strings.Repeat("plus filler words ", 8)))
		sb.WriteString("\n\n")
		sb.WriteString("> a quoted line with enough words to reflow\n> and a second line\n\n")
		sb.WriteString("- item one with text\n- item two with text\n  continuation\n\n")
		sb.WriteString("```go\nfunc f() { return }\n```\n\n")
	}
	return sb.String()
}

func BenchmarkParse(b *testing.B) {
	src := benchmarkDoc()
	b.ReportAllocs()
	b.SetBytes(int64(len(src)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Parse(src); err != nil {
			b.Fatalf("parse: %v", err)
		}
	}
}

func BenchmarkFormat(b *testing.B) {
	src := benchmarkDoc()
	widths := []int{50, 80, 120}
	for _, width := range widths {
		width := width
		b.Run(strconv.Itoa(width), func(b *testing.B) {
			cfg := Config{LineWidth: width}
			b.ReportAllocs()
			b.SetBytes(int64(len(src)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := Format(src, cfg); err != nil {
					b.Fatalf("format: %v", err)
				}
			}
		})
	}
}
