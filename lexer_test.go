package quartofmt

import (
	"strings"
	"testing"
)

func lexKinds(src string) []SyntaxKind {
	var kinds []SyntaxKind
	for _, tok := range lex(src) {
		kinds = append(kinds, tok.Kind())
	}
	return kinds
}

func assertKinds(t *testing.T, src string, want []SyntaxKind) {
	t.Helper()
	got := lexKinds(src)
	if len(got) != len(want) {
		t.Fatalf("token count for %q: got %v want %v", src, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d for %q: got %v want %v", i, src, got[i], want[i])
		}
	}
}

func TestLexLossless(t *testing.T) {
	inputs := []string{
		"",
		"plain text\n",
		"# Heading\n\nParagraph with `code` and $math$.\n",
		"> quoted\n> > nested\n",
		"- item\n  continuation\n1. ordered\n",
		"```go\nfmt.Println(\"hi\")\n```\n",
		"::: {.callout-note}\ninner\n:::\n",
		"---\ntitle: front\n---\nbody\n",
		"$$\nE = mc^2\n$$ {#eq-energy}\n",
		"<!-- a comment -->\n",
		"\\usepackage{amsmath}\n\\begin{align}\na &= b\n\\end{align}\n",
		"no trailing newline",
		"crlf line\r\nanother\r\n",
		"\tleading tab\n  spaces\n",
		"stray ] and ![ and *** and ``` mid-line\n",
		"lone \r carriage\n",
	}
	for _, src := range inputs {
		var sb strings.Builder
		for _, tok := range lex(src) {
			sb.WriteString(tok.Text())
		}
		if sb.String() != src {
			t.Fatalf("token concat mismatch\nwant: %q\n got: %q", src, sb.String())
		}
	}
}

func TestLexHeadingLine(t *testing.T) {
	assertKinds(t, "# Title\n", []SyntaxKind{
		KindHeadingMarker, KindMarkerSpace, KindText, KindNewline, KindEOF,
	})
	// Seven hashes is not a heading.
	assertKinds(t, "####### x\n", []SyntaxKind{
		KindText, KindWhitespace, KindText, KindNewline, KindEOF,
	})
}

func TestLexMarkersOnlyAtLineStart(t *testing.T) {
	for _, tok := range lex("foo # bar ``` ::: baz\n") {
		switch tok.Kind() {
		case KindHeadingMarker, KindFenceMarker, KindDivMarker:
			t.Fatalf("mid-line %q lexed as marker %v", tok.Text(), tok.Kind())
		}
	}
}

func TestLexQuoteListNesting(t *testing.T) {
	assertKinds(t, "> - item\n", []SyntaxKind{
		KindQuoteMarker, KindMarkerSpace, KindListMarker, KindMarkerSpace,
		KindText, KindNewline, KindEOF,
	})
}

func TestLexOrderedMarker(t *testing.T) {
	toks := lex("12. x\n")
	if toks[0].Kind() != KindListMarker || toks[0].Text() != "12." {
		t.Fatalf("expected ordered marker, got %v %q", toks[0].Kind(), toks[0].Text())
	}
	// More than nine digits stays text.
	for _, tok := range lex("1234567890. x\n") {
		if tok.Kind() == KindListMarker {
			t.Fatalf("ten-digit marker lexed as list marker")
		}
	}
}

func TestLexBareListMarker(t *testing.T) {
	// A marker at the end of its line opens an empty item.
	assertKinds(t, "-\n", []SyntaxKind{KindListMarker, KindNewline, KindEOF})
	assertKinds(t, "1.\n", []SyntaxKind{KindListMarker, KindNewline, KindEOF})
	assertKinds(t, "*", []SyntaxKind{KindListMarker, KindEOF})
	// Without a boundary the dash stays text.
	assertKinds(t, "-x\n", []SyntaxKind{KindText, KindNewline, KindEOF})
}

func TestLexMathFence(t *testing.T) {
	if k := lexKinds("$$\n")[0]; k != KindMathFence {
		t.Fatalf("expected math fence, got %v", k)
	}
	if k := lexKinds("$$$\n")[0]; k != KindText {
		t.Fatalf("triple dollar should be text, got %v", k)
	}
	// Single dollars are plain text for the inline pass.
	assertKinds(t, "$x$\n", []SyntaxKind{
		KindText, KindText, KindText, KindNewline, KindEOF,
	})
	// A closing fence mid-line is still addressable.
	toks := lex("$$x$$\n")
	if toks[0].Kind() != KindMathFence || toks[2].Kind() != KindMathFence {
		t.Fatalf("one-line math fences not recognized: %v", lexKinds("$$x$$\n"))
	}
}

func TestLexFrontmatterDelim(t *testing.T) {
	if k := lexKinds("---\nx\n")[0]; k != KindFrontmatterDelim {
		t.Fatalf("expected frontmatter delimiter, got %v", k)
	}
	if k := lexKinds("+++\nx\n")[0]; k != KindFrontmatterDelim {
		t.Fatalf("expected TOML frontmatter delimiter, got %v", k)
	}
	if k := lexKinds("---text\n")[0]; k == KindFrontmatterDelim {
		t.Fatalf("delimiter with trailing text should not lex as frontmatter")
	}
	// Only at the very start of the document.
	for _, tok := range lex("x\n---\n") {
		if tok.Kind() == KindFrontmatterDelim {
			t.Fatalf("frontmatter delimiter recognized past offset zero")
		}
	}
}

func TestLexLatexCommand(t *testing.T) {
	toks := lex("\\usepackage{amsmath}\n")
	if toks[0].Kind() != KindLatexCommand || toks[0].Text() != "\\usepackage{amsmath}" {
		t.Fatalf("got %v %q", toks[0].Kind(), toks[0].Text())
	}
	toks = lex("\\frac{a}{b} rest\n")
	if toks[0].Text() != "\\frac{a}{b}" {
		t.Fatalf("argument groups not consumed: %q", toks[0].Text())
	}
	// An argument group cut off by the line end is not part of the command.
	toks = lex("\\cmd{a\n")
	if toks[0].Text() != "\\cmd" {
		t.Fatalf("unbalanced group should stop the command: %q", toks[0].Text())
	}
}

func TestLexCRLF(t *testing.T) {
	toks := lex("a\r\nb\r\n")
	if toks[1].Kind() != KindNewline || toks[1].Text() != "\r\n" {
		t.Fatalf("CRLF not lexed as one newline: %v %q", toks[1].Kind(), toks[1].Text())
	}
}
