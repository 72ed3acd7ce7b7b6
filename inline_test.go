package quartofmt

import (
	"testing"
)

// firstParagraph parses src and returns its first paragraph node.
func firstParagraph(t *testing.T, src string) *Node {
	t.Helper()
	doc := mustParse(t, src)
	for _, n := range doc.Nodes() {
		if n.Kind() == KindParagraph {
			return n
		}
	}
	t.Fatalf("no paragraph in %q", src)
	return nil
}

// findKind searches the subtree for the first node of the given kind.
func findKind(n *Node, kind SyntaxKind) *Node {
	if n.Kind() == kind {
		return n
	}
	for _, c := range n.Children() {
		if nd, ok := c.(*Node); ok {
			if found := findKind(nd, kind); found != nil {
				return found
			}
		}
	}
	return nil
}

func TestInlineCodeSpan(t *testing.T) {
	p := firstParagraph(t, "use `x` now\n")
	code := findKind(p, KindInlineCode)
	if code == nil || code.Text() != "`x`" {
		t.Fatalf("inline code not parsed: %#v", code)
	}

	// Delimiter runs match exactly, so a longer run can hold backticks.
	p = firstParagraph(t, "a ``b `c` d`` e\n")
	code = findKind(p, KindInlineCode)
	if code == nil || code.Text() != "``b `c` d``" {
		t.Fatalf("backtick run matching failed: %q", code.Text())
	}

	// An unmatched opener stays literal.
	p = firstParagraph(t, "lonely ` tick\n")
	if findKind(p, KindInlineCode) != nil {
		t.Fatalf("unmatched backtick should not form a code span")
	}
}

func TestInlineMath(t *testing.T) {
	p := firstParagraph(t, "value $x+y$ here\n")
	m := findKind(p, KindInlineMath)
	if m == nil || m.Text() != "$x+y$" {
		t.Fatalf("inline math not parsed: %#v", m)
	}

	// Space after the opening dollar keeps it literal.
	p = firstParagraph(t, "costs $ 5 and $ 6\n")
	if findKind(p, KindInlineMath) != nil {
		t.Fatalf("spaced dollars should stay literal")
	}

	// Currency amounts never close.
	p = firstParagraph(t, "cost $5 and more\n")
	if findKind(p, KindInlineMath) != nil {
		t.Fatalf("lone currency dollar should stay literal")
	}

	// Math inside a code span is just code.
	p = firstParagraph(t, "`a $b$ c`\n")
	if findKind(p, KindInlineMath) != nil {
		t.Fatalf("dollar inside code span parsed as math")
	}
}

func TestInlineLinks(t *testing.T) {
	p := firstParagraph(t, "see [text](https://example.com \"Title\") ok\n")
	link := findKind(p, KindLink)
	if link == nil {
		t.Fatalf("link not parsed")
	}
	if d := findKind(link, KindLinkDest); d == nil || d.Text() != "https://example.com" {
		t.Fatalf("link destination wrong: %#v", d)
	}
	if ti := findKind(link, KindLinkTitle); ti == nil || ti.Text() != "\"Title\"" {
		t.Fatalf("link title wrong: %#v", ti)
	}

	p = firstParagraph(t, "![alt](img.png)\n")
	if findKind(p, KindImage) == nil {
		t.Fatalf("image not parsed")
	}

	// Brackets without a destination stay literal.
	p = firstParagraph(t, "just [brackets] here\n")
	if findKind(p, KindLink) != nil {
		t.Fatalf("bare brackets should not form a link")
	}

	// A newline inside the destination kills the tail.
	p = firstParagraph(t, "[text](dest\nbroken)\n")
	if findKind(p, KindLink) != nil {
		t.Fatalf("multi-line destination should stay literal")
	}
}

func TestInlineEmphasis(t *testing.T) {
	p := firstParagraph(t, "*em* and **strong** and ***both***\n")
	if findKind(p, KindEmphasis) == nil {
		t.Fatalf("emphasis not parsed")
	}
	strong := findKind(p, KindStrong)
	if strong == nil {
		t.Fatalf("strong not parsed")
	}

	// Triple delimiters nest strong inside emphasis.
	p = firstParagraph(t, "***both***\n")
	em := findKind(p, KindEmphasis)
	if em == nil || findKind(em, KindStrong) == nil {
		t.Fatalf("triple asterisks should nest strong in emphasis")
	}

	// Intra-word underscores stay literal, intra-word asterisks do not.
	p = firstParagraph(t, "snake_case_name\n")
	if findKind(p, KindEmphasis) != nil {
		t.Fatalf("intra-word underscore formed emphasis")
	}
	p = firstParagraph(t, "a*b*c\n")
	if findKind(p, KindEmphasis) == nil {
		t.Fatalf("intra-word asterisk should form emphasis")
	}

	// Space-flanked delimiters stay literal.
	p = firstParagraph(t, "a * b * c\n")
	if findKind(p, KindEmphasis) != nil {
		t.Fatalf("space-flanked asterisks formed emphasis")
	}
}

func TestInlineCitations(t *testing.T) {
	p := firstParagraph(t, "see @smith2020 for details\n")
	c := findKind(p, KindCitation)
	if c == nil || c.Text() != "@smith2020" {
		t.Fatalf("citation not parsed: %#v", c)
	}

	p = firstParagraph(t, "shown before [-@jones2019] here\n")
	if findKind(p, KindCitationGroup) == nil {
		t.Fatalf("bracketed citation group not parsed")
	}

	// Emails are not citations.
	p = firstParagraph(t, "mail me at user@example.com ok\n")
	if findKind(p, KindCitation) != nil {
		t.Fatalf("email local part parsed as citation")
	}

	// Trailing punctuation stays outside the key.
	p = firstParagraph(t, "see @smith2020.\n")
	c = findKind(p, KindCitation)
	if c == nil || c.Text() != "@smith2020" {
		t.Fatalf("trailing period should stay outside the key: %#v", c)
	}
}

func TestInlineSpanAcrossQuotedLines(t *testing.T) {
	src := "> start `code\n> span` end\n"
	doc := mustParse(t, src)
	code := findKind(doc, KindInlineCode)
	if code == nil || code.Text() != "`code\n> span`" {
		t.Fatalf("quoted code span not parsed: %#v", code)
	}
	// The continuation line's prefix is a marker token, not span text.
	if _, ok := firstTokenDeep(code, KindQuoteMarker); !ok {
		t.Fatalf("continuation prefix should lex as a quote marker")
	}
	if doc.Text() != src {
		t.Fatalf("round trip failed: %q", doc.Text())
	}

	doc = mustParse(t, "> a $x +\n> y$ b\n")
	math := findKind(doc, KindInlineMath)
	if math == nil {
		t.Fatalf("quoted math span not parsed")
	}
	if _, ok := firstTokenDeep(math, KindQuoteMarker); !ok {
		t.Fatalf("continuation prefix should lex as a quote marker")
	}
}

func TestLinkTailOnNextLine(t *testing.T) {
	p := firstParagraph(t, "[text]\n(dest)\n")
	if findKind(p, KindLink) != nil {
		t.Fatalf("a tail on the next line should leave the brackets literal")
	}
	if p.Text() != "[text]\n(dest)\n" {
		t.Fatalf("literal brackets lost text: %q", p.Text())
	}
}

func TestInlineHardBreaks(t *testing.T) {
	p := firstParagraph(t, "one  \ntwo\n")
	if _, ok := firstTokenDeep(p, KindHardBreak); !ok {
		t.Fatalf("trailing double space should form a hard break")
	}
	p = firstParagraph(t, "one\\\ntwo\n")
	if _, ok := firstTokenDeep(p, KindHardBreak); !ok {
		t.Fatalf("backslash newline should form a hard break")
	}
	p = firstParagraph(t, "one\ntwo\n")
	if _, ok := firstTokenDeep(p, KindHardBreak); ok {
		t.Fatalf("plain newline is not a hard break")
	}
}

func firstTokenDeep(n *Node, kind SyntaxKind) (Token, bool) {
	for _, c := range n.Children() {
		switch x := c.(type) {
		case Token:
			if x.Kind() == kind {
				return x, true
			}
		case *Node:
			if tok, ok := firstTokenDeep(x, kind); ok {
				return tok, true
			}
		}
	}
	return Token{}, false
}

func TestInlineLossless(t *testing.T) {
	inputs := []string{
		"mixed `code` $math$ [link](x) @cite **bold** text\n",
		"broken [link](dest `code $math\n",
		"**unbalanced *emphasis\n",
		"escape \\* and \\[ and \\\\ chars\n",
		"> quoted *reflow* across\n> lines\n",
	}
	for _, src := range inputs {
		doc := mustParse(t, src)
		if got := doc.Text(); got != src {
			t.Fatalf("inline pass changed text\nwant: %q\n got: %q", src, got)
		}
	}
}
