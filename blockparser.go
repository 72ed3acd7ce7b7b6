package quartofmt

import (
	"errors"
	"strings"
)

// ErrParserStall reports that the block parser failed to consume input
// during an iteration. The parser recovers by taking one token as text, so
// the returned tree is still complete and lossless, but the error signals
// an internal invariant violation worth a bug report.
var ErrParserStall = errors.New("quartofmt: block parser failed to advance")

// maxNestingDepth caps recursion for containers (quotes, divs, lists).
// Beyond the cap, would-be containers parse as paragraph text.
const maxNestingDepth = 100

// blockParser builds the block-level concrete syntax tree from the token
// stream. Every token it sees ends up in the tree in source order, so
// Document.Text() reproduces the input exactly.
//
// Inside block quotes the per-line '>' markers are consumed into whatever
// node covers the line (the quote itself between blocks, the paragraph or
// fence content within one). The formatter strips and re-emits them
// structurally by token kind; nothing ever re-scans text for markers.
type blockParser struct {
	tokens []Token
	pos    int
	b      *treeBuilder

	quoteDepth int
	depth      int
	err        error
}

func parseTree(src string) (*Node, error) {
	p := &blockParser{tokens: lex(src), b: newTreeBuilder(KindDocument)}
	p.parseDocument()
	root := p.b.result()
	parseInlines(root)
	return root, p.err
}

func (p *blockParser) tok(i int) Token {
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *blockParser) cur() Token { return p.tok(p.pos) }

func (p *blockParser) kind() SyntaxKind { return p.cur().Kind() }

func (p *blockParser) bump() {
	if p.kind() == KindEOF {
		return
	}
	p.b.token(p.cur())
	p.pos++
}

// bumpLine consumes tokens through the end of the current line, including
// its newline.
func (p *blockParser) bumpLine() {
	for p.kind() != KindNewline && p.kind() != KindEOF {
		p.bump()
	}
	if p.kind() == KindNewline {
		p.bump()
	}
}

// lineEnd returns the index of the newline (or EOF) token terminating the
// line that starts at i.
func (p *blockParser) lineEnd(i int) int {
	for ; i < len(p.tokens); i++ {
		k := p.tokens[i].Kind()
		if k == KindNewline || k == KindEOF {
			return i
		}
	}
	return len(p.tokens) - 1
}

// nextLineStart returns the index of the first token of the line after the
// one starting at i.
func (p *blockParser) nextLineStart(i int) int {
	e := p.lineEnd(i)
	if p.tok(e).Kind() == KindEOF {
		return e
	}
	return e + 1
}

func (p *blockParser) lineText(i int) string {
	var sb strings.Builder
	for e := p.lineEnd(i); i < e; i++ {
		sb.WriteString(p.tokens[i].Text())
	}
	return sb.String()
}

// isBlankLine reports whether the line starting at i holds only whitespace.
func (p *blockParser) isBlankLine(i int) bool {
	for ; ; i++ {
		switch p.tok(i).Kind() {
		case KindWhitespace, KindMarkerSpace:
		case KindNewline, KindEOF:
			return true
		default:
			return false
		}
	}
}

// restBlank reports whether only whitespace remains between i and the end
// of its line.
func (p *blockParser) restBlank(i int) bool { return p.isBlankLine(i) }

// quoteMarkers counts leading '>' markers on the line starting at i.
func (p *blockParser) quoteMarkers(i int) int {
	n := 0
	for {
		j := i
		if p.tok(j).Kind() == KindWhitespace {
			j++
		}
		if p.tok(j).Kind() != KindQuoteMarker {
			return n
		}
		j++
		if p.tok(j).Kind() == KindMarkerSpace {
			j++
		}
		n++
		i = j
	}
}

// afterPrefix returns the index of the first token past the quote prefix of
// the line starting at i, consuming at most quoteDepth markers.
func (p *blockParser) afterPrefix(i int) int {
	for n := 0; n < p.quoteDepth; n++ {
		j := i
		if p.tok(j).Kind() == KindWhitespace {
			j++
		}
		if p.tok(j).Kind() != KindQuoteMarker {
			return i
		}
		j++
		if p.tok(j).Kind() == KindMarkerSpace {
			j++
		}
		i = j
	}
	return i
}

// consumePrefix consumes the current line's quote prefix into the innermost
// open node, up to the current quote depth.
func (p *blockParser) consumePrefix() {
	end := p.afterPrefix(p.pos)
	for p.pos < end {
		p.bump()
	}
}

func (p *blockParser) stall() {
	if p.err == nil {
		p.err = ErrParserStall
	}
	p.b.start(KindParagraph)
	p.bump()
	p.b.finish()
}

func (p *blockParser) parseDocument() {
	if p.kind() == KindFrontmatterDelim {
		p.parseFrontmatter()
	}
	p.parseBlocks(func() bool { return false })
	p.b.token(p.cur()) // EOF
}

// parseBlocks is the shared engine for the document body, fenced div
// interiors, block quote interiors, and list item contents. Each caller
// supplies its own stop condition, evaluated at block boundaries before the
// line's quote prefix is consumed.
func (p *blockParser) parseBlocks(stop func() bool) {
	for p.kind() != KindEOF {
		if stop() {
			return
		}
		start := p.pos
		p.parseBlock()
		if p.pos == start {
			p.stall()
		}
	}
}

func (p *blockParser) parseBlock() {
	p.consumePrefix()
	if p.isBlankLine(p.pos) {
		p.parseBlankLines()
		return
	}
	j := p.pos
	if p.tok(j).Kind() == KindWhitespace {
		j++
	}
	switch p.tok(j).Kind() {
	case KindFenceMarker:
		p.parseCodeBlock()
		return
	case KindMathFence:
		p.parseMathBlock()
		return
	case KindDivMarker:
		if p.depth < maxNestingDepth {
			p.parseFencedDiv()
			return
		}
	case KindCommentOpen:
		p.parseComment()
		return
	case KindHeadingMarker:
		p.parseHeading()
		return
	case KindListMarker:
		if p.lineIsThematicBreak(p.pos) {
			p.parseThematicBreak()
			return
		}
		if p.depth < maxNestingDepth {
			p.parseList()
			return
		}
	case KindQuoteMarker:
		if p.depth < maxNestingDepth {
			p.parseBlockQuote()
			return
		}
	case KindLatexCommand:
		if p.parseLatex(j) {
			return
		}
	}
	if p.lineIsThematicBreak(p.pos) {
		p.parseThematicBreak()
		return
	}
	if p.atTableStart(j) {
		p.parseTable()
		return
	}
	p.parseParagraph()
}

func (p *blockParser) parseFrontmatter() {
	open := p.cur().Text()
	p.b.start(KindFrontmatter)
	p.bumpLine()
	for p.kind() != KindEOF {
		lt := strings.TrimRight(p.lineText(p.pos), " \t\r")
		if lt == open || (open == "---" && lt == "...") {
			p.bumpLine()
			break
		}
		p.bumpLine()
	}
	p.b.finish()
}

func (p *blockParser) parseBlankLines() {
	p.b.start(KindBlankLines)
	p.bumpLine()
	for p.kind() != KindEOF {
		if p.quoteMarkers(p.pos) < p.quoteDepth {
			break
		}
		if !p.isBlankLine(p.afterPrefix(p.pos)) {
			break
		}
		p.consumePrefix()
		p.bumpLine()
	}
	p.b.finish()
}

func (p *blockParser) parseHeading() {
	p.b.start(KindHeading)
	if p.kind() == KindWhitespace {
		p.bump()
	}
	p.bump() // heading marker
	if p.kind() == KindMarkerSpace || p.kind() == KindWhitespace {
		p.bump()
	}
	p.b.start(KindHeadingContent)
	for p.kind() != KindNewline && p.kind() != KindEOF {
		p.bump()
	}
	p.b.finish()
	if p.kind() == KindNewline {
		p.bump()
	}
	p.b.finish()
}

func (p *blockParser) parseCodeBlock() {
	p.b.start(KindCodeBlock)
	p.b.start(KindCodeFenceOpen)
	if p.kind() == KindWhitespace {
		p.bump()
	}
	open := p.cur()
	p.bump()
	p.b.start(KindCodeInfo)
	for p.kind() != KindNewline && p.kind() != KindEOF {
		p.bump()
	}
	p.b.finish()
	if p.kind() == KindNewline {
		p.bump()
	}
	p.b.finish()

	p.b.start(KindCodeContent)
	closed := false
	for p.kind() != KindEOF {
		if p.quoteDepth > 0 && p.quoteMarkers(p.pos) < p.quoteDepth {
			break
		}
		j := p.afterPrefix(p.pos)
		if p.tok(j).Kind() == KindWhitespace {
			j++
		}
		t := p.tok(j)
		if t.Kind() == KindFenceMarker && t.Text()[0] == open.Text()[0] &&
			t.Len() >= open.Len() && p.restBlank(j+1) {
			closed = true
			break
		}
		p.consumePrefix()
		p.bumpLine()
	}
	p.b.finish()

	if closed {
		p.b.start(KindCodeFenceClose)
		p.consumePrefix()
		p.bumpLine()
		p.b.finish()
	}
	p.b.finish()
}

func (p *blockParser) parseFencedDiv() {
	p.depth++
	p.b.start(KindFencedDiv)
	p.b.start(KindDivFenceOpen)
	if p.kind() == KindWhitespace {
		p.bump()
	}
	openLen := p.cur().Len()
	p.bump() // div marker
	p.b.start(KindDivInfo)
	for p.kind() != KindNewline && p.kind() != KindEOF {
		p.bump()
	}
	p.b.finish()
	if p.kind() == KindNewline {
		p.bump()
	}
	p.b.finish()

	p.parseBlocks(func() bool {
		j := p.afterPrefix(p.pos)
		if p.tok(j).Kind() == KindWhitespace {
			j++
		}
		t := p.tok(j)
		return t.Kind() == KindDivMarker && t.Len() >= openLen && p.restBlank(j+1)
	})

	if p.kind() != KindEOF {
		p.b.start(KindDivFenceClose)
		p.consumePrefix()
		p.bumpLine()
		p.b.finish()
	}
	p.depth--
	p.b.finish()
}

func (p *blockParser) parseBlockQuote() {
	p.depth++
	p.b.start(KindBlockQuote)
	p.quoteDepth++
	p.parseBlocks(func() bool {
		return p.quoteMarkers(p.pos) < p.quoteDepth
	})
	p.quoteDepth--
	p.depth--
	p.b.finish()
}

func (p *blockParser) parseMathBlock() {
	p.b.start(KindMathBlock)
	if p.kind() == KindWhitespace {
		p.bump()
	}
	p.bump() // opening $$
	p.b.start(KindMathContent)
	for p.kind() != KindMathFence && p.kind() != KindEOF {
		p.bump()
	}
	p.b.finish()
	if p.kind() == KindMathFence {
		p.bump()
	}
	if !p.restBlank(p.pos) {
		p.b.start(KindMathLabel)
		for p.kind() != KindNewline && p.kind() != KindEOF {
			p.bump()
		}
		p.b.finish()
	}
	p.bumpLine()
	p.b.finish()
}

func (p *blockParser) parseComment() {
	p.b.start(KindHTMLComment)
	if p.kind() == KindWhitespace {
		p.bump()
	}
	p.bump() // <!--
	for p.kind() != KindCommentClose && p.kind() != KindEOF {
		p.bump()
	}
	if p.kind() == KindCommentClose {
		p.bump()
	}
	p.bumpLine()
	p.b.finish()
}

func (p *blockParser) parseThematicBreak() {
	p.b.start(KindThematicBreak)
	p.bumpLine()
	p.b.finish()
}

// parseLatex handles a line beginning with a LaTeX command: either an
// environment (\begin{...} through the matching \end{...}) or a standalone
// command alone on its line. Anything else falls through to paragraph
// parsing.
func (p *blockParser) parseLatex(j int) bool {
	cmd := p.tok(j).Text()
	if env, ok := latexEnvName(cmd); ok {
		p.parseLatexEnv(env)
		return true
	}
	if p.restBlank(j + 1) {
		p.b.start(KindLatexBlock)
		p.bumpLine()
		p.b.finish()
		return true
	}
	return false
}

func (p *blockParser) parseLatexEnv(env string) {
	end := "\\end{" + env + "}"
	p.b.start(KindLatexEnv)
	for p.kind() != KindEOF {
		found := false
		for i, e := p.pos, p.lineEnd(p.pos); i < e; i++ {
			t := p.tok(i)
			if t.Kind() == KindLatexCommand && strings.HasPrefix(t.Text(), end) {
				found = true
				break
			}
		}
		p.consumePrefix()
		p.bumpLine()
		if found {
			break
		}
	}
	p.b.finish()
}

// latexEnvName extracts X from a command of the form \begin{X}...
func latexEnvName(cmd string) (string, bool) {
	const begin = "\\begin{"
	if !strings.HasPrefix(cmd, begin) {
		return "", false
	}
	rest := cmd[len(begin):]
	i := strings.IndexByte(rest, '}')
	if i <= 0 {
		return "", false
	}
	return rest[:i], true
}

// lineIsThematicBreak reports whether the line starting at i holds three or
// more '-', '*', or '_' of one kind and nothing else but whitespace. Spaced
// forms like "* * *" count, except dash lines with wider groups, which read
// as table rules.
func (p *blockParser) lineIsThematicBreak(i int) bool {
	lt := strings.TrimSpace(p.lineText(i))
	if lt == "" {
		return false
	}
	c := lt[0]
	if c != '-' && c != '*' && c != '_' {
		return false
	}
	n, run, maxRun := 0, 0, 0
	for k := 0; k < len(lt); k++ {
		switch lt[k] {
		case c:
			n++
			run++
			if run > maxRun {
				maxRun = run
			}
		case ' ', '\t':
			run = 0
		default:
			return false
		}
	}
	if n < 3 {
		return false
	}
	if c == '-' && maxRun > 1 && maxRun < n {
		return false
	}
	return true
}

// lineIsTableRule reports whether the line starting at i is a Pandoc simple
// table rule: two or more dash groups separated by spaces.
func (p *blockParser) lineIsTableRule(i int) bool {
	lt := strings.TrimSpace(p.lineText(i))
	groups := 0
	inGroup := false
	for k := 0; k < len(lt); k++ {
		switch lt[k] {
		case '-':
			if !inGroup {
				groups++
				inGroup = true
			}
		case ' ', '\t':
			inGroup = false
		default:
			return false
		}
	}
	return groups >= 2
}

// atTableStart reports whether a Pandoc simple table begins at the current
// position: either a rule line (headerless form) or a header line directly
// above one.
func (p *blockParser) atTableStart(j int) bool {
	if p.lineIsTableRule(j) {
		return true
	}
	if p.isBlankLine(p.pos) {
		return false
	}
	next := p.nextLineStart(p.pos)
	if p.tok(next).Kind() == KindEOF {
		return false
	}
	return p.lineIsTableRule(p.afterPrefix(next))
}

func (p *blockParser) parseTable() {
	p.b.start(KindTable)
	for p.kind() != KindEOF {
		if p.quoteMarkers(p.pos) < p.quoteDepth {
			break
		}
		if p.isBlankLine(p.afterPrefix(p.pos)) {
			break
		}
		p.consumePrefix()
		p.bumpLine()
	}
	p.b.finish()
}

func (p *blockParser) parseList() {
	p.depth++
	p.b.start(KindList)
	j := p.pos
	indentW := 0
	if p.tok(j).Kind() == KindWhitespace {
		indentW = indentWidth(p.tok(j).Text())
		j++
	}
	family := markerFamily(p.tok(j).Text())
	for {
		p.parseListItem(indentW)
		if !p.continueList(family, indentW) {
			break
		}
	}
	p.b.finish()
	p.depth--
}

// continueList looks ahead for a sibling item of the same family at the
// same indent, optionally past blank lines. When one is found, the blank
// lines are consumed into the list and the position is left at the item's
// first token (quote prefix consumed).
func (p *blockParser) continueList(family listFamily, indentW int) bool {
	i := p.pos
	sawBlank := false
	for {
		if p.tok(i).Kind() == KindEOF {
			return false
		}
		if p.quoteMarkers(i) < p.quoteDepth {
			return false
		}
		a := p.afterPrefix(i)
		if p.isBlankLine(a) {
			sawBlank = true
			i = p.nextLineStart(a)
			continue
		}
		if p.lineIsThematicBreak(a) {
			return false
		}
		w := 0
		if p.tok(a).Kind() == KindWhitespace {
			w = indentWidth(p.tok(a).Text())
			a++
		}
		if p.tok(a).Kind() != KindListMarker ||
			markerFamily(p.tok(a).Text()) != family || w != indentW {
			return false
		}
		break
	}
	if sawBlank {
		p.consumePrefix()
		p.parseBlankLines()
	}
	p.consumePrefix()
	return true
}

func (p *blockParser) parseListItem(indentW int) {
	p.b.start(KindListItem)
	if p.kind() == KindWhitespace {
		p.bump()
	}
	marker := p.cur()
	p.bump()
	if p.kind() == KindMarkerSpace || p.kind() == KindWhitespace {
		p.bump()
	}
	contentW := indentW + len(marker.Text()) + 1

	// First block begins on the marker line.
	p.parseBlock()

	p.parseBlocks(func() bool { return p.listItemEnds(contentW) })
	p.b.finish()
}

// listItemEnds decides, at a block boundary, whether the upcoming line
// still belongs to the current list item: a line indented to the content
// column continues it, as does a blank run followed by one.
func (p *blockParser) listItemEnds(contentW int) bool {
	i := p.pos
	for {
		if p.tok(i).Kind() == KindEOF {
			return true
		}
		if p.quoteMarkers(i) < p.quoteDepth {
			return true
		}
		a := p.afterPrefix(i)
		if p.isBlankLine(a) {
			i = p.nextLineStart(a)
			continue
		}
		if p.tok(a).Kind() != KindWhitespace {
			return true
		}
		return indentWidth(p.tok(a).Text()) < contentW
	}
}

func (p *blockParser) parseParagraph() {
	p.b.start(KindParagraph)
	for {
		for k := p.kind(); k != KindNewline && k != KindEOF; k = p.kind() {
			p.bump()
		}
		if p.kind() == KindEOF {
			break
		}
		next := p.pos + 1
		j := p.afterPrefix(next)
		if p.tok(next).Kind() == KindEOF || p.isBlankLine(j) {
			p.bump()
			break
		}
		if lvl := p.setextLevel(j); lvl > 0 {
			p.b.wrap(KindHeadingContent)
			p.bump() // newline
			p.consumePrefix()
			p.b.start(KindSetextUnderline)
			p.bumpLine()
			p.b.finish()
			p.b.retype(KindHeading)
			break
		}
		if p.lineStartsBlock(j) {
			p.bump()
			break
		}
		p.bump() // newline
		p.consumePrefix()
	}
	p.b.finish()
}

// setextLevel returns 1 for an '='-underline line, 2 for a '-' one, 0
// otherwise. Mixed content and table rules disqualify the line.
func (p *blockParser) setextLevel(i int) int {
	lt := strings.TrimRight(p.lineText(i), " \t\r")
	lt = strings.TrimLeft(lt, " \t")
	if lt == "" {
		return 0
	}
	c := lt[0]
	if c != '=' && c != '-' {
		return 0
	}
	for k := 1; k < len(lt); k++ {
		if lt[k] != c {
			return 0
		}
	}
	if c == '=' {
		return 1
	}
	if len(lt) >= 2 {
		return 2
	}
	return 0
}

// lineStartsBlock reports whether the line beginning at token index i (its
// quote prefix already skipped) opens a new block, ending any paragraph in
// progress.
func (p *blockParser) lineStartsBlock(i int) bool {
	j := i
	if p.tok(j).Kind() == KindWhitespace {
		j++
	}
	switch p.tok(j).Kind() {
	case KindFenceMarker, KindMathFence, KindDivMarker, KindCommentOpen,
		KindHeadingMarker, KindQuoteMarker:
		return true
	case KindListMarker:
		if p.lineIsThematicBreak(i) {
			return true
		}
		// An empty item cannot interrupt a paragraph.
		return !p.restBlank(j + 1)
	case KindLatexCommand:
		if _, ok := latexEnvName(p.tok(j).Text()); ok {
			return true
		}
		return p.restBlank(j + 1)
	}
	return p.lineIsThematicBreak(i)
}

type listFamily uint8

const (
	bulletList listFamily = iota
	orderedList
)

func markerFamily(marker string) listFamily {
	if marker != "" && marker[0] >= '0' && marker[0] <= '9' {
		return orderedList
	}
	return bulletList
}

// indentWidth measures leading indentation in columns, counting tabs as
// four.
func indentWidth(s string) int {
	w := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\t' {
			w += 4
		} else {
			w++
		}
	}
	return w
}
