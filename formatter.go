package quartofmt

import (
	"strings"

	"github.com/clipperhouse/uax29/v2/graphemes"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
)

// formatTree renders a parsed document normalized according to cfg, using
// nl as the line terminator. It is a pure function of its inputs: the tree
// is never mutated, and formatting formatted output is a no-op.
func formatTree(doc *Node, cfg Config, nl string) string {
	f := &formatter{cfg: cfg, nl: nl}
	f.blockSeq(doc.Nodes())
	return f.sb.String()
}

// container is one level of line prefix: a block quote marker or a list
// item's hanging indent. The first line of a list item carries the marker;
// every following line gets spaces of the same width.
type container struct {
	first     string
	rest      string
	firstUsed bool
}

type formatter struct {
	cfg Config
	nl  string
	sb  strings.Builder

	stack      []*container
	quoteDepth int
	wrote      bool
}

func (f *formatter) push(c *container) { f.stack = append(f.stack, c) }

func (f *formatter) pop() { f.stack = f.stack[:len(f.stack)-1] }

// prefix assembles the current line prefix, consuming first-line markers.
func (f *formatter) prefix() string {
	var sb strings.Builder
	for _, c := range f.stack {
		if c.firstUsed {
			sb.WriteString(c.rest)
		} else {
			sb.WriteString(c.first)
			c.firstUsed = true
		}
	}
	return sb.String()
}

// avail returns the content width left of the wrap column.
func (f *formatter) avail() int {
	w := 0
	for _, c := range f.stack {
		w += ansi.PrintableRuneWidth(c.rest)
	}
	if n := f.cfg.LineWidth - w; n > 1 {
		return n
	}
	return 1
}

// line writes one output line under the current prefix, trimming trailing
// whitespace.
func (f *formatter) line(s string) {
	f.lineRaw(strings.TrimRight(s, " \t"))
}

// lineRaw writes one output line without trimming (code, hard breaks).
func (f *formatter) lineRaw(s string) {
	out := f.prefix() + s
	if s == "" {
		out = strings.TrimRight(out, " \t")
	}
	f.sb.WriteString(out)
	f.sb.WriteString(f.nl)
	f.wrote = true
}

// blank writes the separator line between blocks.
func (f *formatter) blank() { f.lineRaw("") }

// indentCols is the list indentation, in columns, that verbatim content
// was carrying in the source and that the prefix now provides instead.
func (f *formatter) indentCols() int {
	n := 0
	for _, c := range f.stack {
		if strings.TrimSpace(c.rest) == "" {
			n += len(c.rest)
		}
	}
	return n
}

// blockSeq renders sibling blocks with exactly one blank line between
// them. BlankLines nodes only mark separation and emit nothing themselves;
// a list written tight against its paragraph stays tight.
func (f *formatter) blockSeq(blocks []*Node) {
	var prev *Node
	sawBlank := false
	for _, b := range blocks {
		if b.kind == KindBlankLines {
			sawBlank = true
			continue
		}
		if prev != nil && (sawBlank || !tightPair(prev.kind, b.kind)) {
			f.blank()
		}
		f.block(b)
		prev = b
		sawBlank = false
	}
	if prev == nil && len(f.stack) > 0 {
		// An empty container still owns its marker line.
		f.line("")
	}
}

// tightPair reports block pairs that keep their tight source layout when no
// blank line separates them, such as a sublist right under its item text.
func tightPair(prev, cur SyntaxKind) bool {
	return prev == KindParagraph && cur == KindList
}

func (f *formatter) block(n *Node) {
	switch n.kind {
	case KindParagraph:
		f.paragraph(n)
	case KindHeading:
		f.heading(n)
	case KindCodeBlock:
		f.codeBlock(n)
	case KindFencedDiv:
		f.fencedDiv(n)
	case KindBlockQuote:
		f.blockQuote(n)
	case KindList:
		f.list(n)
	case KindMathBlock:
		f.mathBlock(n)
	case KindThematicBreak:
		f.line("***")
	case KindFrontmatter, KindHTMLComment, KindLatexEnv, KindLatexBlock, KindTable:
		f.verbatim(n)
	default:
		f.verbatim(n)
	}
}

// verbatim re-emits a block exactly as written, with structural prefixes
// (quote markers, list indentation) stripped and re-applied.
func (f *formatter) verbatim(n *Node) {
	for _, ln := range splitLines(f.strippedText(n)) {
		f.lineRaw(ln)
	}
}

// strippedText reconstructs a node's source text minus the per-line quote
// markers and list indentation the surrounding containers re-emit. The
// stripping is by token kind, never by re-scanning characters.
func (f *formatter) strippedText(n *Node) string {
	var sb strings.Builder
	st := stripState{
		markers: f.quoteDepth, cols: f.indentCols(),
		maxMarkers: f.quoteDepth, maxCols: f.indentCols(),
		atStart: true,
	}
	stripTokens(n, &st, &sb)
	return sb.String()
}

type stripState struct {
	markers    int // quote markers still to drop on this line
	cols       int // indent columns still to drop on this line
	atStart    bool
	maxMarkers int
	maxCols    int
}

func stripTokens(n *Node, st *stripState, sb *strings.Builder) {
	for _, c := range n.children {
		if nd, ok := c.(*Node); ok {
			stripTokens(nd, st, sb)
			continue
		}
		t := c.(Token)
		switch t.Kind() {
		case KindNewline:
			sb.WriteString("\n")
			st.markers, st.cols = st.maxMarkers, st.maxCols
			st.atStart = true
		case KindQuoteMarker:
			if st.atStart && st.markers > 0 {
				st.markers--
				continue
			}
			sb.WriteString(t.Text())
			st.atStart = false
		case KindMarkerSpace:
			if st.atStart && st.markers < st.maxMarkers {
				continue
			}
			sb.WriteString(t.Text())
		case KindWhitespace:
			text := t.Text()
			for st.atStart && st.cols > 0 && text != "" {
				w := 1
				if text[0] == '\t' {
					w = 4
				}
				if w > st.cols {
					break
				}
				st.cols -= w
				text = text[1:]
			}
			sb.WriteString(text)
		case KindEOF:
		default:
			sb.WriteString(t.Text())
			st.atStart = false
		}
	}
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

func (f *formatter) blockQuote(n *Node) {
	f.push(&container{first: "> ", rest: "> ", firstUsed: true})
	f.quoteDepth++
	f.blockSeq(n.Nodes())
	f.quoteDepth--
	f.pop()
}

func (f *formatter) fencedDiv(n *Node) {
	open := n.FirstNode(KindDivFenceOpen)
	marker := ":::"
	info := ""
	if open != nil {
		if t, ok := open.FirstToken(KindDivMarker); ok {
			marker = t.Text()
		}
		if in := open.FirstNode(KindDivInfo); in != nil {
			info = strings.TrimSpace(in.Text())
		}
	}
	line := marker
	if info != "" {
		line += " " + info
	}
	f.line(line)
	f.blank()

	var inner []*Node
	for _, nd := range n.Nodes() {
		if nd.kind != KindDivFenceOpen && nd.kind != KindDivFenceClose {
			inner = append(inner, nd)
		}
	}
	f.blockSeq(inner)

	f.blank()
	f.line(marker)
}

func (f *formatter) list(n *Node) {
	items := n.Nodes()
	pendingBlank := false
	first := true
	for _, it := range items {
		if it.kind == KindBlankLines {
			pendingBlank = true
			continue
		}
		if it.kind != KindListItem {
			continue
		}
		if !first && pendingBlank {
			f.blank()
		}
		f.listItem(it)
		pendingBlank = false
		first = false
	}
}

func (f *formatter) listItem(n *Node) {
	marker := "-"
	if t, ok := n.FirstToken(KindListMarker); ok {
		marker = t.Text()
	}
	hang := strings.Repeat(" ", ansi.PrintableRuneWidth(marker)+1)
	f.push(&container{first: marker + " ", rest: hang})
	f.blockSeq(n.Nodes())
	f.pop()
}

func (f *formatter) heading(n *Node) {
	level := 1
	if t, ok := n.FirstToken(KindHeadingMarker); ok {
		level = len(t.Text())
	} else if u := n.FirstNode(KindSetextUnderline); u != nil {
		if strings.HasPrefix(strings.TrimSpace(u.Text()), "-") {
			level = 2
		}
	}
	content := ""
	if c := n.FirstNode(KindHeadingContent); c != nil {
		content = renderInlineString(c.children)
	}
	content = trimClosingHashes(content)
	f.line(strings.TrimRight(strings.Repeat("#", level)+" "+content, " "))
}

// trimClosingHashes removes an ATX closing sequence: a trailing run of '#'
// separated from the content by a space.
func trimClosingHashes(s string) string {
	t := strings.TrimRight(s, "#")
	if t == s || !strings.HasSuffix(t, " ") {
		return s
	}
	return strings.TrimRight(t, " ")
}

func (f *formatter) codeBlock(n *Node) {
	open := n.FirstNode(KindCodeFenceOpen)
	ch, openLen, info := byte('`'), 3, ""
	if open != nil {
		if t, ok := open.FirstToken(KindFenceMarker); ok {
			ch, openLen = t.Text()[0], t.Len()
		}
		if in := open.FirstNode(KindCodeInfo); in != nil {
			info = strings.TrimSpace(in.Text())
		}
	}
	content := ""
	if c := n.FirstNode(KindCodeContent); c != nil {
		content = f.strippedText(c)
	}
	fence := strings.Repeat(string(ch), fenceLen(content, ch, openLen))
	f.lineRaw(fence + info)
	if content != "" {
		for _, ln := range splitLines(content) {
			f.lineRaw(ln)
		}
	}
	f.lineRaw(fence)
}

// fenceLen picks a fence length strictly longer than any run of the fence
// character inside the content, never shorter than the original opening.
func fenceLen(content string, ch byte, openLen int) int {
	n := 3
	if openLen > n {
		n = openLen
	}
	run := 0
	for i := 0; i < len(content); i++ {
		if content[i] == ch {
			run++
			if run >= n {
				n = run + 1
			}
		} else {
			run = 0
		}
	}
	return n
}

func (f *formatter) mathBlock(n *Node) {
	content := ""
	if c := n.FirstNode(KindMathContent); c != nil {
		content = f.strippedText(c)
	}
	label := ""
	if l := n.FirstNode(KindMathLabel); l != nil {
		label = strings.TrimSpace(l.Text())
	}
	closing := "$$"
	if label != "" {
		closing += " " + label
	}
	// The content node covers the rest of the opening fence's line, so a
	// display block starts with that line's break.
	content = strings.TrimPrefix(strings.TrimPrefix(content, "\r"), "\n")
	if !strings.Contains(content, "\n") {
		f.line("$$" + content + closing)
		return
	}
	f.line("$$")
	indent := strings.Repeat(" ", f.cfg.MathIndent)
	for _, ln := range splitLines(content) {
		if f.cfg.MathIndent > 0 {
			ln = indent + strings.TrimLeft(ln, " \t")
		}
		f.lineRaw(ln)
	}
	f.line(closing)
}

// span is a unit of paragraph reflow. Atomic spans (inline code, math,
// links, citations) are placed whole; breakBefore records whether
// whitespace separated it from the previous span in the source.
type span struct {
	text        string
	atomic      bool
	hardBreak   bool
	breakBefore bool
}

func (f *formatter) paragraph(n *Node) {
	if f.cfg.Wrap == WrapOff {
		for _, ln := range splitLines(f.strippedText(n)) {
			f.lineRaw(ln)
		}
		return
	}
	spans := buildSpans(n.children)
	f.writeSpans(spans)
}

// buildSpans flattens inline children into reflow spans. Adjacent children
// with no whitespace between them fuse into one unbreakable span; emphasis
// contributes its delimiters around its inner spans so its content still
// reflows.
func buildSpans(children []Child) []span {
	var spans []span
	var cur strings.Builder
	curAtomic := false
	pendingBreak := false
	haveCur := false

	flush := func() {
		if haveCur {
			spans = append(spans, span{
				text:        cur.String(),
				atomic:      curAtomic,
				breakBefore: pendingBreak,
			})
			cur.Reset()
			curAtomic = false
			pendingBreak = false
			haveCur = false
		}
	}
	sep := func() {
		flush()
		pendingBreak = true
	}
	add := func(text string, atomic bool) {
		if text == "" {
			return
		}
		cur.WriteString(text)
		curAtomic = curAtomic || atomic
		haveCur = true
	}

	for _, c := range children {
		switch x := c.(type) {
		case Token:
			switch x.Kind() {
			case KindWhitespace, KindNewline, KindQuoteMarker, KindMarkerSpace:
				sep()
			case KindHardBreak:
				flush()
				spans = append(spans, span{hardBreak: true})
				pendingBreak = false
			case KindEOF:
			default:
				add(x.Text(), false)
			}
		case *Node:
			switch x.kind {
			case KindInlineCode, KindInlineMath:
				add(collapseAtomic(x), true)
			case KindLink, KindImage:
				add(renderLink(x), true)
			case KindCitation, KindCitationGroup:
				add(collapseAtomic(x), true)
			case KindEmphasis, KindStrong:
				marker, _ := x.FirstToken(KindEmphasisMarker)
				add(marker.Text(), false)
				inner := buildSpans(innerChildren(x))
				for i, s := range inner {
					if s.hardBreak {
						continue
					}
					if i > 0 && s.breakBefore {
						sep()
					}
					add(s.text, s.atomic)
				}
				add(marker.Text(), false)
			default:
				add(collapseLines(x.Text()), false)
			}
		}
	}
	flush()
	return spans
}

// innerChildren returns an emphasis node's children without the delimiter
// tokens at either end.
func innerChildren(n *Node) []Child {
	cs := n.children
	if len(cs) >= 2 {
		return cs[1 : len(cs)-1]
	}
	return nil
}

// renderLink rebuilds a link or image as a single atomic span, with its
// text reflow-collapsed to single spaces.
func renderLink(n *Node) string {
	var sb strings.Builder
	for _, c := range n.children {
		switch x := c.(type) {
		case Token:
			switch x.Kind() {
			case KindWhitespace:
				sb.WriteString(" ")
			default:
				sb.WriteString(x.Text())
			}
		case *Node:
			if x.kind == KindLinkText {
				sb.WriteString(renderInlineString(x.children))
			} else {
				sb.WriteString(collapseLines(x.Text()))
			}
		}
	}
	return sb.String()
}

// renderInlineString renders inline children to a single line, whitespace
// runs collapsed to single spaces.
func renderInlineString(children []Child) string {
	var sb strings.Builder
	for i, s := range buildSpans(children) {
		if s.hardBreak {
			continue
		}
		if i > 0 && s.breakBefore {
			sb.WriteString(" ")
		}
		sb.WriteString(s.text)
	}
	return strings.TrimSpace(sb.String())
}

// collapseLines joins a multi-line inline span onto one line.
func collapseLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

// collapseAtomic joins an atomic inline span onto one line: each line break
// becomes a single space and the quote prefix of a continuation line is
// dropped, so the markers stay with the quote rather than the span.
func collapseAtomic(n *Node) string {
	var sb strings.Builder
	prefix := false
	var walk func(*Node)
	walk = func(n *Node) {
		for _, c := range n.children {
			if nd, ok := c.(*Node); ok {
				walk(nd)
				continue
			}
			t := c.(Token)
			switch t.Kind() {
			case KindNewline, KindHardBreak:
				sb.WriteString(" ")
				prefix = true
			case KindQuoteMarker, KindMarkerSpace:
			case KindWhitespace:
				if !prefix {
					sb.WriteString(t.Text())
				}
			default:
				sb.WriteString(t.Text())
				prefix = false
			}
		}
	}
	walk(n)
	return sb.String()
}

// writeSpans greedily fills lines up to the available width. A span that
// cannot fit on a fresh line overflows in soft mode; in hard mode plain
// text splits at grapheme cluster boundaries, while atomic spans still
// overflow whole.
func (f *formatter) writeSpans(spans []span) {
	width := f.avail()
	var line strings.Builder
	lineW := 0

	flush := func() {
		if lineW > 0 {
			f.line(line.String())
			line.Reset()
			lineW = 0
		}
	}

	for _, s := range spans {
		if s.hardBreak {
			if lineW > 0 {
				f.lineRaw(line.String() + "  ")
				line.Reset()
				lineW = 0
			}
			continue
		}
		w := ansi.PrintableRuneWidth(s.text)
		sep := 0
		if lineW > 0 && s.breakBefore {
			sep = 1
		}
		if lineW > 0 && s.breakBefore && lineW+sep+w > width && !unsafeLineStart(s.text) {
			flush()
			sep = 0
		}
		if w > width && lineW == 0 && !s.atomic && f.cfg.Wrap == WrapHard {
			f.hardSplit(s.text, width, &line, &lineW)
			continue
		}
		if sep == 1 {
			line.WriteString(" ")
			lineW++
		}
		line.WriteString(s.text)
		lineW += w
	}
	flush()
}

// unsafeLineStart reports whether a reflowed paragraph word would read as a
// block marker if it opened a line: setext underlines, thematic breaks,
// fences, list markers and the like. Such words stay on the current line
// even past the wrap column, so reformatting sees the same paragraph.
func unsafeLineStart(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	solid := true
	for i := 1; i < len(s); i++ {
		if s[i] != c {
			solid = false
			break
		}
	}
	if solid {
		switch c {
		case '-', '=', '*', '+', '>':
			return true
		case '_', '`', '~', ':':
			return len(s) >= 3
		case '#':
			return len(s) <= 6
		case '$':
			return len(s) == 2
		}
	}
	if c >= '0' && c <= '9' {
		return orderedMarkerLen(s+" ") == len(s)
	}
	if strings.HasPrefix(s, "<!--") {
		return true
	}
	return len(s) >= 2 && s[0] == '\\' && isASCIILetter(s[1])
}

// hardSplit breaks an overlong word at grapheme cluster boundaries, never
// inside a cluster. A cluster wider than the whole line overflows.
func (f *formatter) hardSplit(word string, width int, line *strings.Builder, lineW *int) {
	segs := graphemes.FromString(word)
	for segs.Next() {
		cl := segs.Value()
		w := runewidth.StringWidth(cl)
		if *lineW > 0 && *lineW+w > width {
			f.line(line.String())
			line.Reset()
			*lineW = 0
		}
		line.WriteString(cl)
		*lineW += w
	}
}
