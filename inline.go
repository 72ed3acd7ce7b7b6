package quartofmt

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// parseInlines runs the inline pass over a block tree, replacing the raw
// token runs of paragraphs and heading content with inline nodes. The
// rewrite preserves the exact source text of each node.
func parseInlines(n *Node) {
	switch n.kind {
	case KindParagraph, KindHeadingContent:
		n.children = parseInlineText(n.Text())
		return
	case KindCodeContent, KindMathContent, KindFrontmatter, KindHTMLComment,
		KindLatexEnv, KindLatexBlock, KindTable:
		return
	}
	for _, c := range n.children {
		if nd, ok := c.(*Node); ok {
			parseInlines(nd)
		}
	}
}

// iunit is an element of the inline parser's working list: either a
// finished child (token or node) or a pending delimiter run awaiting
// emphasis or bracket resolution.
type iunit struct {
	child Child

	delim    byte // '*', '_', '[' or '!' ("![")
	text     string
	n        int
	canOpen  bool
	canClose bool
	active   bool
}

func tokUnit(kind SyntaxKind, text string) *iunit {
	return &iunit{child: newToken(kind, text)}
}

func nodeUnit(n *Node) *iunit { return &iunit{child: n} }

type inlineParser struct {
	text  string
	pos   int
	units []*iunit
}

// parseInlineText parses one block leaf's inline content. Concatenating
// the text of the returned children reproduces text exactly; anything
// unmatched or malformed stays literal.
func parseInlineText(text string) []Child {
	ip := &inlineParser{text: text}
	ip.run()
	ip.units = processEmphasis(ip.units)
	return finalize(ip.units)
}

func (ip *inlineParser) push(u *iunit) { ip.units = append(ip.units, u) }

func (ip *inlineParser) run() {
	if ip.pos == 0 {
		ip.lexLinePrefix()
	}
	for ip.pos < len(ip.text) {
		c := ip.text[ip.pos]
		switch c {
		case '\n':
			ip.lexNewline("\n")
		case '\r':
			if strings.HasPrefix(ip.text[ip.pos:], "\r\n") {
				ip.lexNewline("\r\n")
			} else {
				ip.lexWhitespace()
			}
		case ' ', '\t':
			ip.lexWhitespace()
		case '`':
			ip.lexCodeSpan()
		case '$':
			ip.lexMath()
		case '*', '_':
			ip.lexEmphasisRun()
		case '[':
			ip.push(&iunit{delim: '[', text: "[", active: true})
			ip.pos++
		case ']':
			ip.resolveBracket()
		case '!':
			if strings.HasPrefix(ip.text[ip.pos:], "![") {
				ip.push(&iunit{delim: '!', text: "![", active: true})
				ip.pos += 2
			} else {
				ip.lexText()
			}
		case '\\':
			ip.lexEscape()
		case '@':
			ip.lexCitation()
		default:
			ip.lexText()
		}
	}
}

const inlineSpecials = "\n\r \t`$*_[]!\\@"

func (ip *inlineParser) lexText() {
	start := ip.pos
	ip.pos++
	for ip.pos < len(ip.text) && strings.IndexByte(inlineSpecials, ip.text[ip.pos]) < 0 {
		ip.pos++
	}
	ip.push(tokUnit(KindText, ip.text[start:ip.pos]))
}

func (ip *inlineParser) lexWhitespace() {
	start := ip.pos
	for ip.pos < len(ip.text) {
		c := ip.text[ip.pos]
		if c == ' ' || c == '\t' {
			ip.pos++
			continue
		}
		if c == '\r' && !strings.HasPrefix(ip.text[ip.pos:], "\r\n") {
			ip.pos++
			continue
		}
		break
	}
	ip.push(tokUnit(KindWhitespace, ip.text[start:ip.pos]))
}

// lexNewline emits the line break, folding two or more trailing spaces into
// a hard break, then consumes the next line's quote prefix.
func (ip *inlineParser) lexNewline(nl string) {
	last := len(ip.units) - 1
	if last >= 0 {
		if t, ok := ip.units[last].child.(Token); ok &&
			t.Kind() == KindWhitespace && strings.Count(t.Text(), " ") >= 2 {
			ip.units[last] = tokUnit(KindHardBreak, t.Text()+nl)
			ip.pos += len(nl)
			ip.lexLinePrefix()
			return
		}
	}
	ip.push(tokUnit(KindNewline, nl))
	ip.pos += len(nl)
	ip.lexLinePrefix()
}

// lexLinePrefix consumes quote markers at the start of a line. Inside a
// quoted paragraph every line-leading '>' is continuation prefix; the block
// parser never lets a quote marker reach a paragraph any other way.
func (ip *inlineParser) lexLinePrefix() {
	for {
		i := ip.pos
		for i < len(ip.text) && (ip.text[i] == ' ' || ip.text[i] == '\t') {
			i++
		}
		if i >= len(ip.text) || ip.text[i] != '>' {
			return
		}
		if i > ip.pos {
			ip.push(tokUnit(KindWhitespace, ip.text[ip.pos:i]))
		}
		ip.push(tokUnit(KindQuoteMarker, ">"))
		ip.pos = i + 1
		if ip.pos < len(ip.text) && ip.text[ip.pos] == ' ' {
			ip.push(tokUnit(KindMarkerSpace, " "))
			ip.pos++
		}
	}
}

func (ip *inlineParser) lexEscape() {
	if ip.pos+1 >= len(ip.text) {
		ip.push(tokUnit(KindText, "\\"))
		ip.pos++
		return
	}
	next := ip.text[ip.pos+1]
	if next == '\n' {
		ip.push(tokUnit(KindHardBreak, "\\\n"))
		ip.pos += 2
		ip.lexLinePrefix()
		return
	}
	_, size := utf8.DecodeRuneInString(ip.text[ip.pos+1:])
	ip.push(tokUnit(KindText, ip.text[ip.pos:ip.pos+1+size]))
	ip.pos += 1 + size
}

// lexCodeSpan matches a backtick run against the next run of exactly the
// same length. Without a match the run is literal text.
func (ip *inlineParser) lexCodeSpan() {
	n := runLen(ip.text[ip.pos:], '`')
	open := ip.text[ip.pos : ip.pos+n]
	rest := ip.text[ip.pos+n:]
	end := findDelimRun(rest, '`', n)
	if end < 0 {
		ip.push(tokUnit(KindText, open))
		ip.pos += n
		return
	}
	children := []Child{newToken(KindCodeDelim, open)}
	children = append(children, inlineSpanContent(rest[:end])...)
	children = append(children, newToken(KindCodeDelim, open))
	ip.push(nodeUnit(&Node{kind: KindInlineCode, children: children}))
	ip.pos += n + end + n
}

// lexMath recognizes $...$ and $$...$$ spans. The opening delimiter must
// touch non-space content on its right and the closing one on its left,
// otherwise the dollars are literal.
func (ip *inlineParser) lexMath() {
	n := runLen(ip.text[ip.pos:], '$')
	open := ip.text[ip.pos : ip.pos+n]
	if n > 2 {
		ip.push(tokUnit(KindText, open))
		ip.pos += n
		return
	}
	rest := ip.text[ip.pos+n:]
	if rest == "" || rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' {
		ip.push(tokUnit(KindText, open))
		ip.pos += n
		return
	}
	end := findDelimRun(rest, '$', n)
	for end > 0 {
		prev := rest[end-1]
		if prev != ' ' && prev != '\t' && prev != '\n' {
			break
		}
		next := findDelimRun(rest[end+n:], '$', n)
		if next < 0 {
			end = -1
			break
		}
		end += n + next
	}
	if end <= 0 {
		ip.push(tokUnit(KindText, open))
		ip.pos += n
		return
	}
	children := []Child{newToken(KindMathDelim, open)}
	children = append(children, inlineSpanContent(rest[:end])...)
	children = append(children, newToken(KindMathDelim, open))
	ip.push(nodeUnit(&Node{kind: KindInlineMath, children: children}))
	ip.pos += n + end + n
}

// inlineSpanContent tokenizes the verbatim interior of a code or math span.
// Line breaks and the quote prefixes of continuation lines become marker
// tokens, so the enclosing quote can reclaim its '>' instead of the span
// swallowing it; everything else stays literal text.
func inlineSpanContent(s string) []Child {
	var out []Child
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			out = append(out, newToken(KindText, s))
			break
		}
		nl := i
		if i > 0 && s[i-1] == '\r' {
			nl = i - 1
		}
		if nl > 0 {
			out = append(out, newToken(KindText, s[:nl]))
		}
		out = append(out, newToken(KindNewline, s[nl:i+1]))
		s = s[i+1:]
		for {
			j := 0
			for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
				j++
			}
			if j >= len(s) || s[j] != '>' {
				break
			}
			if j > 0 {
				out = append(out, newToken(KindWhitespace, s[:j]))
			}
			out = append(out, newToken(KindQuoteMarker, ">"))
			s = s[j+1:]
			if len(s) > 0 && s[0] == ' ' {
				out = append(out, newToken(KindMarkerSpace, " "))
				s = s[1:]
			}
		}
	}
	return out
}

func (ip *inlineParser) lexEmphasisRun() {
	c := ip.text[ip.pos]
	n := runLen(ip.text[ip.pos:], c)
	prev, _ := utf8.DecodeLastRuneInString(ip.text[:ip.pos])
	next, _ := utf8.DecodeRuneInString(ip.text[ip.pos+n:])
	canOpen, canClose := flanking(prev, next, c)
	ip.push(&iunit{
		delim:    c,
		text:     ip.text[ip.pos : ip.pos+n],
		n:        n,
		canOpen:  canOpen,
		canClose: canClose,
	})
	ip.pos += n
}

// flanking implements the CommonMark left/right flanking rules, with the
// underscore intra-word restriction. A zero rune counts as whitespace.
func flanking(prev, next rune, delim byte) (canOpen, canClose bool) {
	prevSpace := prev == 0 || prev == utf8.RuneError || unicode.IsSpace(prev)
	nextSpace := next == 0 || next == utf8.RuneError || unicode.IsSpace(next)
	prevPunct := !prevSpace && isPunct(prev)
	nextPunct := !nextSpace && isPunct(next)

	left := !nextSpace && (!nextPunct || prevSpace || prevPunct)
	right := !prevSpace && (!prevPunct || nextSpace || nextPunct)

	if delim == '_' {
		canOpen = left && (!right || prevPunct)
		canClose = right && (!left || nextPunct)
		return canOpen, canClose
	}
	return left, right
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// lexCitation recognizes a bare @key citation. The '@' must not follow an
// alphanumeric rune, keeping emails and handles-in-words literal.
func (ip *inlineParser) lexCitation() {
	prev, _ := utf8.DecodeLastRuneInString(ip.text[:ip.pos])
	keyLen := 0
	if prev == 0 || prev == utf8.RuneError || !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
		keyLen = citationKeyLen(ip.text[ip.pos+1:])
	}
	if keyLen == 0 {
		ip.push(tokUnit(KindText, "@"))
		ip.pos++
		return
	}
	node := &Node{kind: KindCitation, children: []Child{
		newToken(KindCitationSigil, "@"),
		newToken(KindText, ip.text[ip.pos+1:ip.pos+1+keyLen]),
	}}
	ip.push(nodeUnit(node))
	ip.pos += 1 + keyLen
}

// citationKeyLen measures a citation key: it starts with a letter, digit or
// underscore and continues with alphanumerics and internal punctuation, but
// never ends on punctuation.
func citationKeyLen(s string) int {
	if s == "" || !isKeyStart(s[0]) {
		return 0
	}
	i := 0
	for i < len(s) && isKeyChar(s[i]) {
		i++
	}
	for i > 0 && !isKeyStart(s[i-1]) {
		i--
	}
	return i
}

func isKeyStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isKeyChar(c byte) bool {
	return isKeyStart(c) || strings.IndexByte(":.#$%&-+?<>~/", c) >= 0
}

// resolveBracket handles ']': it finds the nearest active opener and builds
// a link, an image, or a bracketed citation group. With no opener or no
// recognizable body, the brackets stay literal.
func (ip *inlineParser) resolveBracket() {
	opener := -1
	for i := len(ip.units) - 1; i >= 0; i-- {
		u := ip.units[i]
		if (u.delim == '[' || u.delim == '!') && u.child == nil {
			opener = i
			break
		}
	}
	if opener < 0 {
		ip.push(tokUnit(KindText, "]"))
		ip.pos++
		return
	}
	op := ip.units[opener]
	if !op.active {
		op.delim = 0
		op.child = newToken(KindText, op.text)
		ip.push(tokUnit(KindText, "]"))
		ip.pos++
		return
	}

	if tail, ok := parseLinkTail(ip.text[ip.pos+1:]); ok {
		kind, openTok := KindLink, newToken(KindBracketOpen, "[")
		if op.delim == '!' {
			kind, openTok = KindImage, newToken(KindImageBang, "![")
		}
		inner := finalize(processEmphasis(ip.units[opener+1:]))
		textNode := &Node{kind: KindLinkText, children: inner}
		children := []Child{openTok, textNode, newToken(KindBracketClose, "]")}
		children = append(children, tail.children()...)
		node := &Node{kind: kind, children: children}
		ip.units = ip.units[:opener]
		if kind == KindLink {
			for _, u := range ip.units {
				if u.delim == '[' {
					u.active = false
				}
			}
		}
		ip.push(nodeUnit(node))
		ip.pos += 1 + tail.len
		return
	}

	if op.delim == '[' && ip.bracketIsCitation(opener) {
		inner := finalize(ip.units[opener+1:])
		children := []Child{newToken(KindBracketOpen, "[")}
		children = append(children, inner...)
		children = append(children, newToken(KindBracketClose, "]"))
		node := &Node{kind: KindCitationGroup, children: children}
		ip.units = ip.units[:opener]
		ip.push(nodeUnit(node))
		ip.pos++
		return
	}

	op.delim = 0
	op.child = newToken(KindText, op.text)
	ip.push(tokUnit(KindText, "]"))
	ip.pos++
}

// bracketIsCitation reports whether the units since the opener form a
// citation group: the first substantial unit is a citation, optionally
// preceded by a suppress-author dash.
func (ip *inlineParser) bracketIsCitation(opener int) bool {
	for _, u := range ip.units[opener+1:] {
		if u.child == nil {
			continue
		}
		if nd, ok := u.child.(*Node); ok {
			return nd.kind == KindCitation
		}
		if t, ok := u.child.(Token); ok {
			if t.Kind() == KindWhitespace {
				continue
			}
			if t.Kind() == KindText && t.Text() == "-" {
				continue
			}
		}
		return false
	}
	return false
}

// linkTail is the parsed "(dest "title")" portion after link text.
type linkTail struct {
	len   int
	dest  string
	sep   string
	title string
	sep2  string
}

func (t linkTail) children() []Child {
	out := []Child{newToken(KindParenOpen, "(")}
	if t.dest != "" {
		out = append(out, &Node{kind: KindLinkDest,
			children: []Child{newToken(KindText, t.dest)}})
	}
	if t.sep != "" {
		out = append(out, newToken(KindWhitespace, t.sep))
	}
	if t.title != "" {
		out = append(out, &Node{kind: KindLinkTitle,
			children: []Child{newToken(KindText, t.title)}})
	}
	if t.sep2 != "" {
		out = append(out, newToken(KindWhitespace, t.sep2))
	}
	return append(out, newToken(KindParenClose, ")"))
}

// parseLinkTail parses the destination-and-title tail of an inline link,
// starting right after the closing bracket. The destination is either
// <..>-wrapped or a run free of spaces with balanced parentheses; the title
// is quoted with ", ' or parentheses. Newlines make the tail fail, leaving
// the brackets literal.
func parseLinkTail(s string) (linkTail, bool) {
	var t linkTail
	if s == "" || s[0] != '(' {
		return t, false
	}
	i := 1
	destStart := i
	if i < len(s) && s[i] == '<' {
		j := strings.IndexAny(s[i:], ">\n")
		if j < 0 || s[i+j] != '>' {
			return t, false
		}
		i += j + 1
	} else {
		depth := 0
	dest:
		for ; i < len(s); i++ {
			switch s[i] {
			case ' ', '\t':
				break dest
			case '\n', '\r':
				return t, false
			case '(':
				depth++
			case ')':
				if depth == 0 {
					break dest
				}
				depth--
			case '\\':
				if i+1 < len(s) {
					i++
				}
			}
		}
		if depth != 0 {
			return t, false
		}
	}
	t.dest = s[destStart:i]

	sepStart := i
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	t.sep = s[sepStart:i]

	if i < len(s) && (s[i] == '"' || s[i] == '\'' || s[i] == '(') {
		closer := s[i]
		if closer == '(' {
			closer = ')'
		}
		j := i + 1
		for ; j < len(s); j++ {
			if s[j] == '\\' {
				j++
				continue
			}
			if s[j] == closer {
				break
			}
			if s[j] == '\n' {
				return t, false
			}
		}
		if j >= len(s) {
			return t, false
		}
		t.title = s[i : j+1]
		i = j + 1
		sep2Start := i
		for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		t.sep2 = s[sep2Start:i]
	}

	if i >= len(s) || s[i] != ')' {
		return t, false
	}
	t.len = i + 1
	return t, true
}

// processEmphasis resolves '*' and '_' delimiter runs into emphasis and
// strong nodes, closers matched to the nearest valid opener.
func processEmphasis(units []*iunit) []*iunit {
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u.child != nil || (u.delim != '*' && u.delim != '_') || !u.canClose || u.n == 0 {
			continue
		}
		for u.n > 0 {
			opener := -1
			for j := i - 1; j >= 0; j-- {
				o := units[j]
				if o.child != nil || o.delim != u.delim || !o.canOpen || o.n == 0 {
					continue
				}
				// Rule of three: a run that both opens and closes cannot
				// pair when the combined length is a multiple of three,
				// unless both lengths are.
				if (o.canClose || u.canOpen) &&
					(o.n+u.n)%3 == 0 && (o.n%3 != 0 || u.n%3 != 0) {
					continue
				}
				opener = j
				break
			}
			if opener < 0 {
				break
			}
			o := units[opener]
			use := 1
			kind := KindEmphasis
			if o.n >= 2 && u.n >= 2 {
				use = 2
				kind = KindStrong
			}
			marker := u.text[:use]
			inner := finalize(units[opener+1 : i])
			children := make([]Child, 0, len(inner)+2)
			children = append(children, newToken(KindEmphasisMarker, marker))
			children = append(children, inner...)
			children = append(children, newToken(KindEmphasisMarker, marker))
			node := &Node{kind: kind, children: children}

			o.n -= use
			o.text = o.text[:o.n]
			u.n -= use
			u.text = u.text[:u.n]

			rebuilt := make([]*iunit, 0, len(units))
			rebuilt = append(rebuilt, units[:opener]...)
			if o.n > 0 {
				rebuilt = append(rebuilt, o)
			}
			rebuilt = append(rebuilt, nodeUnit(node))
			closerAt := len(rebuilt)
			if u.n > 0 {
				rebuilt = append(rebuilt, u)
			}
			rebuilt = append(rebuilt, units[i+1:]...)
			units = rebuilt
			i = closerAt
			if u.n == 0 {
				// The outer loop resumes right after the new node.
				i = closerAt - 1
			}
		}
	}
	return units
}

// finalize converts a unit list into children, demoting unmatched
// delimiters to literal text.
func finalize(units []*iunit) []Child {
	out := make([]Child, 0, len(units))
	for _, u := range units {
		if u.child != nil {
			out = append(out, u.child)
			continue
		}
		if u.text != "" {
			out = append(out, newToken(KindText, u.text))
		}
	}
	return out
}

func runLen(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}

// findDelimRun returns the offset in s of the first run of exactly n
// consecutive c bytes, or -1.
func findDelimRun(s string, c byte, n int) int {
	for i := 0; i < len(s); {
		if s[i] != c {
			i++
			continue
		}
		run := runLen(s[i:], c)
		if run == n {
			return i
		}
		i += run
	}
	return -1
}
