package quartofmt

import "strings"

// lexer turns source text into a flat token stream. Concatenating the text
// of every token reproduces the input byte for byte.
//
// Block markers ('#', fences, '>', list bullets, ':::', '$$') are only
// recognized at the start of a logical line: position zero, right after a
// newline, after leading whitespace on the line, or after quote and list
// markers already consumed on the line. The same characters anywhere else
// lex as plain text; the inline pass gives them meaning later.
type lexer struct {
	src       string
	pos       int
	lineStart bool
	tokens    []Token
}

func lex(src string) []Token {
	l := &lexer{src: src, lineStart: true}
	for l.pos < len(l.src) {
		start := l.pos
		l.next()
		if l.pos == start {
			// Catch-all forward progress: consume one byte as text.
			l.emitText(l.src[l.pos : l.pos+1])
			l.pos++
		}
	}
	l.emit(KindEOF, "")
	return l.tokens
}

func (l *lexer) emit(kind SyntaxKind, text string) {
	l.tokens = append(l.tokens, newToken(kind, text))
	switch kind {
	case KindNewline:
		l.lineStart = true
	case KindWhitespace, KindQuoteMarker, KindListMarker, KindMarkerSpace, KindEOF:
		// Whitespace and consumed block markers keep the marker position
		// open so nested markers on the same line are still recognized.
	default:
		l.lineStart = false
	}
}

func (l *lexer) emitText(text string) { l.emit(KindText, text) }

// markerSpace emits the single space following a block marker, if present.
func (l *lexer) markerSpace() {
	if l.pos < len(l.src) && l.src[l.pos] == ' ' {
		l.emit(KindMarkerSpace, " ")
		l.pos++
	}
}

func (l *lexer) rest() string { return l.src[l.pos:] }

func (l *lexer) next() {
	c := l.src[l.pos]

	switch {
	case c == '\n':
		l.emit(KindNewline, "\n")
		l.pos++
		return
	case c == '\r' && strings.HasPrefix(l.rest(), "\r\n"):
		l.emit(KindNewline, "\r\n")
		l.pos += 2
		return
	case c == ' ' || c == '\t' || c == '\r':
		l.lexWhitespace()
		return
	}

	if l.lineStart {
		if l.lexMarker(c) {
			return
		}
	}

	if c == '$' {
		// "$$" delimits math blocks anywhere on a line, so one-line math
		// like "$$x$$" keeps its closing fence addressable. Any other
		// dollar run is plain text for the inline pass.
		n := l.runLength('$')
		if n == 2 {
			l.emit(KindMathFence, "$$")
		} else {
			l.emitText(l.src[l.pos : l.pos+n])
		}
		l.pos += n
		return
	}

	if strings.HasPrefix(l.rest(), "-->") {
		l.emit(KindCommentClose, "-->")
		l.pos += 3
		return
	}

	l.lexText()
}

func (l *lexer) lexWhitespace() {
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' {
			l.pos++
			continue
		}
		if c == '\r' && !strings.HasPrefix(l.rest(), "\r\n") {
			l.pos++
			continue
		}
		break
	}
	l.emit(KindWhitespace, l.src[start:l.pos])
}

// lexMarker recognizes block markers at a line-start position. It reports
// whether a token was produced.
func (l *lexer) lexMarker(c byte) bool {
	switch c {
	case '#':
		n := l.runLength('#')
		if n <= 6 && l.boundaryAt(l.pos+n) {
			l.emit(KindHeadingMarker, l.src[l.pos:l.pos+n])
			l.pos += n
			l.markerSpace()
			return true
		}
	case '`', '~':
		n := l.runLength(c)
		if n >= 3 {
			l.emit(KindFenceMarker, l.src[l.pos:l.pos+n])
			l.pos += n
			return true
		}
	case ':':
		n := l.runLength(':')
		if n >= 3 {
			l.emit(KindDivMarker, l.src[l.pos:l.pos+n])
			l.pos += n
			return true
		}
	case '>':
		l.emit(KindQuoteMarker, ">")
		l.pos++
		l.markerSpace()
		return true
	case '-', '+', '*':
		if l.listMarkerBoundary(l.pos + 1) {
			l.emit(KindListMarker, l.src[l.pos:l.pos+1])
			l.pos++
			l.markerSpace()
			return true
		}
	case '<':
		if strings.HasPrefix(l.rest(), "<!--") {
			l.emit(KindCommentOpen, "<!--")
			l.pos += 4
			return true
		}
	case '\\':
		if n := latexCommandLen(l.rest()); n > 0 {
			l.emit(KindLatexCommand, l.src[l.pos:l.pos+n])
			l.pos += n
			return true
		}
	}

	if c >= '0' && c <= '9' {
		if n := orderedMarkerLen(l.rest()); n > 0 {
			l.emit(KindListMarker, l.src[l.pos:l.pos+n])
			l.pos += n
			l.markerSpace()
			return true
		}
	}

	if l.pos == 0 {
		if n := frontmatterDelimLen(l.src); n > 0 {
			l.emit(KindFrontmatterDelim, l.src[:n])
			l.pos = n
			return true
		}
	}

	return false
}

func (l *lexer) lexText() {
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == '\n' || c == '\r' || c == ' ' || c == '\t' || c == '$' {
			break
		}
		if c == '-' && strings.HasPrefix(l.rest(), "-->") {
			break
		}
		l.pos++
	}
	if l.pos > start {
		l.emitText(l.src[start:l.pos])
	}
}

// runLength counts how many times c repeats starting at the current
// position.
func (l *lexer) runLength(c byte) int {
	n := 0
	for l.pos+n < len(l.src) && l.src[l.pos+n] == c {
		n++
	}
	return n
}

// listMarkerBoundary reports whether position i can follow a list marker: a
// space starts the item's content, a line end or EOF leaves the item empty.
func (l *lexer) listMarkerBoundary(i int) bool {
	if i >= len(l.src) {
		return true
	}
	c := l.src[i]
	return c == ' ' || c == '\n' || (c == '\r' && strings.HasPrefix(l.src[i:], "\r\n"))
}

// boundaryAt reports whether position i is a space, tab, line end, or EOF.
func (l *lexer) boundaryAt(i int) bool {
	if i >= len(l.src) {
		return true
	}
	c := l.src[i]
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// orderedMarkerLen returns the length of an ordered list marker (digits
// followed by '.' or ')', then a space or line end) at the start of s, or 0.
func orderedMarkerLen(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i > 9 {
		return 0
	}
	if i >= len(s) || (s[i] != '.' && s[i] != ')') {
		return 0
	}
	if i+1 >= len(s) {
		return i + 1
	}
	switch s[i+1] {
	case ' ', '\n':
		return i + 1
	case '\r':
		if strings.HasPrefix(s[i+1:], "\r\n") {
			return i + 1
		}
	}
	return 0
}

// frontmatterDelimLen returns the length of a frontmatter delimiter line
// ("---" or "+++" alone on the first line) at the start of s, or 0.
func frontmatterDelimLen(s string) int {
	var d byte
	switch {
	case strings.HasPrefix(s, "---"):
		d = '-'
	case strings.HasPrefix(s, "+++"):
		d = '+'
	default:
		return 0
	}
	if len(s) > 3 && s[3] == d {
		return 0
	}
	rest := s[3:]
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case ' ', '\t', '\r':
			continue
		case '\n':
			return 3
		default:
			return 0
		}
	}
	return 3
}

// latexCommandLen returns the length of a LaTeX command (backslash, letters,
// then any number of single-line [..] or {..} argument groups) at the start
// of s, or 0 if s does not begin one.
func latexCommandLen(s string) int {
	if len(s) < 2 || s[0] != '\\' || !isASCIILetter(s[1]) {
		return 0
	}
	i := 1
	for i < len(s) && isASCIILetter(s[i]) {
		i++
	}
	for i < len(s) && (s[i] == '{' || s[i] == '[') {
		open, closer := s[i], byte('}')
		if open == '[' {
			closer = ']'
		}
		depth := 0
		j := i
	group:
		for ; j < len(s); j++ {
			switch s[j] {
			case open:
				depth++
			case closer:
				depth--
				if depth == 0 {
					j++
					break group
				}
			case '\n':
				return i
			}
		}
		if depth != 0 {
			return i
		}
		i = j
	}
	return i
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
