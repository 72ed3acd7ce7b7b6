package quartofmt

import "strings"

// Child is an element of a node's child list: either a Token or a *Node.
// Children appear in source order, and concatenating their Text in order
// reproduces the exact source slice the parent covers.
type Child interface {
	Kind() SyntaxKind
	Text() string

	writeText(sb *strings.Builder)
}

// Token is a leaf of the syntax tree: a classified, contiguous slice of the
// source text. Tokens carry their exact text, so the tree is lossless even
// for input the parser did not understand.
type Token struct {
	kind SyntaxKind
	text string
}

func newToken(kind SyntaxKind, text string) Token {
	return Token{kind: kind, text: text}
}

// Kind returns the token's classification.
func (t Token) Kind() SyntaxKind { return t.kind }

// Text returns the exact source text the token covers.
func (t Token) Text() string { return t.text }

// Len returns the byte length of the token text.
func (t Token) Len() int { return len(t.text) }

func (t Token) writeText(sb *strings.Builder) { sb.WriteString(t.text) }

// Node is an interior element of the syntax tree. Its text is defined as
// the concatenation of its children's text.
type Node struct {
	kind     SyntaxKind
	children []Child
}

// Kind returns the node's classification.
func (n *Node) Kind() SyntaxKind { return n.kind }

// Children returns the node's child list in source order. The returned
// slice is owned by the node and must not be modified.
func (n *Node) Children() []Child { return n.children }

// Text returns the exact source slice the node covers.
func (n *Node) Text() string {
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n *Node) writeText(sb *strings.Builder) {
	for _, c := range n.children {
		c.writeText(sb)
	}
}

// FirstNode returns the first direct child node of the given kind, or nil.
func (n *Node) FirstNode(kind SyntaxKind) *Node {
	for _, c := range n.children {
		if nd, ok := c.(*Node); ok && nd.kind == kind {
			return nd
		}
	}
	return nil
}

// FirstToken returns the first direct child token of the given kind.
func (n *Node) FirstToken(kind SyntaxKind) (Token, bool) {
	for _, c := range n.children {
		if t, ok := c.(Token); ok && t.kind == kind {
			return t, true
		}
	}
	return Token{}, false
}

// Nodes returns the direct child nodes, skipping tokens.
func (n *Node) Nodes() []*Node {
	var out []*Node
	for _, c := range n.children {
		if nd, ok := c.(*Node); ok {
			out = append(out, nd)
		}
	}
	return out
}

// treeBuilder assembles a syntax tree bottom-up. start opens a node that
// becomes the parent of everything emitted until the matching finish.
type treeBuilder struct {
	stack []*Node
}

func newTreeBuilder(root SyntaxKind) *treeBuilder {
	return &treeBuilder{stack: []*Node{{kind: root}}}
}

func (b *treeBuilder) start(kind SyntaxKind) {
	b.stack = append(b.stack, &Node{kind: kind})
}

func (b *treeBuilder) finish() {
	last := len(b.stack) - 1
	done := b.stack[last]
	b.stack = b.stack[:last]
	b.attach(done)
}

// retype changes the kind of the innermost open node. Used when a block's
// real kind is only known after some of its children have been consumed,
// such as a paragraph promoted to a setext heading.
func (b *treeBuilder) retype(kind SyntaxKind) {
	b.stack[len(b.stack)-1].kind = kind
}

// wrap moves everything collected so far in the innermost open node into a
// fresh child node of the given kind.
func (b *treeBuilder) wrap(kind SyntaxKind) {
	top := b.stack[len(b.stack)-1]
	inner := &Node{kind: kind, children: top.children}
	top.children = []Child{inner}
}

func (b *treeBuilder) token(t Token) {
	if t.text == "" && t.kind != KindEOF {
		return
	}
	b.attachToken(t)
}

func (b *treeBuilder) attachToken(t Token) {
	top := b.stack[len(b.stack)-1]
	top.children = append(top.children, t)
}

func (b *treeBuilder) attach(c Child) {
	top := b.stack[len(b.stack)-1]
	top.children = append(top.children, c)
}

// result closes any nodes left open and returns the root.
func (b *treeBuilder) result() *Node {
	for len(b.stack) > 1 {
		b.finish()
	}
	return b.stack[0]
}
