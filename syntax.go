package quartofmt

// SyntaxKind classifies every token and node in the concrete syntax tree.
// Token kinds and node kinds share one enumeration so that a tree element
// can be inspected uniformly through the Child interface.
type SyntaxKind uint8

const (
	// KindError marks input the tokenizer could not classify. It still
	// carries the raw text, so the tree remains lossless.
	KindError SyntaxKind = iota
	// KindEOF is the final zero-length token of every token stream.
	KindEOF

	// Block-level token kinds.

	// KindNewline is a line terminator, either "\n" or "\r\n". The text
	// preserves which form appeared in the source.
	KindNewline
	// KindWhitespace is a run of spaces and tabs (and stray carriage
	// returns not followed by a newline).
	KindWhitespace
	// KindText is any run of characters with no structural meaning at the
	// current position.
	KindText
	// KindHeadingMarker is a run of 1-6 '#' at the start of a line.
	KindHeadingMarker
	// KindFenceMarker is a run of three or more backticks or tildes at the
	// start of a line.
	KindFenceMarker
	// KindDivMarker is a run of three or more colons at the start of a line.
	KindDivMarker
	// KindMathFence is "$$" at the start of a line.
	KindMathFence
	// KindQuoteMarker is '>' at the start of a line (or following other
	// quote markers).
	KindQuoteMarker
	// KindListMarker is a bullet ('-', '+', '*') or an ordered marker
	// (digits followed by '.' or ')'), in both cases followed by a space.
	KindListMarker
	// KindMarkerSpace is the single space that separates a block marker
	// from the content after it.
	KindMarkerSpace
	// KindFrontmatterDelim is "---" or "+++" at the very start of the
	// document, or the matching closer of an open frontmatter block.
	KindFrontmatterDelim
	// KindCommentOpen is "<!--" at the start of a line.
	KindCommentOpen
	// KindCommentClose is "-->".
	KindCommentClose
	// KindLatexCommand is a backslash command such as \newpage or
	// \begin{center}, including bracket and brace argument groups.
	KindLatexCommand

	// Inline token kinds, produced by the inline pass.

	// KindCodeDelim is a backtick run delimiting an inline code span.
	KindCodeDelim
	// KindMathDelim is a '$' or "$$" delimiting an inline math span.
	KindMathDelim
	// KindEmphasisMarker is a '*' or '_' run opening or closing emphasis.
	KindEmphasisMarker
	// KindBracketOpen is '[' starting link text or a citation group.
	KindBracketOpen
	// KindBracketClose is ']'.
	KindBracketClose
	// KindImageBang is the '!' before a '[' that starts an image.
	KindImageBang
	// KindParenOpen is '(' starting a link destination.
	KindParenOpen
	// KindParenClose is ')'.
	KindParenClose
	// KindCitationSigil is the '@' introducing a citation key.
	KindCitationSigil
	// KindHardBreak is a hard line break: two or more trailing spaces plus
	// the newline, or a backslash plus the newline.
	KindHardBreak

	// Block-level node kinds.

	KindDocument
	KindFrontmatter
	KindHeading
	KindHeadingContent
	KindSetextUnderline
	KindParagraph
	KindCodeBlock
	KindCodeFenceOpen
	KindCodeInfo
	KindCodeContent
	KindCodeFenceClose
	KindFencedDiv
	KindDivFenceOpen
	KindDivInfo
	KindDivFenceClose
	KindList
	KindListItem
	KindBlockQuote
	KindMathBlock
	KindMathContent
	KindMathLabel
	KindThematicBreak
	KindBlankLines
	KindHTMLComment
	KindLatexEnv
	KindLatexBlock
	KindTable

	// Inline node kinds.

	KindEmphasis
	KindStrong
	KindInlineCode
	KindInlineMath
	KindLink
	KindImage
	KindLinkText
	KindLinkDest
	KindLinkTitle
	KindCitation
	KindCitationGroup
)

var kindNames = map[SyntaxKind]string{
	KindError:            "Error",
	KindEOF:              "EOF",
	KindNewline:          "Newline",
	KindWhitespace:       "Whitespace",
	KindText:             "Text",
	KindHeadingMarker:    "HeadingMarker",
	KindFenceMarker:      "FenceMarker",
	KindDivMarker:        "DivMarker",
	KindMathFence:        "MathFence",
	KindQuoteMarker:      "QuoteMarker",
	KindListMarker:       "ListMarker",
	KindMarkerSpace:      "MarkerSpace",
	KindFrontmatterDelim: "FrontmatterDelim",
	KindCommentOpen:      "CommentOpen",
	KindCommentClose:     "CommentClose",
	KindLatexCommand:     "LatexCommand",
	KindCodeDelim:        "CodeDelim",
	KindMathDelim:        "MathDelim",
	KindEmphasisMarker:   "EmphasisMarker",
	KindBracketOpen:      "BracketOpen",
	KindBracketClose:     "BracketClose",
	KindImageBang:        "ImageBang",
	KindParenOpen:        "ParenOpen",
	KindParenClose:       "ParenClose",
	KindCitationSigil:    "CitationSigil",
	KindHardBreak:        "HardBreak",
	KindDocument:         "Document",
	KindFrontmatter:      "Frontmatter",
	KindHeading:          "Heading",
	KindHeadingContent:   "HeadingContent",
	KindSetextUnderline:  "SetextUnderline",
	KindParagraph:        "Paragraph",
	KindCodeBlock:        "CodeBlock",
	KindCodeFenceOpen:    "CodeFenceOpen",
	KindCodeInfo:         "CodeInfo",
	KindCodeContent:      "CodeContent",
	KindCodeFenceClose:   "CodeFenceClose",
	KindFencedDiv:        "FencedDiv",
	KindDivFenceOpen:     "DivFenceOpen",
	KindDivInfo:          "DivInfo",
	KindDivFenceClose:    "DivFenceClose",
	KindList:             "List",
	KindListItem:         "ListItem",
	KindBlockQuote:       "BlockQuote",
	KindMathBlock:        "MathBlock",
	KindMathContent:      "MathContent",
	KindMathLabel:        "MathLabel",
	KindThematicBreak:    "ThematicBreak",
	KindBlankLines:       "BlankLines",
	KindHTMLComment:      "HTMLComment",
	KindLatexEnv:         "LatexEnv",
	KindLatexBlock:       "LatexBlock",
	KindTable:            "Table",
	KindEmphasis:         "Emphasis",
	KindStrong:           "Strong",
	KindInlineCode:       "InlineCode",
	KindInlineMath:       "InlineMath",
	KindLink:             "Link",
	KindImage:            "Image",
	KindLinkText:         "LinkText",
	KindLinkDest:         "LinkDest",
	KindLinkTitle:        "LinkTitle",
	KindCitation:         "Citation",
	KindCitationGroup:    "CitationGroup",
}

func (k SyntaxKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// IsToken reports whether k is a token kind rather than a node kind.
func (k SyntaxKind) IsToken() bool {
	return k < KindDocument
}
