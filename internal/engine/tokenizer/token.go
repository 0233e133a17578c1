package tokenizer

import (
	"fmt"
	"strings"
)

// Kind identifies the structural role of a token.
type Kind uint8

const (
	KindHeadingOpen Kind = iota + 1
	KindParagraphOpen
	KindFence
	KindListItemOpen
	KindInline
)

var kindNames = map[Kind]string{
	KindHeadingOpen:   "heading_open",
	KindParagraphOpen: "paragraph_open",
	KindFence:         "fence",
	KindListItemOpen:  "list_item_open",
	KindInline:        "inline",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a wire name such as "heading_open" to its Kind.
func ParseKind(raw string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for kind, candidate := range kindNames {
		if candidate == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown token type %q", raw)
}

// Token is one block-level structural unit of a document.
// Level is zero for everything except headings.
type Token struct {
	Kind    Kind
	Level   int
	Info    string
	Content string
	Line    int
}

func (t Token) String() string {
	switch t.Kind {
	case KindHeadingOpen:
		return fmt.Sprintf("%s(h%d)@%d", t.Kind, t.Level, t.Line)
	case KindFence:
		return fmt.Sprintf("%s(%s)@%d", t.Kind, t.Info, t.Line)
	default:
		return fmt.Sprintf("%s@%d", t.Kind, t.Line)
	}
}

// Link is a relative hyperlink found in a document body.
type Link struct {
	Destination string
	Line        int
}

// Document is the result of a single parse: tokens plus the relative links
// found in inline content.
type Document struct {
	Tokens []Token
	Links  []Link
}
