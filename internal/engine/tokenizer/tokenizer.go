package tokenizer

import (
	"bytes"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Tokenizer turns Markdown documents into block-level token streams.
// A single instance is safe for concurrent use.
type Tokenizer struct {
	md goldmark.Markdown
}

func New() *Tokenizer {
	return &Tokenizer{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Tokenize returns the token stream of source.
func (t *Tokenizer) Tokenize(source []byte) []Token {
	return t.Parse(source).Tokens
}

// Parse tokenizes source and collects its relative links in one pass over
// the goldmark AST. Front matter is stripped first; line numbers always refer
// to the original source.
func (t *Tokenizer) Parse(source []byte) *Document {
	body, offset := stripFrontMatter(source)
	root := t.md.Parser().Parse(text.NewReader(body))

	w := &walker{
		source:     body,
		lineStarts: lineStarts(body),
		offset:     offset,
	}
	w.blocks(root)

	return &Document{
		Tokens: w.tokens,
		Links:  w.links(root),
	}
}

func stripFrontMatter(source []byte) ([]byte, int) {
	var meta map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil || len(body) == len(source) {
		return source, 0
	}
	offset := bytes.Count(source, []byte("\n")) - bytes.Count(body, []byte("\n"))
	if offset < 0 {
		return source, 0
	}
	return body, offset
}

func lineStarts(source []byte) []int {
	starts := []int{0}
	for i, b := range source {
		if b == '\n' && i+1 < len(source) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

type walker struct {
	source     []byte
	lineStarts []int
	offset     int
	// cursor is the furthest byte offset consumed by an emitted token; it
	// positions blocks goldmark reports without line segments.
	cursor int
	tokens []Token
}

func (w *walker) lineAt(pos int) int {
	idx := sort.Search(len(w.lineStarts), func(i int) bool { return w.lineStarts[i] > pos })
	return idx + w.offset
}

func (w *walker) emit(tok Token, end int) {
	w.tokens = append(w.tokens, tok)
	if end > w.cursor {
		w.cursor = end
	}
}

func (w *walker) blocks(parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			start, end, ok := w.segmentBounds(node)
			if !ok {
				start = w.nextContentLine()
				end = w.lineEnd(start)
			}
			w.emit(Token{
				Kind:    KindHeadingOpen,
				Level:   node.Level,
				Content: w.joinLines(node, " "),
				Line:    w.lineAt(start),
			}, end)
		case *ast.Paragraph:
			start, end, ok := w.segmentBounds(node)
			if !ok {
				continue
			}
			w.emit(Token{
				Kind:    KindParagraphOpen,
				Content: w.joinLines(node, "\n"),
				Line:    w.lineAt(start),
			}, end)
		case *ast.TextBlock:
			// Tight list item text belongs to the list item token.
			if _, end, ok := w.segmentBounds(node); ok && end > w.cursor {
				w.cursor = end
			}
		case *ast.FencedCodeBlock:
			w.fence(node)
		case *ast.ListItem:
			start := w.containerStart(node)
			w.emit(Token{
				Kind:    KindListItemOpen,
				Content: firstLine(w.firstText(node)),
				Line:    w.lineAt(start),
			}, w.lineEnd(start))
			w.blocks(node)
		case *ast.List, *ast.Blockquote:
			w.blocks(node)
		default:
			if n.Type() != ast.TypeBlock {
				continue
			}
			w.inline(n)
		}
	}
}

func (w *walker) fence(node *ast.FencedCodeBlock) {
	info := ""
	start := -1
	if node.Info != nil {
		info = string(node.Language(w.source))
		start = w.lineBegin(node.Info.Segment.Start)
	}

	_, end, hasBody := w.segmentBounds(node)
	if start < 0 {
		if hasBody {
			first := node.Lines().At(0).Start
			start = w.lineBegin(first)
			if start > 0 {
				start = w.lineBegin(start - 1)
			}
		} else {
			start = w.nextContentLine()
		}
	}
	if !hasBody {
		end = w.lineEnd(start)
	}

	w.emit(Token{
		Kind:    KindFence,
		Info:    info,
		Content: w.rawLines(node),
		Line:    w.lineAt(start),
	}, end)
	w.skipClosingFence()
}

// inline degrades any other leaf block (thematic break, HTML, indented code,
// tables) to an inline token carrying its raw text.
func (w *walker) inline(n ast.Node) {
	start, end, ok := w.segmentBounds(n)
	content := ""
	if ok {
		content = strings.TrimSpace(w.rawLines(n))
	} else {
		start = w.containerStart(n)
		end = w.lineEnd(start)
		if sub := w.firstText(n); sub != "" {
			content = sub
		} else {
			content = strings.TrimSpace(string(w.source[start:end]))
		}
		if last := w.lastSegmentEnd(n); last > end {
			end = last
		}
	}
	w.emit(Token{
		Kind:    KindInline,
		Content: content,
		Line:    w.lineAt(start),
	}, end)
}

func (w *walker) segmentBounds(n ast.Node) (int, int, bool) {
	if n.Type() != ast.TypeBlock {
		return 0, 0, false
	}
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return 0, 0, false
	}
	return lines.At(0).Start, lines.At(lines.Len() - 1).Stop, true
}

// containerStart finds the first byte of a block without own segments by
// descending into its children, falling back to the next non-blank line.
func (w *walker) containerStart(n ast.Node) int {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if txt, ok := c.(*ast.Text); ok {
			return w.lineBegin(txt.Segment.Start)
		}
		if start, _, ok := w.segmentBounds(c); ok {
			return w.lineBegin(start)
		}
		if c.HasChildren() {
			return w.containerStart(c)
		}
	}
	return w.nextContentLine()
}

func (w *walker) lastSegmentEnd(n ast.Node) int {
	end := -1
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if txt, ok := node.(*ast.Text); ok && txt.Segment.Stop > end {
			end = txt.Segment.Stop
		}
		if _, stop, ok := w.segmentBounds(node); ok && stop > end {
			end = stop
		}
		return ast.WalkContinue, nil
	})
	return end
}

func (w *walker) firstText(n ast.Node) string {
	found := ""
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Type() == ast.TypeBlock && node != n {
			if _, _, ok := w.segmentBounds(node); ok {
				found = w.joinLines(node, "\n")
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return found
}

func (w *walker) joinLines(n ast.Node, sep string) string {
	lines := n.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		parts = append(parts, strings.TrimSpace(string(seg.Value(w.source))))
	}
	return strings.TrimSpace(strings.Join(parts, sep))
}

func (w *walker) rawLines(n ast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(w.source))
	}
	return b.String()
}

func (w *walker) lineBegin(pos int) int {
	if pos > len(w.source) {
		pos = len(w.source)
	}
	idx := bytes.LastIndexByte(w.source[:pos], '\n')
	return idx + 1
}

func (w *walker) lineEnd(pos int) int {
	if pos >= len(w.source) {
		return len(w.source)
	}
	idx := bytes.IndexByte(w.source[pos:], '\n')
	if idx < 0 {
		return len(w.source)
	}
	return pos + idx + 1
}

// nextContentLine returns the start of the first non-blank line at or after
// the cursor.
func (w *walker) nextContentLine() int {
	pos := w.lineBegin(w.cursor)
	if pos < w.cursor {
		pos = w.lineEnd(w.cursor)
	}
	for pos < len(w.source) {
		end := w.lineEnd(pos)
		if len(bytes.TrimSpace(w.source[pos:end])) > 0 {
			return pos
		}
		pos = end
	}
	return w.lineBegin(len(w.source))
}

// skipClosingFence moves the cursor past the closing fence line, which goldmark
// does not report as a segment.
func (w *walker) skipClosingFence() {
	pos := w.cursor
	if w.lineBegin(pos) != pos {
		pos = w.lineEnd(pos)
	}
	if pos >= len(w.source) {
		return
	}
	end := w.lineEnd(pos)
	line := bytes.TrimSpace(w.source[pos:end])
	if bytes.HasPrefix(line, []byte("```")) || bytes.HasPrefix(line, []byte("~~~")) {
		w.cursor = end
	}
}

func (w *walker) links(root ast.Node) []Link {
	var out []Link
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		dest, ok := relativeDestination(string(link.Destination))
		if !ok {
			return ast.WalkSkipChildren, nil
		}
		out = append(out, Link{Destination: dest, Line: w.inlineLine(link)})
		return ast.WalkSkipChildren, nil
	})
	return out
}

func (w *walker) inlineLine(n ast.Node) int {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if txt, ok := c.(*ast.Text); ok {
			return w.lineAt(txt.Segment.Start)
		}
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if start, _, ok := w.segmentBounds(p); ok {
			return w.lineAt(start)
		}
	}
	return w.offset + 1
}

// relativeDestination filters out external and anchor-only links and strips
// any #fragment suffix.
func relativeDestination(raw string) (string, bool) {
	dest := strings.TrimSpace(raw)
	lower := strings.ToLower(dest)
	switch {
	case dest == "":
		return "", false
	case strings.HasPrefix(dest, "#"):
		return "", false
	case strings.HasPrefix(lower, "mailto:"), strings.Contains(lower, "://"):
		return "", false
	}
	if idx := strings.IndexByte(dest, '#'); idx >= 0 {
		dest = dest[:idx]
	}
	if idx := strings.IndexByte(dest, '?'); idx >= 0 {
		dest = dest[:idx]
	}
	if dest == "" {
		return "", false
	}
	return dest, true
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// ExtractLinks returns the relative link destinations of source in document
// order.
func (t *Tokenizer) ExtractLinks(source []byte) []Link {
	return t.Parse(source).Links
}
