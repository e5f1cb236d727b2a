package notion

import (
	"regexp"
	"strings"
)

// BlockType names the Notion block variants produced from markdown.
type BlockType string

const (
	BlockParagraph        BlockType = "paragraph"
	BlockHeading1         BlockType = "heading_1"
	BlockHeading2         BlockType = "heading_2"
	BlockHeading3         BlockType = "heading_3"
	BlockBulletedListItem BlockType = "bulleted_list_item"
	BlockNumberedListItem BlockType = "numbered_list_item"
	BlockQuote            BlockType = "quote"
	BlockCode             BlockType = "code"
	BlockDivider          BlockType = "divider"
)

// maxTextLength is the Notion limit for a single rich text object.
const maxTextLength = 2000

// Block is a Notion block. Exactly one of the variant fields is set,
// matching Type.
type Block struct {
	Object           string     `json:"object"`
	ID               string     `json:"id,omitempty"`
	Type             BlockType  `json:"type"`
	HasChildren      bool       `json:"has_children,omitempty"`
	Paragraph        *TextBlock `json:"paragraph,omitempty"`
	Heading1         *TextBlock `json:"heading_1,omitempty"`
	Heading2         *TextBlock `json:"heading_2,omitempty"`
	Heading3         *TextBlock `json:"heading_3,omitempty"`
	BulletedListItem *TextBlock `json:"bulleted_list_item,omitempty"`
	NumberedListItem *TextBlock `json:"numbered_list_item,omitempty"`
	Quote            *TextBlock `json:"quote,omitempty"`
	Code             *CodeBlock `json:"code,omitempty"`
	Divider          *struct{}  `json:"divider,omitempty"`
}

// TextBlock is the payload of every text-only block variant.
type TextBlock struct {
	RichText []RichText `json:"rich_text"`
}

// CodeBlock is the payload of a code block.
type CodeBlock struct {
	RichText []RichText `json:"rich_text"`
	Language string     `json:"language"`
}

// RichText is one annotated span of text.
type RichText struct {
	Type        string       `json:"type"`
	Text        *Text        `json:"text,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
	PlainText   string       `json:"plain_text,omitempty"`
	Href        string       `json:"href,omitempty"`
}

// Text is the content of a text span.
type Text struct {
	Content string `json:"content"`
	Link    *Link  `json:"link,omitempty"`
}

// Link is a hyperlink target.
type Link struct {
	URL string `json:"url"`
}

// Annotations are the inline styles of a span.
type Annotations struct {
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Code          bool   `json:"code,omitempty"`
	Color         string `json:"color,omitempty"`
}

// PlainTextOf concatenates the text content of spans.
func PlainTextOf(spans []RichText) string {
	var b strings.Builder
	for _, s := range spans {
		switch {
		case s.PlainText != "":
			b.WriteString(s.PlainText)
		case s.Text != nil:
			b.WriteString(s.Text.Content)
		}
	}
	return b.String()
}

func textBlock(t BlockType, spans []RichText) Block {
	b := Block{Object: "block", Type: t}
	payload := &TextBlock{RichText: spans}
	switch t {
	case BlockHeading1:
		b.Heading1 = payload
	case BlockHeading2:
		b.Heading2 = payload
	case BlockHeading3:
		b.Heading3 = payload
	case BlockBulletedListItem:
		b.BulletedListItem = payload
	case BlockNumberedListItem:
		b.NumberedListItem = payload
	case BlockQuote:
		b.Quote = payload
	default:
		b.Type = BlockParagraph
		b.Paragraph = payload
	}
	return b
}

var (
	heading3Line = regexp.MustCompile(`^###\s+(.*)$`)
	heading2Line = regexp.MustCompile(`^##\s+(.*)$`)
	heading1Line = regexp.MustCompile(`^#\s+(.*)$`)
	dividerLine  = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,})$`)
	bulletLine   = regexp.MustCompile(`^[-*+]\s+(.*)$`)
	numberedLine = regexp.MustCompile(`^\d+\.\s+(.*)$`)
	quotePrefix  = regexp.MustCompile(`^>\s?(.*)$`)
)

// ToBlocks converts markdown into a flat list of Notion blocks. Each line is
// classified in a fixed order: heading 3, heading 2, heading 1, divider,
// bulleted item, numbered item, quote, code fence, paragraph.
func ToBlocks(src string) []Block {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	blocks := make([]Block, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		if m := heading3Line.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, textBlock(BlockHeading3, ParseInline(m[1])))
			continue
		}
		if m := heading2Line.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, textBlock(BlockHeading2, ParseInline(m[1])))
			continue
		}
		if m := heading1Line.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, textBlock(BlockHeading1, ParseInline(m[1])))
			continue
		}
		if dividerLine.MatchString(line) {
			blocks = append(blocks, Block{Object: "block", Type: BlockDivider, Divider: &struct{}{}})
			continue
		}
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, textBlock(BlockBulletedListItem, ParseInline(m[1])))
			continue
		}
		if m := numberedLine.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, textBlock(BlockNumberedListItem, ParseInline(m[1])))
			continue
		}
		if m := quotePrefix.FindStringSubmatch(line); m != nil {
			blocks = append(blocks, textBlock(BlockQuote, ParseInline(m[1])))
			continue
		}
		if strings.HasPrefix(line, "```") {
			lang := NormalizeLanguage(strings.TrimPrefix(line, "```"))
			var body []string
			for i++; i < len(lines); i++ {
				if strings.TrimSpace(lines[i]) == "```" {
					break
				}
				body = append(body, lines[i])
			}
			blocks = append(blocks, Block{
				Object: "block",
				Type:   BlockCode,
				Code:   &CodeBlock{RichText: plainSpans(strings.Join(body, "\n"), nil), Language: lang},
			})
			continue
		}
		blocks = append(blocks, textBlock(BlockParagraph, ParseInline(line)))
	}
	return blocks
}

var inlinePattern = regexp.MustCompile("\\*\\*(.+?)\\*\\*|\\*(.+?)\\*|`([^`]+)`|\\[([^\\]]+)\\]\\(([^)\\s]+)\\)")

// ParseInline splits a line into rich text spans for **bold**, *italic*,
// `code` and [links](url). Unformatted text becomes plain spans.
func ParseInline(text string) []RichText {
	spans := make([]RichText, 0, 4)
	last := 0
	for _, m := range inlinePattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			spans = append(spans, plainSpans(text[last:m[0]], nil)...)
		}
		switch {
		case m[2] >= 0:
			spans = append(spans, plainSpans(text[m[2]:m[3]], &Annotations{Bold: true})...)
		case m[4] >= 0:
			spans = append(spans, plainSpans(text[m[4]:m[5]], &Annotations{Italic: true})...)
		case m[6] >= 0:
			spans = append(spans, plainSpans(text[m[6]:m[7]], &Annotations{Code: true})...)
		case m[8] >= 0:
			for _, s := range plainSpans(text[m[8]:m[9]], nil) {
				s.Text.Link = &Link{URL: text[m[10]:m[11]]}
				spans = append(spans, s)
			}
		}
		last = m[1]
	}
	if last < len(text) {
		spans = append(spans, plainSpans(text[last:], nil)...)
	}
	return spans
}

// plainSpans wraps content in text spans no longer than maxTextLength runes.
// It always returns a non-nil slice so empty bodies encode as [].
func plainSpans(content string, ann *Annotations) []RichText {
	out := []RichText{}
	runes := []rune(content)
	for start := 0; start < len(runes); start += maxTextLength {
		end := start + maxTextLength
		if end > len(runes) {
			end = len(runes)
		}
		span := RichText{Type: "text", Text: &Text{Content: string(runes[start:end])}}
		if ann != nil {
			a := *ann
			span.Annotations = &a
		}
		out = append(out, span)
	}
	return out
}

var languageAliases = map[string]string{
	"":           "plain text",
	"text":       "plain text",
	"txt":        "plain text",
	"plaintext":  "plain text",
	"js":         "javascript",
	"jsx":        "javascript",
	"ts":         "typescript",
	"tsx":        "typescript",
	"py":         "python",
	"rb":         "ruby",
	"sh":         "shell",
	"zsh":        "shell",
	"console":    "shell",
	"yml":        "yaml",
	"golang":     "go",
	"rs":         "rust",
	"cpp":        "c++",
	"cs":         "c#",
	"csharp":     "c#",
	"kt":         "kotlin",
	"md":         "markdown",
	"dockerfile": "docker",
	"ps1":        "powershell",
	"tf":         "hcl",
}

var notionLanguages = map[string]struct{}{
	"bash": {}, "c": {}, "c#": {}, "c++": {}, "css": {}, "dart": {}, "diff": {}, "docker": {},
	"elixir": {}, "go": {}, "graphql": {}, "haskell": {}, "hcl": {}, "html": {}, "java": {},
	"javascript": {}, "json": {}, "kotlin": {}, "lua": {}, "makefile": {}, "markdown": {},
	"objective-c": {}, "perl": {}, "php": {}, "plain text": {}, "powershell": {}, "protobuf": {},
	"python": {}, "r": {}, "ruby": {}, "rust": {}, "scala": {}, "scss": {}, "shell": {},
	"sql": {}, "swift": {}, "toml": {}, "typescript": {}, "xml": {}, "yaml": {},
}

// NormalizeLanguage maps a fence info string onto a Notion code language.
func NormalizeLanguage(info string) string {
	lang := strings.ToLower(strings.TrimSpace(info))
	if fields := strings.Fields(lang); len(fields) > 0 {
		lang = fields[0]
	}
	if alias, ok := languageAliases[lang]; ok {
		return alias
	}
	if _, ok := notionLanguages[lang]; ok {
		return lang
	}
	return "plain text"
}
