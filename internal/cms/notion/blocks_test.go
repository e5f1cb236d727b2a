package notion

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockTypes(blocks []Block) []BlockType {
	out := make([]BlockType, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Type)
	}
	return out
}

func TestToBlocksClassification(t *testing.T) {
	src := strings.Join([]string{
		"# One",
		"## Two",
		"### Three",
		"---",
		"- bullet",
		"* star bullet",
		"1. numbered",
		"> quoted",
		"```js",
		"const a = 1;",
		"",
		"console.log(a)",
		"```",
		"",
		"plain paragraph",
	}, "\n")

	blocks := ToBlocks(src)
	assert.Equal(t, []BlockType{
		BlockHeading1, BlockHeading2, BlockHeading3, BlockDivider,
		BlockBulletedListItem, BlockBulletedListItem, BlockNumberedListItem,
		BlockQuote, BlockCode, BlockParagraph,
	}, blockTypes(blocks))

	code := blocks[8].Code
	require.NotNil(t, code)
	assert.Equal(t, "javascript", code.Language)
	assert.Equal(t, "const a = 1;\n\nconsole.log(a)", PlainTextOf(code.RichText))
	assert.Equal(t, "numbered", PlainTextOf(blocks[6].NumberedListItem.RichText))
	assert.Equal(t, "quoted", PlainTextOf(blocks[7].Quote.RichText))
}

func TestToBlocksUnclosedFence(t *testing.T) {
	blocks := ToBlocks("```\n# inside\nstill code")
	require.Len(t, blocks, 1)
	assert.Equal(t, BlockCode, blocks[0].Type)
	assert.Equal(t, "plain text", blocks[0].Code.Language)
	assert.Equal(t, "# inside\nstill code", PlainTextOf(blocks[0].Code.RichText))
}

func TestToBlocksJSONShape(t *testing.T) {
	data, err := json.Marshal(ToBlocks("---\n```\n```"))
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"object":"block","type":"divider","divider":{}},
		{"object":"block","type":"code","code":{"rich_text":[],"language":"plain text"}}
	]`, string(data))
}

func TestParseInline(t *testing.T) {
	spans := ParseInline("Start **bold** then *it* and `code` plus [site](https://x.io) end")

	var kinds []string
	for _, s := range spans {
		switch {
		case s.Annotations != nil && s.Annotations.Bold:
			kinds = append(kinds, "bold:"+s.Text.Content)
		case s.Annotations != nil && s.Annotations.Italic:
			kinds = append(kinds, "italic:"+s.Text.Content)
		case s.Annotations != nil && s.Annotations.Code:
			kinds = append(kinds, "code:"+s.Text.Content)
		case s.Text.Link != nil:
			kinds = append(kinds, "link:"+s.Text.Content+"->"+s.Text.Link.URL)
		default:
			kinds = append(kinds, "text:"+s.Text.Content)
		}
	}
	assert.Equal(t, []string{
		"text:Start ", "bold:bold", "text: then ", "italic:it", "text: and ",
		"code:code", "text: plus ", "link:site->https://x.io", "text: end",
	}, kinds)
}

func TestParseInlineSplitsLongText(t *testing.T) {
	long := strings.Repeat("a", maxTextLength*2+5)
	spans := ParseInline(long)
	require.Len(t, spans, 3)
	assert.Len(t, spans[0].Text.Content, maxTextLength)
	assert.Len(t, spans[2].Text.Content, 5)
}

func TestNormalizeLanguage(t *testing.T) {
	tests := map[string]string{
		"":           "plain text",
		"Go":         "go",
		"ts":         "typescript",
		"sh":         "shell",
		"python {1}": "python",
		"brainfuck":  "plain text",
		"c++":        "c++",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeLanguage(in), in)
	}
}
