// Package markdown converts post bodies for platforms that do not accept
// markdown directly.
package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	headingPatterns = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, 0, 6)
		for level := 6; level >= 1; level-- {
			out = append(out, regexp.MustCompile(fmt.Sprintf(`(?m)^#{%d}[ \t]+(.+?)[ \t]*$`, level)))
		}
		return out
	}()

	inlineCodePattern = regexp.MustCompile("`([^`\n]+)`")

	boldItalicStar  = regexp.MustCompile(`\*\*\*(\S(?:.*?\S)?)\*\*\*`)
	boldItalicUnder = regexp.MustCompile(`(^|[^\w])___(\S(?:.*?\S)?)___([^\w]|$)`)
	boldStar        = regexp.MustCompile(`\*\*(\S(?:.*?\S)?)\*\*`)
	boldUnder       = regexp.MustCompile(`(^|[^\w])__(\S(?:.*?\S)?)__([^\w]|$)`)
	italicStar      = regexp.MustCompile(`\*([^\s*](?:[^*\n]*?[^\s*])?)\*`)
	italicUnder     = regexp.MustCompile(`(^|[^\w])_([^\s_](?:[^_\n]*?[^\s_])?)_([^\w]|$)`)
	strikePattern   = regexp.MustCompile(`~~(\S(?:.*?\S)?)~~`)

	imagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)
	linkPattern  = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)

	quoteLine     = regexp.MustCompile(`^&gt;(?: (.*))?$`)
	unorderedLine = regexp.MustCompile(`^[-*+][ \t]+(.+)$`)
	orderedLine   = regexp.MustCompile(`^\d+\.[ \t]+(.+)$`)
	ruleLine      = regexp.MustCompile(`^(?:-{3,}|\*{3,}|_{3,})$`)
	blockLine     = regexp.MustCompile(`^(?:<h[1-6]>|<hr>|\x00B\d+\x00$)`)
	placeholder   = regexp.MustCompile(`\x00([BI])(\d+)\x00`)

	htmlEscaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	htmlUnescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")
)

// ToHTML converts a constrained markdown dialect to HTML. It supports fenced
// and inline code, ATX headings, emphasis, strikethrough, links, images,
// blockquotes, flat lists, horizontal rules and paragraphs.
func ToHTML(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}

	c := &converter{}
	text := strings.ReplaceAll(src, "\r\n", "\n")
	text = htmlEscaper.Replace(text)
	text = c.extractFences(text)
	text = inlineCodePattern.ReplaceAllStringFunc(text, func(m string) string {
		return c.stash(&c.inline, "<code>"+m[1:len(m)-1]+"</code>", 'I')
	})

	for i, re := range headingPatterns {
		level := 6 - i
		text = re.ReplaceAllString(text, fmt.Sprintf("<h%d>$1</h%d>", level, level))
	}

	text = boldItalicStar.ReplaceAllString(text, "<strong><em>$1</em></strong>")
	text = boldItalicUnder.ReplaceAllString(text, "$1<strong><em>$2</em></strong>$3")
	text = boldStar.ReplaceAllString(text, "<strong>$1</strong>")
	text = boldUnder.ReplaceAllString(text, "$1<strong>$2</strong>$3")
	text = italicStar.ReplaceAllString(text, "<em>$1</em>")
	text = italicUnder.ReplaceAllString(text, "$1<em>$2</em>$3")
	text = strikePattern.ReplaceAllString(text, "<del>$1</del>")

	text = imagePattern.ReplaceAllString(text, `<img src="$2" alt="$1">`)
	text = linkPattern.ReplaceAllString(text, `<a href="$2">$1</a>`)

	out := c.blocks(strings.Split(text, "\n"))
	return placeholder.ReplaceAllStringFunc(out, c.restore)
}

type converter struct {
	fences []string
	inline []string
}

func (c *converter) stash(dst *[]string, html string, kind byte) string {
	*dst = append(*dst, html)
	return fmt.Sprintf("\x00%c%d\x00", kind, len(*dst)-1)
}

func (c *converter) restore(token string) string {
	m := placeholder.FindStringSubmatch(token)
	idx, _ := strconv.Atoi(m[2])
	if m[1] == "B" {
		if idx < len(c.fences) {
			return c.fences[idx]
		}
	} else if idx < len(c.inline) {
		return c.inline[idx]
	}
	return ""
}

// extractFences replaces fenced code blocks with placeholders. An unclosed
// fence runs to the end of the input.
func (c *converter) extractFences(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "```") {
			out = append(out, lines[i])
			continue
		}
		lang := strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
		var body []string
		for i++; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) == "```" {
				break
			}
			body = append(body, lines[i])
		}
		code := htmlUnescaper.Replace(strings.Join(body, "\n"))
		open := "<pre><code>"
		if lang != "" {
			open = fmt.Sprintf(`<pre><code class="language-%s">`, htmlUnescaper.Replace(lang))
		}
		out = append(out, c.stash(&c.fences, open+code+"</code></pre>", 'B'))
	}
	return strings.Join(out, "\n")
}

// blocks groups lines into blockquotes, lists, rules and paragraphs.
func (c *converter) blocks(lines []string) string {
	var (
		out       []string
		para      []string
		quote     []string
		listKind  string
		listItems []string
	)

	flushPara := func() {
		if len(para) > 0 {
			out = append(out, "<p>"+strings.Join(para, "<br>")+"</p>")
			para = nil
		}
	}
	flushQuote := func() {
		if len(quote) > 0 {
			out = append(out, "<blockquote>"+strings.Join(quote, "<br>")+"</blockquote>")
			quote = nil
		}
	}
	flushList := func() {
		if listKind != "" {
			out = append(out, "<"+listKind+">"+strings.Join(listItems, "")+"</"+listKind+">")
			listKind, listItems = "", nil
		}
	}
	flushAll := func() {
		flushPara()
		flushQuote()
		flushList()
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		if m := quoteLine.FindStringSubmatch(line); m != nil {
			flushPara()
			flushList()
			quote = append(quote, m[1])
			continue
		}
		flushQuote()

		if m := unorderedLine.FindStringSubmatch(line); m != nil && !ruleLine.MatchString(line) {
			flushPara()
			if listKind != "ul" {
				flushList()
				listKind = "ul"
			}
			listItems = append(listItems, "<li>"+m[1]+"</li>")
			continue
		}
		if m := orderedLine.FindStringSubmatch(line); m != nil {
			flushPara()
			if listKind != "ol" {
				flushList()
				listKind = "ol"
			}
			listItems = append(listItems, "<li>"+m[1]+"</li>")
			continue
		}
		flushList()

		switch {
		case line == "":
			flushPara()
		case ruleLine.MatchString(line):
			flushAll()
			out = append(out, "<hr>")
		case blockLine.MatchString(line):
			flushAll()
			out = append(out, line)
		default:
			para = append(para, line)
		}
	}
	flushAll()

	return strings.Join(out, "\n")
}
