package richtext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Excerpt derives a plain-text excerpt from post content HTML. Markup is
// stripped, whitespace collapsed, and the result truncated to maxLen runes
// on a word boundary where possible. Returns "" when nothing textual is left.
func Excerpt(html string, maxLen int) string {
	if strings.TrimSpace(html) == "" || maxLen <= 0 {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return truncate(collapseWhitespace(html), maxLen)
	}

	doc.Find("script, style").Remove()
	text := collapseWhitespace(doc.Text())
	return truncate(text, maxLen)
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	cut := string(runes[:maxLen])
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ") + "..."
}
