package watcher

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxMessageBytes = 1 << 20 // 1 MiB

// ExtractText flattens a Talknote message body to plain text. Messages may
// carry HTML markup (links, line breaks, mentions); plain bodies are only
// trimmed.
func ExtractText(message string) string {
	message = truncate(message, maxMessageBytes)
	if !strings.ContainsAny(message, "<&") {
		return strings.TrimSpace(message)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(message))
	if err != nil {
		return strings.TrimSpace(message)
	}

	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return collapseLines(doc.Text())
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func collapseLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
