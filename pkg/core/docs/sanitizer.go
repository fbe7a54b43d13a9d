// This file strips routed HTML documents down to plain text before they
// go to the LLM for field extraction.
package docs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var multiBlank = regexp.MustCompile(`\n{3,}`)

// ExtractText parses an HTML document and returns readable text: noise
// elements removed, block elements separated by newlines, tables
// flattened row by row with cells tab-separated so the LLM can still see
// their structure.
func ExtractText(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, iframe, svg, img").Remove()

	// Tables first: serialize each as tab-separated rows, then replace
	// the node so the generic text pass doesn't mangle it.
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		var rows []string
		table.Find("tr").Each(func(j int, tr *goquery.Selection) {
			var cells []string
			tr.Find("th, td").Each(func(k int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			rows = append(rows, strings.Join(cells, "\t"))
		})
		table.ReplaceWithHtml("<p>" + strings.Join(rows, "\n") + "</p>")
	})

	var b strings.Builder
	doc.Find("h1, h2, h3, h4, h5, h6, p, li").Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	})

	out := strings.TrimSpace(b.String())
	if out == "" {
		// Document without block structure: fall back to the body text.
		out = strings.TrimSpace(doc.Find("body").Text())
	}
	return multiBlank.ReplaceAllString(out, "\n\n"), nil
}
