// Package extract turns raw tracker page content into structured
// fragments. Selectors track the markup of r6.tracker.network and are the
// part of the system most likely to need recalibration.
package extract

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrProfileNotFound: the page rendered but carries no rank data;
	// the player does not exist on the tracker. Terminal, not retried.
	ErrProfileNotFound = errors.New("extract: profile not found")

	// ErrFieldsUnavailable: expected fields were not located although the
	// profile should exist, e.g. a partially rendered page. Retryable.
	ErrFieldsUnavailable = errors.New("extract: expected fields unavailable")
)

// Adapter parses both page kinds. It is stateless and safe for
// concurrent use.
type Adapter struct{}

func NewAdapter() *Adapter { return &Adapter{} }

func parse(content string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, errors.Join(ErrFieldsUnavailable, err)
	}
	return doc, nil
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if text := clean(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func firstAttr(sel *goquery.Selection, attr string) string {
	v, _ := sel.First().Attr(attr)
	return v
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// dedupeSlashes collapses duplicated values like "1,697h / 1,697h".
func dedupeSlashes(s string) string {
	parts := strings.Split(s, "/")
	seen := make(map[string]bool, len(parts))
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return strings.Join(out, " / ")
}

// statPairs collects every label/value stat block under sel, covering
// both markup generations the tracker uses (name-value spans and
// stat-label/stat-value divs).
func statPairs(sel *goquery.Selection) map[string]string {
	pairs := make(map[string]string)

	sel.Find("div.name-value").Each(func(_ int, block *goquery.Selection) {
		name := clean(block.Find("span.stat-name .truncate").First().Text())
		if name == "" {
			name = clean(block.Find("span.stat-name").First().Text())
		}
		value := clean(block.Find("span.stat-value .truncate").First().Text())
		if value == "" {
			value = clean(block.Find("span.stat-value").First().Text())
		}
		if name != "" && value != "" {
			pairs[name] = dedupeSlashes(value)
		}
	})

	sel.Find("div.stat-label").Each(func(_ int, label *goquery.Selection) {
		name := clean(label.Text())
		if name == "" {
			return
		}
		value := clean(label.Parent().Find(".stat-value").First().Text())
		if value != "" {
			pairs[name] = dedupeSlashes(value)
		}
	})

	return pairs
}

// lookup does a case-insensitive substring match over stat labels, the
// way the site's labels drift ("K/D" vs "Season KD").
func lookup(pairs map[string]string, substrs ...string) string {
	for label, value := range pairs {
		lower := strings.ToLower(label)
		all := true
		for _, sub := range substrs {
			if !strings.Contains(lower, sub) {
				all = false
				break
			}
		}
		if all {
			return value
		}
	}
	return ""
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
