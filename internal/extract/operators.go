package extract

import (
	"regexp"
	"strings"

	"r6-tracker/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

const maxTopOperators = 4

var numberRe = regexp.MustCompile(`\d+(?:[.,]\d+)?%?`)

// Operators extracts the top-operators fragment. An operators page with
// no recognizable rows is malformed rather than not-found; existence is
// decided by the overview page.
func (a *Adapter) Operators(content string) (*domain.OperatorFragment, error) {
	doc, err := parse(content)
	if err != nil {
		return nil, err
	}

	rows := operatorRows(doc)
	if rows.Length() == 0 {
		return nil, ErrFieldsUnavailable
	}

	frag := &domain.OperatorFragment{}
	rows.Each(func(i int, row *goquery.Selection) {
		if len(frag.TopOperators) >= maxTopOperators {
			return
		}

		op := domain.OperatorStat{
			Name:         "N/A",
			RoundsPlayed: "N/A",
			KD:           "N/A",
			WinPct:       "N/A",
			HeadshotPct:  "N/A",
		}

		if name := clean(row.Find("span.stat-value span.truncate").First().Text()); name != "" {
			op.Name = name
		}
		op.ImageURL = firstAttr(row.Find("img"), "src")

		numbers := numberRe.FindAllString(row.Text(), -1)
		var percents []string
		for _, n := range numbers {
			switch {
			case strings.HasSuffix(n, "%"):
				percents = append(percents, n)
			case strings.Contains(n, ".") && op.KD == "N/A":
				op.KD = n
			case !strings.Contains(n, ".") && len(n) >= 3 && op.RoundsPlayed == "N/A":
				op.RoundsPlayed = n
			}
		}
		if len(percents) >= 1 {
			op.WinPct = percents[0]
		}
		if len(percents) >= 2 {
			op.HeadshotPct = percents[1]
		}

		frag.TopOperators = append(frag.TopOperators, op)
	})

	return frag, nil
}

func operatorRows(doc *goquery.Document) *goquery.Selection {
	rows := doc.Find("tr").FilterFunction(func(_ int, row *goquery.Selection) bool {
		found := false
		row.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			if src, ok := img.Attr("src"); ok && strings.Contains(src, "operators/badges") {
				found = true
				return false
			}
			return true
		})
		return found
	})
	if rows.Length() == 0 {
		rows = doc.Find("tbody tr[data-key]")
	}
	return rows
}
