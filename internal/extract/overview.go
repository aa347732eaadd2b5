package extract

import (
	"regexp"
	"strings"

	"r6-tracker/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

const maxLastMatches = 4

var (
	scoreRe = regexp.MustCompile(`(\d+)\s*:\s*(\d+)`)
	kdRe    = regexp.MustCompile(`K/D[^\d]*(\d+\.\d+)`)
	kdaRe   = regexp.MustCompile(`K/D/A[^\d]*(\d+)[^\d]+(\d+)[^\d]+(\d+)`)
	hsRe    = regexp.MustCompile(`HS\s*%[^\d]*(\d+\.\d+%)`)
)

var mapKeywords = []string{
	"Labs", "Border", "Bank", "Kanal", "Consulate", "Villa", "Chalet",
	"Club", "Kafe", "Oregon", "Theme", "Tower", "Yacht", "Fortress",
	"Outback", "Stadium", "Favela", "Skyscraper", "Emerald",
}

var modeKeywords = []string{"Ranked", "Unranked", "Casual", "Quick Match"}

// Overview extracts the overview fragment. A page without a rank-points
// element is a missing profile, not a malformed one.
func (a *Adapter) Overview(content string) (*domain.OverviewFragment, error) {
	doc, err := parse(content)
	if err != nil {
		return nil, err
	}

	rankPoints := firstText(doc, ".text-24", ".trn-defstat__value", ".stat-value")
	if rankPoints == "" {
		return nil, ErrProfileNotFound
	}

	frag := &domain.OverviewFragment{
		RankPoints:   rankPoints,
		RankImageURL: firstAttr(doc.Find("img.size-14, img.trn-defstat__icon, img[alt*='Rank']"), "src"),
	}

	lifetime := sectionStats(doc, "lifetime")
	if len(lifetime) == 0 {
		lifetime = sectionStats(doc, "overall")
	}
	if len(lifetime) == 0 {
		lifetime = statPairs(doc.Selection)
	}
	frag.LifetimeLevel = orNA(lookup(lifetime, "level"))
	frag.LifetimeMatches = orNA(lookup(lifetime, "matches"))
	frag.TimePlayed = orNA(lookup(lifetime, "time played"))

	season := statPairs(doc.Find("section.season-overview.v3-card"))
	frag.SeasonKD = orNA(lookup(season, "kd"))
	if frag.SeasonKD == "N/A" {
		frag.SeasonKD = orNA(lookup(season, "k/d"))
	}
	frag.SeasonWinRate = orNA(lookup(season, "win", "rate"))
	frag.SeasonMatches = orNA(lookup(season, "match"))

	a.bestRank(doc, frag)
	frag.LastMatches = lastMatches(doc)

	return frag, nil
}

// sectionStats finds a stat section by its h2/h3 heading keyword and
// returns its label/value pairs.
func sectionStats(doc *goquery.Document, keyword string) map[string]string {
	keyword = strings.ToLower(keyword)
	var pairs map[string]string

	doc.Find("h2, h3").EachWithBreak(func(_ int, header *goquery.Selection) bool {
		if !strings.Contains(strings.ToLower(header.Text()), keyword) {
			return true
		}
		if p := statPairs(header.Parent()); len(p) > 0 {
			pairs = p
			return false
		}
		if p := statPairs(header.NextAll()); len(p) > 0 {
			pairs = p
			return false
		}
		return true
	})

	return pairs
}

func (a *Adapter) bestRank(doc *goquery.Document, frag *domain.OverviewFragment) {
	frag.BestRankName = "N/A"
	frag.BestRankRP = "N/A"

	peaks := doc.Find("div.v3-card.season-peaks")
	row := peaks.Find("tbody tr").First()
	img := row.Find("img.size-10").First()
	if img.Length() == 0 {
		img = row.Find("img").First()
	}
	if src, ok := img.Attr("src"); ok {
		frag.BestRankImage = src
	}
	if alt, ok := img.Attr("alt"); ok && alt != "" {
		frag.BestRankName = alt
	}

	row.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		if strings.Contains(span.Text(), "RP") {
			if v := clean(span.Parent().Text()); v != "" {
				frag.BestRankRP = v
			}
			return false
		}
		return true
	})
}

func lastMatches(doc *goquery.Document) []domain.MatchSummary {
	rows := doc.Find("div[class*='match-row']")

	var matches []domain.MatchSummary
	rows.Each(func(i int, row *goquery.Selection) {
		// The tracker renders every row twice (desktop + mobile layout);
		// take every second element.
		if i%2 != 0 || len(matches) >= maxLastMatches {
			return
		}

		m := domain.MatchSummary{
			Result:      "Unknown",
			Map:         "N/A",
			Mode:        "N/A",
			Score:       "N/A",
			KD:          "N/A",
			Kills:       "N/A",
			Deaths:      "N/A",
			Assists:     "N/A",
			HeadshotPct: "N/A",
		}

		classes := strings.ToLower(firstAttr(row, "class"))
		if strings.Contains(classes, "win") {
			m.Result = "Win"
		} else if strings.Contains(classes, "loss") {
			m.Result = "Loss"
		}

		row.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
			text := clean(span.Text())
			if m.Map == "N/A" && !strings.Contains(strings.ToLower(text), "ago") {
				for _, kw := range mapKeywords {
					if strings.Contains(text, kw) {
						m.Map = text
						break
					}
				}
			}
			if m.Mode == "N/A" {
				for _, kw := range modeKeywords {
					if text == kw {
						m.Mode = text
						break
					}
				}
			}
			return m.Map == "N/A" || m.Mode == "N/A"
		})

		text := row.Text()
		if g := scoreRe.FindStringSubmatch(text); g != nil {
			m.Score = g[1] + " : " + g[2]
		}
		if g := kdRe.FindStringSubmatch(text); g != nil {
			m.KD = g[1]
		}
		if g := kdaRe.FindStringSubmatch(text); g != nil {
			m.Kills, m.Deaths, m.Assists = g[1], g[2], g[3]
		}
		if g := hsRe.FindStringSubmatch(text); g != nil {
			m.HeadshotPct = g[1]
		}

		matches = append(matches, m)
	})

	return matches
}
