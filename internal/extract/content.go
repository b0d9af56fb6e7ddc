package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// locationIconPath is a fragment of the SVG path NeoAuto renders next to the
// listing's location line. It is the only stable hook for that element; the
// surrounding class names churn with every frontend release.
const locationIconPath = "M12 12.658"

// Content is the distilled page content handed to the extraction engine.
// Zones are captured separately so the location resolver can honor its
// priority order; Body always carries the full visible text as a fallback.
type Content struct {
	URL          string
	Title        string
	PriceText    string
	LocationHint string
	Description  string
	Body         string
}

// Empty reports whether there is nothing to extract from.
func (c Content) Empty() bool {
	return strings.TrimSpace(c.Title) == "" && strings.TrimSpace(c.Body) == ""
}

// Distill reduces a rendered listing page to extraction zones. It never
// fails on missing zones; absent zones are simply empty strings.
func Distill(url, html string) (Content, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Content{}, err
	}

	doc.Find("script, style, noscript").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	c := Content{URL: url}

	c.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	if c.Title == "" {
		c.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	c.PriceText = strings.TrimSpace(doc.Find("span.text-title-x-large").First().Text())

	c.LocationHint = innermostWith(doc, "div", func(s *goquery.Selection) bool {
		h, err := s.Html()
		return err == nil && strings.Contains(h, locationIconPath)
	})

	desc := innermostWith(doc, "section, div", func(s *goquery.Selection) bool {
		return strings.Contains(strings.ToLower(s.Text()), "descripción") ||
			strings.Contains(strings.ToLower(s.Text()), "descripcion")
	})
	c.Description = strings.TrimSpace(stripHeading(desc, "Descripción", "Descripcion"))

	c.Body = strings.TrimSpace(doc.Find("body").Text())
	if c.Body == "" {
		c.Body = strings.TrimSpace(doc.Text())
	}

	return c, nil
}

// innermostWith returns the text of the smallest element matching sel for
// which match holds. Matching ancestors wrap the same text, so the shortest
// candidate is the innermost container.
func innermostWith(doc *goquery.Document, sel string, match func(*goquery.Selection) bool) string {
	best := ""
	doc.Find(sel).Each(func(i int, s *goquery.Selection) {
		if !match(s) {
			return
		}
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		if best == "" || len(text) < len(best) {
			best = text
		}
	})
	return best
}

func stripHeading(text string, headings ...string) string {
	for _, h := range headings {
		text = strings.ReplaceAll(text, h, "")
		text = strings.ReplaceAll(text, strings.ToUpper(h), "")
	}
	return text
}
