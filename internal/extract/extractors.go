package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/RichGutz/Scraper.Neoauto/internal/domain"
	"github.com/RichGutz/Scraper.Neoauto/internal/rules"
)

// Each extractor is independent and failure-isolated: no match means an
// absent field (nil / zero value), never a placeholder.

var (
	priceUSDLabeled = regexp.MustCompile(`(?i)precio\s*:?\s*US\$\s*([\d][\d.,]*)`)
	priceUSD        = regexp.MustCompile(`(?i)(?:US\$|USD)\s*([\d][\d.,]*)`)
	pricePEN        = regexp.MustCompile(`(?i)S/\.?\s*([\d][\d.,]*)`)

	mileageLabeled = regexp.MustCompile(`(?i)kilometraje\s*:?\s*([\d][\d.,]*)\s*km`)
	mileageBare    = regexp.MustCompile(`(?i)\b([\d][\d.,]*)\s*km\b`)

	transmissionLine = regexp.MustCompile(`(?i)transmisi[oó]n\s*:?\s*\n?\s*([a-záéíóúü]+)`)

	yearTail = regexp.MustCompile(`\b(19\d{2}|20\d{2})\s*$`)
)

// extractPrice finds the first confident price match. Labeled US$ prices win
// over bare ones; soles are the last resort. Currency is an assumption
// derived from the matched symbol.
func extractPrice(text string) *domain.Price {
	for _, attempt := range []struct {
		re       *regexp.Regexp
		currency string
	}{
		{priceUSDLabeled, "USD"},
		{priceUSD, "USD"},
		{pricePEN, "PEN"},
	} {
		m := attempt.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		amount, err := parseDecimal(m[1])
		if err != nil || amount <= 0 {
			continue
		}
		return &domain.Price{Amount: amount, Currency: attempt.currency}
	}
	return nil
}

// extractMileage returns kilometers as an integer, or nil.
func extractMileage(text string) *int {
	for _, re := range []*regexp.Regexp{mileageLabeled, mileageBare} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := parseInt(m[1])
		if err != nil || n <= 0 {
			continue
		}
		return &n
	}
	return nil
}

// extractTransmission maps the vocabulary found after a "Transmisión" label.
func extractTransmission(text string) domain.Transmission {
	m := transmissionLine.FindStringSubmatch(text)
	if m == nil {
		return domain.TransmissionUnknown
	}
	switch rules.Fold(m[1]) {
	case "automatica", "automatico", "automatic", "secuencial":
		return domain.TransmissionAutomatic
	case "mecanica", "mecanico", "manual":
		return domain.TransmissionManual
	default:
		return domain.TransmissionUnknown
	}
}

// extractYear reads a model year from the end of the title, where NeoAuto
// consistently places it.
func extractYear(title string) *int {
	m := yearTail.FindStringSubmatch(strings.TrimSpace(title))
	if m == nil {
		return nil
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &y
}

// specsBlock captures the technical-specifications section. The section is
// delimited by its heading and the next known heading; when the closing
// heading is missing the window is bounded to keep unrelated text out.
const specsWindow = 2000

var specsSection = regexp.MustCompile(`(?is)Especificaciones\s+t[eé]cnicas(.*?)(?:Equipamiento|$)`)

func extractSpecsBlock(text string) string {
	m := specsSection.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	block := strings.TrimSpace(m[1])
	if len(block) > specsWindow {
		block = block[:specsWindow]
	}
	return block
}

// brandFromURL pulls the brand token from a NeoAuto listing slug, e.g.
// /auto/seminuevo/toyota-yaris-2018-... -> "toyota".
var listingSlug = regexp.MustCompile(`/auto/[^/]+/([a-zA-Z]+)`)

func brandFromURL(url string) string {
	m := listingSlug.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// isSingleOwner applies the ownership rules: exclusions veto first so that
// negated phrasing ("no es único dueño") never counts as a positive.
func isSingleOwner(text string, rs *rules.RuleSet) bool {
	folded := rules.Fold(text)
	for _, excl := range rs.OwnerExclusions() {
		if strings.Contains(folded, excl) {
			return false
		}
	}
	for _, phrase := range rs.OwnerPhrases() {
		if strings.Contains(folded, phrase) {
			return true
		}
	}
	return false
}

func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func parseInt(s string) (int, error) {
	cleaned := strings.NewReplacer(",", "", ".", "").Replace(s)
	return strconv.Atoi(cleaned)
}
