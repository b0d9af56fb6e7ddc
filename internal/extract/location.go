package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/RichGutz/Scraper.Neoauto/internal/domain"
	"github.com/RichGutz/Scraper.Neoauto/internal/rules"
)

// limaDistricts is the official gazetteer of Lima districts. Matching runs
// longest-name-first so "San Juan de Miraflores" is never shadowed by
// "Miraflores".
var limaDistricts = []string{
	"Ancón", "Ate", "Barranco", "Breña", "Carabayllo", "Chaclacayo", "Chorrillos",
	"Cieneguilla", "Comas", "El Agustino", "Independencia", "Jesús María", "La Molina",
	"La Victoria", "Lima", "Lince", "Los Olivos", "Lurigancho", "Lurín",
	"Magdalena del Mar", "Miraflores", "Pachacámac", "Pucusana", "Pueblo Libre",
	"Puente Piedra", "Punta Hermosa", "Punta Negra", "Rímac", "San Bartolo",
	"San Borja", "San Isidro", "San Juan de Lurigancho", "San Juan de Miraflores",
	"San Luis", "San Martín de Porres", "San Miguel", "Santa Anita",
	"Santa María del Mar", "Santa Rosa", "Santiago de Surco", "Surquillo",
	"Villa El Salvador", "Villa María del Triunfo",
}

// districtAliases maps colloquial short forms to official district names.
var districtAliases = map[string]string{
	"surco":     "Santiago de Surco",
	"magdalena": "Magdalena del Mar",
}

// ubigeoAnchor matches the "Lima, Lima" (or "Lima, Lima, Lima") tail NeoAuto
// appends to a location line. A district found on such a line is the highest
// confidence signal available.
var ubigeoAnchor = regexp.MustCompile(`\blima\b(?:,\s*lima\b){1,2}`)

type gazetteer struct {
	// folded district name -> official casing, longest first
	entries []gazetteerEntry
}

type gazetteerEntry struct {
	folded   string
	official string
}

func newGazetteer() *gazetteer {
	g := &gazetteer{}
	for _, d := range limaDistricts {
		g.entries = append(g.entries, gazetteerEntry{folded: rules.Fold(d), official: d})
	}
	for alias, official := range districtAliases {
		g.entries = append(g.entries, gazetteerEntry{folded: rules.Fold(alias), official: official})
	}
	sort.Slice(g.entries, func(i, j int) bool {
		return len(g.entries[i].folded) > len(g.entries[j].folded)
	})
	return g
}

// zone is one prioritized slice of the listing text.
type zone struct {
	name string
	text string
}

// locationZones builds the search areas in priority order: text adjacent to
// the title, then text adjacent to the price, then the dedicated location
// element, then the description, then the whole body. Place names close to
// the title or price are far more likely to be the listing's actual location
// than mentions buried in descriptive text.
func locationZones(c Content, price *domain.Price) []zone {
	const window = 200
	var zones []zone

	if t := strings.TrimSpace(c.Title); t != "" {
		if after := contextAfter(c.Body, t, window); after != "" {
			zones = append(zones, zone{name: "title", text: after})
		} else {
			zones = append(zones, zone{name: "title", text: t})
		}
	}
	if price != nil {
		needle := strconv.FormatInt(int64(price.Amount), 10)
		if after := contextAfter(c.Body, needle, window); after != "" {
			zones = append(zones, zone{name: "price", text: after})
		}
	}
	if c.LocationHint != "" {
		zones = append(zones, zone{name: "location", text: c.LocationHint})
	}
	if c.Description != "" {
		zones = append(zones, zone{name: "description", text: c.Description})
	}
	zones = append(zones, zone{name: "body", text: c.Body})
	return zones
}

// contextAfter returns needle plus up to window bytes following its first
// occurrence in text, or "" when absent. Matching is case-insensitive; the
// returned slice preserves the original text.
func contextAfter(text, needle string, window int) string {
	if needle == "" {
		return ""
	}
	i := strings.Index(strings.ToLower(text), strings.ToLower(needle))
	if i < 0 {
		return ""
	}
	end := i + len(needle) + window
	if end > len(text) {
		end = len(text)
	}
	return text[i:end]
}

// resolveLocation scans the prioritized zones, stopping at the first zone
// that yields a match. Within a zone an anchored line ("<district> ... Lima,
// Lima") beats a bare gazetteer hit; across zones the earlier zone always
// wins, even over a stronger match later.
func (g *gazetteer) resolveLocation(zones []zone) (domain.Location, domain.Provenance) {
	for _, z := range zones {
		text := rules.Fold(z.text)
		if text == "" {
			continue
		}

		for _, line := range strings.Split(text, "\n") {
			if !ubigeoAnchor.MatchString(line) {
				continue
			}
			for _, e := range g.entries {
				if e.folded == "lima" {
					continue
				}
				if containsWord(line, e.folded) {
					return domain.Location{District: e.official, Province: "Lima", Department: "Lima"}, domain.ProvenanceVerbatim
				}
			}
			// Anchor with no named district: the listing is in Lima proper.
			return domain.Location{District: "Lima", Province: "Lima", Department: "Lima"}, domain.ProvenanceVerbatim
		}

		// No anchored line in this zone; accept a bare district mention.
		// "Lima" alone is excluded here, it appears in too many unrelated
		// phrases to be a confident district signal.
		for _, e := range g.entries {
			if e.folded == "lima" {
				continue
			}
			if containsWord(text, e.folded) {
				return domain.Location{District: e.official, Province: "Lima", Department: "Lima"}, domain.ProvenanceDerived
			}
		}
	}
	return domain.Location{}, ""
}

// containsWord reports whether needle occurs in text on word boundaries.
func containsWord(text, needle string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		startOK := start == 0 || !isWordByte(text[start-1])
		endOK := end == len(text) || !isWordByte(text[end])
		if startOK && endOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
