// Package extract converts distilled listing page content into a structured
// record through a pipeline of independent, failure-isolated extractors.
package extract

import (
	"errors"
	"strings"
	"time"

	"github.com/RichGutz/Scraper.Neoauto/internal/domain"
	"github.com/RichGutz/Scraper.Neoauto/internal/rules"
)

// ErrEmptyContent is returned when there is no readable input at all. It is
// the only fatal extraction error; missing individual fields are absorbed as
// absent values.
var ErrEmptyContent = errors.New("extract: empty or unreadable content")

// Engine runs the field extractors against distilled content. It holds only
// read-only state and is safe for concurrent use.
type Engine struct {
	rules     *rules.RuleSet
	gazetteer *gazetteer
}

// NewEngine builds an Engine over an immutable RuleSet.
func NewEngine(rs *rules.RuleSet) *Engine {
	return &Engine{rules: rs, gazetteer: newGazetteer()}
}

// Extract is a pure function of (content, ruleset, extractedAt): re-running
// it on the same input yields an identical result. The caller supplies the
// capture timestamp so nothing here reads the clock.
func (e *Engine) Extract(c Content, extractedAt time.Time) (*domain.ExtractionResult, error) {
	if c.Empty() {
		return nil, ErrEmptyContent
	}

	searchText := c.Body
	if searchText == "" {
		searchText = c.Title
	}
	// The dedicated price element is the most reliable price source; fall
	// back to scanning the whole text.
	priceText := c.PriceText
	if priceText == "" {
		priceText = searchText
	}

	res := &domain.ExtractionResult{
		URL:          c.URL,
		Title:        strings.TrimSpace(c.Title),
		Transmission: domain.TransmissionUnknown,
		Description:  strings.TrimSpace(c.Description),
		ExtractedAt:  extractedAt,
		Confidence:   make(map[string]domain.Provenance),
	}

	if p := extractPrice(priceText); p != nil {
		res.Price = p
		res.Confidence["price"] = domain.ProvenanceVerbatim
	} else if p := extractPrice(searchText); p != nil {
		res.Price = p
		res.Confidence["price"] = domain.ProvenanceDerived
	}

	if km := extractMileage(searchText); km != nil {
		res.MileageKM = km
		res.Confidence["mileage_km"] = domain.ProvenanceVerbatim
	}

	if t := extractTransmission(searchText); t != domain.TransmissionUnknown {
		res.Transmission = t
		res.Confidence["transmission"] = domain.ProvenanceDerived
	}

	if y := extractYear(res.Title); y != nil {
		res.Year = y
		res.Confidence["year"] = domain.ProvenanceDerived
	}

	if block := extractSpecsBlock(searchText); block != "" {
		res.SpecsBlock = block
		res.Confidence["specifications_block"] = domain.ProvenanceVerbatim
	}

	ownerText := strings.Join([]string{res.Title, res.Description, searchText}, "\n")
	res.IsSingleOwner = isSingleOwner(ownerText, e.rules)
	res.Confidence["is_single_owner"] = domain.ProvenanceDerived

	if loc, prov := e.gazetteer.resolveLocation(locationZones(c, res.Price)); loc.District != "" {
		res.Location = loc
		res.Confidence["location"] = prov
	}

	if token := e.brandToken(c); token != "" {
		brand, verified := e.rules.CanonicalBrand(token)
		res.Brand = brand
		res.BrandVerified = verified
		if verified {
			res.Confidence["brand"] = domain.ProvenanceDerived
		} else {
			res.Confidence["brand"] = domain.ProvenanceVerbatim
		}
	}

	return res, nil
}

// brandToken prefers the URL slug, which NeoAuto builds from the brand, over
// the first word of the title.
func (e *Engine) brandToken(c Content) string {
	if t := brandFromURL(c.URL); t != "" {
		return t
	}
	fields := strings.Fields(c.Title)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
