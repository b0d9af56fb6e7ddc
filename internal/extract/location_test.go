package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RichGutz/Scraper.Neoauto/internal/domain"
)

func TestResolveLocationAnchoredLine(t *testing.T) {
	g := newGazetteer()

	loc, prov := g.resolveLocation([]zone{
		{name: "body", text: "Toyota Yaris 2018\nMiraflores, Lima, Lima\nPrecio: US$ 12,500"},
	})
	assert.Equal(t, domain.Location{District: "Miraflores", Province: "Lima", Department: "Lima"}, loc)
	assert.Equal(t, domain.ProvenanceVerbatim, prov)
}

func TestResolveLocationAnchorWithoutDistrict(t *testing.T) {
	g := newGazetteer()

	loc, prov := g.resolveLocation([]zone{
		{name: "body", text: "Ubicación: Lima, Lima\nVendo auto"},
	})
	assert.Equal(t, domain.Location{District: "Lima", Province: "Lima", Department: "Lima"}, loc)
	assert.Equal(t, domain.ProvenanceVerbatim, prov)
}

func TestResolveLocationLongestNameWins(t *testing.T) {
	g := newGazetteer()

	loc, _ := g.resolveLocation([]zone{
		{name: "body", text: "Entrego en San Juan de Miraflores, Lima, Lima"},
	})
	assert.Equal(t, "San Juan de Miraflores", loc.District)
}

func TestResolveLocationAlias(t *testing.T) {
	g := newGazetteer()

	loc, prov := g.resolveLocation([]zone{
		{name: "description", text: "se entrega en surco, cerca al óvalo"},
	})
	assert.Equal(t, "Santiago de Surco", loc.District)
	assert.Equal(t, domain.ProvenanceDerived, prov)
}

func TestResolveLocationZonePriority(t *testing.T) {
	g := newGazetteer()

	// The title-adjacent zone names San Isidro; a later zone names Surco.
	// The earlier zone must win even though both would match.
	loc, _ := g.resolveLocation([]zone{
		{name: "title", text: "Toyota Yaris 2018 San Isidro"},
		{name: "body", text: "dueño vive en Surco, Lima, Lima"},
	})
	assert.Equal(t, "San Isidro", loc.District)
}

func TestResolveLocationBareLimaRejected(t *testing.T) {
	g := newGazetteer()

	// "Lima" without the ubigeo anchor is too ambiguous to count.
	loc, prov := g.resolveLocation([]zone{
		{name: "body", text: "el mejor precio de lima para este modelo"},
	})
	assert.Empty(t, loc.District)
	assert.Empty(t, string(prov))
}

func TestResolveLocationWordBoundaries(t *testing.T) {
	g := newGazetteer()

	// "Comas" must not match inside another word.
	loc, _ := g.resolveLocation([]zone{
		{name: "body", text: "auto con comasas... nada que ver"},
	})
	assert.Empty(t, loc.District)
}

func TestResolveLocationNoZones(t *testing.T) {
	g := newGazetteer()

	loc, prov := g.resolveLocation(nil)
	assert.Empty(t, loc.District)
	assert.Empty(t, string(prov))
}

func TestLocationZonesOrder(t *testing.T) {
	c := Content{
		Title:        "Toyota Yaris 2018",
		Body:         "Toyota Yaris 2018 impecable. Precio 12500 dólares. Entrega en San Borja.",
		LocationHint: "Miraflores, Lima, Lima",
		Description:  "auto de casa",
	}
	zones := locationZones(c, &domain.Price{Amount: 12500, Currency: "USD"})

	names := make([]string, len(zones))
	for i, z := range zones {
		names[i] = z.name
	}
	assert.Equal(t, []string{"title", "price", "location", "description", "body"}, names)

	// The title zone carries trailing context from the body, not just the title.
	assert.Contains(t, zones[0].text, "impecable")
}
