package navigator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanPathsSeminuevo(t *testing.T) {
	listing := "https://neoauto.com/auto/seminuevo/toyota-yaris-2018-1234567"
	paths := PlanPaths(listing)
	require.Len(t, paths, 3)

	for _, path := range paths {
		// Every route starts at the home page and ends at the listing.
		require.GreaterOrEqual(t, len(path), 3)
		assert.Equal(t, "https://neoauto.com/", path[0].URL)
		assert.Equal(t, listing, path[len(path)-1].URL)
	}

	assert.Equal(t, "https://neoauto.com/venta-de-autos", paths[0][1].URL)
	assert.Equal(t, "https://neoauto.com/venta-de-autos-seminuevos", paths[1][1].URL)

	// The brand route adds a filter hop before the listing.
	brandPath := paths[2]
	require.Len(t, brandPath, 4)
	assert.Equal(t, "https://neoauto.com/venta-de-autos-usados", brandPath[1].URL)
	assert.Equal(t, "https://neoauto.com/venta-de-autos-usados-toyota", brandPath[2].URL)
}

func TestPlanPathsUsado(t *testing.T) {
	listing := "https://neoauto.com/auto/usado/nissan-sentra-2015-7654321"
	paths := PlanPaths(listing)
	require.Len(t, paths, 1)
	require.Len(t, paths[0], 4)
	assert.Equal(t, "https://neoauto.com/venta-de-autos-usados-nissan", paths[0][2].URL)
	assert.Equal(t, listing, paths[0][3].URL)
}

func TestPlanPathsFallbackSingleStep(t *testing.T) {
	paths := PlanPaths("not a url at all")
	require.Len(t, paths, 1)
	require.Len(t, paths[0], 1)
	assert.Equal(t, "not a url at all", paths[0][0].URL)

	// A parseable URL without a recognizable slug also degenerates.
	paths = PlanPaths("https://neoauto.com/otros/anuncio-123")
	require.Len(t, paths, 1)
	require.Len(t, paths[0], 1)
}

func TestChoosePathCoversAllRoutes(t *testing.T) {
	paths := PlanPaths("https://neoauto.com/auto/seminuevo/kia-rio-2020-42")
	require.Len(t, paths, 3)

	rnd := rand.New(rand.NewSource(7))
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		chosen := ChoosePath(paths, rnd)
		seen[chosen[len(chosen)-2].URL] = true
	}
	assert.Len(t, seen, 3, "all planned routes should be exercised over many choices")
}
