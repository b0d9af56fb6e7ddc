package navigator

import (
	"fmt"
	"math/rand"
	"net/url"
	"regexp"
	"strings"
)

// Step is one page load on the way to a listing.
type Step struct {
	Name string
	URL  string
}

var brandSlug = regexp.MustCompile(`/auto/[^/]+/([a-z]+)`)

// PlanPaths builds the plausible multi-step routes from the site root to the
// listing. Walking through category pages instead of jumping straight to the
// target is a deliberate anti-detection measure: a direct-to-URL
// implementation is a behavioral regression, not a simplification. The
// degenerate single-step path is returned only when nothing better can be
// planned from the URL shape.
func PlanPaths(listingURL string) [][]Step {
	u, err := url.Parse(listingURL)
	if err != nil || u.Host == "" {
		return [][]Step{{{Name: "listing", URL: listingURL}}}
	}
	base := fmt.Sprintf("%s://%s/", u.Scheme, u.Host)

	var brand string
	if m := brandSlug.FindStringSubmatch(strings.ToLower(u.Path)); m != nil {
		brand = m[1]
	}

	var paths [][]Step
	if strings.Contains(u.Path, "/seminuevo/") {
		paths = append(paths,
			[]Step{
				{Name: "home", URL: base},
				{Name: "category cars-for-sale", URL: base + "venta-de-autos"},
				{Name: "listing", URL: listingURL},
			},
			[]Step{
				{Name: "home", URL: base},
				{Name: "category semi-new", URL: base + "venta-de-autos-seminuevos"},
				{Name: "listing", URL: listingURL},
			},
		)
	}
	if brand != "" {
		paths = append(paths, []Step{
			{Name: "home", URL: base},
			{Name: "category used", URL: base + "venta-de-autos-usados"},
			{Name: "brand filter " + brand, URL: base + "venta-de-autos-usados-" + brand},
			{Name: "listing", URL: listingURL},
		})
	}
	if len(paths) == 0 {
		paths = append(paths, []Step{{Name: "listing", URL: listingURL}})
	}
	return paths
}

// ChoosePath picks one of the planned routes at random so repeated visits do
// not replay an identical click trail.
func ChoosePath(paths [][]Step, rnd *rand.Rand) []Step {
	if len(paths) == 1 {
		return paths[0]
	}
	return paths[rnd.Intn(len(paths))]
}
