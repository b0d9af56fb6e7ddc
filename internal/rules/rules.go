package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// RuleSet holds the static lookup tables the extraction engine consults:
// brand canonicalization and single-owner phrase rules. It is built once at
// startup and read-only afterwards, so it is safe to share across workers.
type RuleSet struct {
	synonyms     map[string]string // folded synonym -> canonical brand
	ownerPhrases []string          // folded
	exclusions   []string          // folded
}

// brandDocument mirrors the brand synonym JSON: canonical name -> synonyms.
type brandDocument map[string][]string

// ownerDocument mirrors the ownership rule JSON.
type ownerDocument struct {
	Phrases    []string `json:"frases_clave"`
	Exclusions []string `json:"exclusiones"`
}

// Load reads both rule documents and builds an immutable RuleSet.
// A synonym claimed by two canonical brands is a conflict and fails the
// load; silently picking one would corrupt downstream brand counts.
func Load(brandPath, ownerPath string) (*RuleSet, error) {
	brandRaw, err := os.ReadFile(brandPath)
	if err != nil {
		return nil, fmt.Errorf("read brand rules: %w", err)
	}
	var brands brandDocument
	if err := json.Unmarshal(brandRaw, &brands); err != nil {
		return nil, fmt.Errorf("parse brand rules: %w", err)
	}

	ownerRaw, err := os.ReadFile(ownerPath)
	if err != nil {
		return nil, fmt.Errorf("read owner rules: %w", err)
	}
	var owners ownerDocument
	if err := json.Unmarshal(ownerRaw, &owners); err != nil {
		return nil, fmt.Errorf("parse owner rules: %w", err)
	}

	return New(brands, owners.Phrases, owners.Exclusions)
}

// New builds a RuleSet from in-memory tables. Load is a thin JSON wrapper
// around it.
func New(brands map[string][]string, phrases, exclusions []string) (*RuleSet, error) {
	rs := &RuleSet{synonyms: make(map[string]string)}

	// Deterministic iteration so a conflict always names the same pair.
	canonicals := make([]string, 0, len(brands))
	for canonical := range brands {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)

	for _, canonical := range canonicals {
		foldedCanonical := Fold(canonical)
		for _, syn := range append([]string{canonical}, brands[canonical]...) {
			key := Fold(syn)
			if key == "" {
				continue
			}
			if existing, ok := rs.synonyms[key]; ok && existing != foldedCanonical {
				return nil, fmt.Errorf("brand synonym conflict: %q maps to both %q and %q", syn, existing, canonical)
			}
			rs.synonyms[key] = foldedCanonical
		}
	}

	for _, p := range phrases {
		if f := Fold(p); f != "" {
			rs.ownerPhrases = append(rs.ownerPhrases, f)
		}
	}
	for _, e := range exclusions {
		if f := Fold(e); f != "" {
			rs.exclusions = append(rs.exclusions, f)
		}
	}
	if len(rs.ownerPhrases) == 0 {
		return nil, fmt.Errorf("owner rules: no key phrases defined")
	}
	return rs, nil
}

// CanonicalBrand resolves a brand token through the synonym map. Unmapped
// tokens pass through folded but are reported unverified, never discarded.
func (r *RuleSet) CanonicalBrand(token string) (brand string, verified bool) {
	key := Fold(token)
	if canonical, ok := r.synonyms[key]; ok {
		return canonical, true
	}
	return key, false
}

// OwnerPhrases returns the folded single-owner key phrases.
func (r *RuleSet) OwnerPhrases() []string { return r.ownerPhrases }

// OwnerExclusions returns the folded negated-phrasing exclusions.
func (r *RuleSet) OwnerExclusions() []string { return r.exclusions }
