package domain

import "time"

// Origin identifies which pool a listing target came from.
type Origin string

const (
	OriginBacklog Origin = "backlog"
	OriginRevisit Origin = "revisit"
)

// ListingTarget is one URL to harvest, claimed by exactly one worker per run.
// Processed-state is owned by the external persistence layer; the core only
// reports outcomes back through a ResultReporter.
type ListingTarget struct {
	URL         string
	Origin      Origin
	LastScraped *time.Time
}

// Transmission is the normalized gearbox type of a listing.
type Transmission string

const (
	TransmissionManual    Transmission = "manual"
	TransmissionAutomatic Transmission = "automatic"
	TransmissionUnknown   Transmission = "unknown"
)

// Price is an extracted price with the currency assumed from the matched text.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"` // "USD" or "PEN"
}

// Location is a district/province/department triplet. Any field may be empty
// when the text did not yield a confident match.
type Location struct {
	District   string `json:"district,omitempty"`
	Province   string `json:"province,omitempty"`
	Department string `json:"department,omitempty"`
}

// Provenance records how a field value was obtained.
type Provenance string

const (
	// ProvenanceVerbatim means the value was lifted directly from matched text.
	ProvenanceVerbatim Provenance = "verbatim"
	// ProvenanceDerived means the value was computed or normalized from text.
	ProvenanceDerived Provenance = "derived"
)

// ExtractionResult is the structured record produced for one listing.
// Every field is either populated from matched text or absent (nil/zero);
// no placeholder strings. Immutable once built.
type ExtractionResult struct {
	URL           string                `json:"url"`
	Title         string                `json:"title,omitempty"`
	Brand         string                `json:"brand,omitempty"`
	BrandVerified bool                  `json:"brand_verified"`
	Year          *int                  `json:"year,omitempty"`
	Price         *Price                `json:"price,omitempty"`
	MileageKM     *int                  `json:"mileage_km,omitempty"`
	Transmission  Transmission          `json:"transmission"`
	Location      Location              `json:"location"`
	IsSingleOwner bool                  `json:"is_single_owner"`
	SpecsBlock    string                `json:"specifications_block,omitempty"`
	Description   string                `json:"description,omitempty"`
	ExtractedAt   time.Time             `json:"extracted_at"`
	Confidence    map[string]Provenance `json:"confidence,omitempty"`
}

// OutcomeKind tags the per-listing result handed back to the caller.
type OutcomeKind string

const (
	OutcomeSuccess     OutcomeKind = "success"
	OutcomeSoftFailure OutcomeKind = "soft_failure"
	OutcomeHardFailure OutcomeKind = "hard_failure"
)

// ExtractionOutcome is the contract returned to the caller for each listing.
// Success carries the result and the written artifact's identity. SoftFailure
// may carry a partial result. HardFailure carries only the reason.
type ExtractionOutcome struct {
	Kind       OutcomeKind
	Target     ListingTarget
	Result     *ExtractionResult
	ArtifactID string
	Reason     string
}
