package models

// DataSource records where an enrichment record came from.
type DataSource string

const (
	SourceAPI      DataSource = "api"
	SourceCache    DataSource = "cache"
	SourceScraper  DataSource = "scraper"
	SourceFallback DataSource = "fallback"
	SourceDatabase DataSource = "database"
)

// Confidence is the qualitative trust level of a matched record. It is
// surfaced to the user rather than hidden.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// HLTBData holds completion-time figures in hours. A nil field means the
// source had no figure for that style.
type HLTBData struct {
	MainStory     *float64   `json:"main_story"`
	MainExtra     *float64   `json:"main_extra"`
	Completionist *float64   `json:"completionist"`
	AllStyles     *float64   `json:"all_styles"`
	Source        DataSource `json:"source"`
	Confidence    Confidence `json:"confidence"`
	MatchedTitle  string     `json:"matched_title,omitempty"`
}

// HasData reports whether at least one completion figure is populated.
// A record with all four nil is "no usable data", which is distinct from a
// fetch failure.
func (d *HLTBData) HasData() bool {
	if d == nil {
		return false
	}
	return d.MainStory != nil || d.MainExtra != nil || d.Completionist != nil || d.AllStyles != nil
}

// Hours is a convenience constructor for the pointer fields.
func Hours(v float64) *float64 { return &v }
