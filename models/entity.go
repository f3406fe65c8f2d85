package models

import "time"

// PageType classifies what kind of product a page represents.
type PageType string

const (
	PageTypeItem     PageType = "item"
	PageTypeDLC      PageType = "dlc"
	PageTypeBundle   PageType = "bundle"
	PageTypeDemo     PageType = "demo"
	PageTypeSoftware PageType = "software"
	PageTypeUnknown  PageType = "unknown"
)

// Origin identifies which surface of the site served the page.
type Origin string

const (
	OriginStore     Origin = "store"
	OriginCommunity Origin = "community"
	OriginLibrary   Origin = "library"
)

// TitleSource records which extraction strategy produced the title.
// Diagnostic only; downstream logic never branches on it.
type TitleSource string

const (
	TitleSourceOGMeta     TitleSource = "og_meta"
	TitleSourceAppName    TitleSource = "app_name"
	TitleSourceJSONLD     TitleSource = "json_ld"
	TitleSourceBreadcrumb TitleSource = "breadcrumb"
	TitleSourceDocTitle   TitleSource = "doc_title"
	TitleSourceFallback   TitleSource = "fallback"
)

// Detection failure codes. These are result codes, not exceptions: detection
// never propagates a panic or error to its caller.
const (
	ErrCodeNoAppID  = "NO_APP_ID"
	ErrCodeNoTitle  = "NO_TITLE"
	ErrCodeExcluded = "EXCLUDED_PAGE"
	ErrCodeInternal = "DETECTION_ERROR"
)

// EntityMetadata holds best-effort secondary attributes. Absent fields are
// not errors.
type EntityMetadata struct {
	Developer          string   `json:"developer,omitempty"`
	Publisher          string   `json:"publisher,omitempty"`
	ReleaseDate        string   `json:"release_date,omitempty"` // ISO-8601 date when parseable
	Price              string   `json:"price,omitempty"`
	Currency           string   `json:"currency,omitempty"`
	DiscountPercent    int      `json:"discount_percent,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	Language           string   `json:"language,omitempty"` // ISO-639-1
	LanguageConfidence float64  `json:"language_confidence,omitempty"`
}

// EntityInfo identifies the game/item a page represents. Created once per
// detection pass and superseded, never mutated, on re-detection.
type EntityInfo struct {
	EntityID    string         `json:"entity_id"`
	Title       string         `json:"title"`
	PageType    PageType       `json:"page_type"`
	Origin      Origin         `json:"origin"`
	URL         string         `json:"url"`
	TitleSource TitleSource    `json:"title_source"`
	Metadata    EntityMetadata `json:"metadata"`
	ExtractedAt time.Time      `json:"extracted_at"`
}

// DetectionResult is the unit the rest of the system consumes. On terminal
// results exactly one of Entity/ErrorCode is populated.
type DetectionResult struct {
	Success             bool          `json:"success"`
	Entity              *EntityInfo   `json:"entity,omitempty"`
	ErrorCode           string        `json:"error_code,omitempty"`
	ErrorDetail         string        `json:"error_detail,omitempty"`
	DetectionTime       time.Duration `json:"detection_time"`
	ContentStillLoading bool          `json:"content_still_loading,omitempty"`
}
