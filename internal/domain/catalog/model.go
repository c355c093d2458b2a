package catalog

// Format is a printable book format with its trim size and page bounds.
type Format struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	WidthMM        float64 `json:"width_mm"`
	HeightMM       float64 `json:"height_mm"`
	BleedMM        float64 `json:"bleed_mm"`
	SafeMarginMM   float64 `json:"safe_margin_mm"`
	GutterMarginMM float64 `json:"gutter_margin_mm"`
	MinPages       int     `json:"min_pages"`
	MaxPages       int     `json:"max_pages"`
}

// Paper is an interior paper stock.
type Paper struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	ThicknessMM float64 `json:"thickness_mm"`
}

// CoverType is a binding/cover option. The tolerance is added to the spine.
type CoverType struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	BindingToleranceMM float64 `json:"binding_tolerance_mm"`
}

// Limits bounds the total page count of a project.
type Limits struct {
	MinPages int `json:"min_pages"`
	MaxPages int `json:"max_pages"`
}

// DefaultLimits apply when a project has no format bound.
var DefaultLimits = Limits{MinPages: 2, MaxPages: 200}
