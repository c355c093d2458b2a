package project

import "time"

// Status is the editing lifecycle state of a project.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusEditing         Status = "editing"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusProduction      Status = "production"
	StatusLocked          Status = "locked"
	StatusSubmitted       Status = "submitted"
	StatusCompleted       Status = "completed"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusEditing, StatusPendingApproval, StatusApproved,
		StatusProduction, StatusLocked, StatusSubmitted, StatusCompleted:
		return true
	}
	return false
}

// PageType classifies a page within the book block.
type PageType string

const (
	PageRegular    PageType = "regular"
	PageGuardFront PageType = "guard_front"
	PageGuardBack  PageType = "guard_back"
	PageTitle      PageType = "title"
	PageDedication PageType = "dedication"
)

// IsValid reports whether t is a known page type.
func (t PageType) IsValid() bool {
	switch t {
	case PageRegular, PageGuardFront, PageGuardBack, PageTitle, PageDedication:
		return true
	}
	return false
}

// IsGuard reports whether t is a structural guard page.
func (t PageType) IsGuard() bool {
	return t == PageGuardFront || t == PageGuardBack
}

// ElementType is the kind of layout element placed on a page.
type ElementType string

const (
	ElementPhoto ElementType = "photo"
	ElementText  ElementType = "text"
	ElementShape ElementType = "shape"
)

// Frame is the element geometry in page millimetres.
type Frame struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation,omitempty"`
}

// Element is a photo, text box or shape on a page.
type Element struct {
	ID     string         `json:"id"`
	Type   ElementType    `json:"type"`
	Frame  Frame          `json:"frame"`
	ZIndex int            `json:"z_index,omitempty"`
	Props  map[string]any `json:"props,omitempty"`
}

// Page is a single page of the book block. Pages sharing a SpreadID form a pair.
type Page struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	PageNumber      int       `json:"page_number"`
	PageType        PageType  `json:"page_type"`
	TemplateID      *string   `json:"template_id,omitempty"`
	SpreadID        string    `json:"spread_id"`
	Elements        []Element `json:"elements"`
	BackgroundColor string    `json:"background_color,omitempty"`
}

// Project is the photobook aggregate root. CurrentVersion is the optimistic
// concurrency token and only ever increases.
type Project struct {
	ID              string         `json:"id"`
	TenantID        string         `json:"tenant_id"`
	OwnerID         string         `json:"owner_id"`
	Name            string         `json:"name"`
	Status          Status         `json:"status"`
	ProductID       *string        `json:"product_id,omitempty"`
	FormatID        *string        `json:"format_id,omitempty"`
	PaperID         *string        `json:"paper_id,omitempty"`
	CoverTypeID     *string        `json:"cover_type_id,omitempty"`
	PageCount       int            `json:"page_count"`
	SpineWidth      float64        `json:"spine_width"`
	Width           float64        `json:"width"`
	Height          float64        `json:"height"`
	Bleed           float64        `json:"bleed"`
	SafeMargin      float64        `json:"safe_margin"`
	GutterMargin    float64        `json:"gutter_margin"`
	Settings        map[string]any `json:"settings"`
	CurrentVersion  int64          `json:"current_version"`
	LockedAt        *time.Time     `json:"locked_at,omitempty"`
	LockedVersionID *string        `json:"locked_version_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// IsLocked reports whether the project is frozen for production.
func (p *Project) IsLocked() bool {
	return p.Status == StatusLocked || p.LockedVersionID != nil
}

// Summary is a lightweight representation for listing
type Summary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Status         Status    `json:"status"`
	PageCount      int       `json:"page_count"`
	CurrentVersion int64     `json:"current_version"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Patch is a partial update. Nil fields are left untouched; an empty string
// clears an optional catalog reference.
type Patch struct {
	Name         *string        `json:"name,omitempty"`
	Status       *Status        `json:"status,omitempty"`
	ProductID    *string        `json:"product_id,omitempty"`
	FormatID     *string        `json:"format_id,omitempty"`
	PaperID      *string        `json:"paper_id,omitempty"`
	CoverTypeID  *string        `json:"cover_type_id,omitempty"`
	Width        *float64       `json:"width,omitempty"`
	Height       *float64       `json:"height,omitempty"`
	Bleed        *float64       `json:"bleed,omitempty"`
	SafeMargin   *float64       `json:"safe_margin,omitempty"`
	GutterMargin *float64       `json:"gutter_margin,omitempty"`
	Settings     map[string]any `json:"settings,omitempty"`
	Pages        []Page         `json:"pages,omitempty"`
}

// TouchesContent reports whether the patch changes anything beyond status.
func (p Patch) TouchesContent() bool {
	return p.Name != nil || p.ProductID != nil || p.FormatID != nil || p.PaperID != nil ||
		p.CoverTypeID != nil || p.Width != nil || p.Height != nil || p.Bleed != nil ||
		p.SafeMargin != nil || p.GutterMargin != nil || p.Settings != nil || p.Pages != nil
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Status == nil && !p.TouchesContent()
}
