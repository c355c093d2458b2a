// Package spine sizes the physical cover of a bound book.
package spine

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/rpggio/photobook/internal/domain/catalog"
	"github.com/rpggio/photobook/internal/domain/project"
)

// Dimensions is a flat cover spread in millimetres.
type Dimensions struct {
	Width  float64 `json:"width_mm"`
	Height float64 `json:"height_mm"`
}

// CalculateSpineWidth returns the spine width rounded to the nearest 0.5mm.
func CalculateSpineWidth(pageCount int, paperThicknessMM, bindingToleranceMM float64) float64 {
	raw := float64(pageCount)*paperThicknessMM + bindingToleranceMM
	return math.Round(raw*2) / 2
}

// CalculateCoverSpreadDimensions returns the full wrap-around cover: back,
// spine and front, with bleed on every edge.
func CalculateCoverSpreadDimensions(pageWidth, pageHeight, spineWidth, bleed float64) Dimensions {
	return Dimensions{
		Width:  2*bleed + pageWidth*2 + spineWidth,
		Height: 2*bleed + pageHeight,
	}
}

// Lookup resolves the physical properties the spine depends on.
type Lookup interface {
	Paper(ctx context.Context, id string) (*catalog.Paper, error)
	CoverType(ctx context.Context, id string) (*catalog.CoverType, error)
}

// Sizer computes spine and cover sizes from catalog ids.
type Sizer struct {
	lookup Lookup
	logger *slog.Logger
}

// NewSizer creates a new Sizer.
func NewSizer(lookup Lookup, logger *slog.Logger) *Sizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sizer{lookup: lookup, logger: logger}
}

// SpineWidth resolves paper thickness and binding tolerance and calculates the spine.
func (s *Sizer) SpineWidth(ctx context.Context, paperID, coverTypeID string, pageCount int) (float64, error) {
	paper, err := s.lookup.Paper(ctx, paperID)
	if err != nil {
		return 0, fmt.Errorf("resolving paper: %w", err)
	}
	cover, err := s.lookup.CoverType(ctx, coverTypeID)
	if err != nil {
		return 0, fmt.Errorf("resolving cover type: %w", err)
	}
	width := CalculateSpineWidth(pageCount, paper.ThicknessMM, cover.BindingToleranceMM)
	s.logger.Debug("spine calculated", "paper_id", paperID, "cover_type_id", coverTypeID, "pages", pageCount, "spine_mm", width)
	return width, nil
}

// CoverSpread sizes the cover of a project from its stored trim, bleed and spine.
func (s *Sizer) CoverSpread(proj *project.Project) Dimensions {
	return CalculateCoverSpreadDimensions(proj.Width, proj.Height, proj.SpineWidth, proj.Bleed)
}
