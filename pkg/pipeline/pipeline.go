// Package pipeline provides the export pipeline for fretsheet.
//
// This package implements the complete load → layout → render pipeline used
// by the CLI and the HTTP server, so both produce byte-identical exports.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read a sheet from a store or a JSON record file
//  2. Layout: Allocate slots and position every cell on the page
//  3. Render: Generate output in various formats (SVG, PNG, PDF, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, sheet, pipeline.Options{
//	    Formats: []string{"pdf"},
//	})
//	pdf := result.Artifacts["pdf"]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/fretsheet/pkg/cache"
	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/grid"
	"github.com/matzehuels/fretsheet/pkg/render/layout"
	"github.com/matzehuels/fretsheet/pkg/render/styles"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0

	// MaxScale bounds PNG output to keep raster exports reasonable.
	MaxScale = 8.0

	// DefaultStyle is the default visual style.
	DefaultStyle = styles.Default

	// DefaultParallelism bounds concurrent format renders.
	DefaultParallelism = 4
)

// DefaultMode is the layout mode the CLI and server export with. The zero
// Options value lays out interactively.
const DefaultMode = grid.ExportPreview

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the export pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Layout options
	Mode grid.Mode `json:"-"`

	// Render options
	Formats []string `json:"formats,omitempty"`
	Style   string   `json:"style,omitempty"`
	Scale   float64  `json:"scale,omitempty"`

	// IDs tags SVG cells with slot and diagram attributes.
	IDs bool `json:"ids,omitempty"`

	// EmptySlots outlines unfilled interactive slots.
	EmptySlots bool `json:"empty_slots,omitempty"`

	// Refresh bypasses cached layouts and artifacts.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// SheetHash is the content hash of the sheet's persisted record.
	SheetHash string

	// Page is the positioned page description.
	Page layout.Page

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Diagrams   int
	Slots      int
	Overflow   int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the page came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStyle checks that a style is registered.
func ValidateStyle(style string) error {
	if _, ok := styles.Lookup(style); !ok {
		return errors.New(errors.ErrCodeInvalidStyle, "invalid style: %q (must be one of: %s)", style, strings.Join(styles.Names(), ", "))
	}
	return nil
}

// ValidateScale checks that a PNG scale factor is usable.
func ValidateScale(scale float64) error {
	if scale <= 0 || scale > MaxScale {
		return errors.New(errors.ErrCodeInvalidInput, "invalid scale: %v (must be in (0, %v])", scale, MaxScale)
	}
	return nil
}

// ParseFormats splits a comma-separated format list, trimming blanks and
// dropping duplicates.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateStyle(o.Style); err != nil {
		return err
	}
	if err := ValidateScale(o.Scale); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// StyleValue returns the resolved style, falling back to the default.
func (o *Options) StyleValue() styles.Style {
	if s, ok := styles.Lookup(o.Style); ok {
		return s
	}
	s, _ := styles.Lookup(DefaultStyle)
	return s
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{Mode: o.Mode.String()}
}

// ArtifactKeyOpts returns cache key options for artifact rendering. Scale
// only affects PNG output, so other formats share entries across scales.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, Style: o.Style}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	if o.IDs {
		k.Style += "+ids"
	}
	if o.EmptySlots {
		k.Style += "+empty"
	}
	return k
}

func (o *Options) String() string {
	return fmt.Sprintf("mode=%s formats=%s style=%s", o.Mode, strings.Join(o.Formats, ","), o.Style)
}
