package domain

import (
	"regexp"
	"strings"
)

// Filter bounds enforced before a job is started.
const (
	MaxCategories       = 50
	MaxCategoryLength   = 100
	MaxBBoxExtentDeg    = 50.0
	GenericLimitCeiling = 1_000_000
)

// SpatialMode discriminates the spatial filter variant on the wire.
type SpatialMode string

// Spatial filter variants.
const (
	SpatialModeState SpatialMode = "state"
	SpatialModeBBox  SpatialMode = "bbox"
)

// SpatialFilter carries exactly one spatial selector: a state code or a
// bounding box, discriminated by Mode.
type SpatialFilter struct {
	Mode SpatialMode `json:"mode" yaml:"mode"`

	// State variant.
	Code string `json:"code,omitempty" yaml:"code,omitempty"`

	// BBox variant. Caller order is (xmin, xmax, ymin, ymax).
	XMin float64 `json:"xmin,omitempty" yaml:"xmin,omitempty"`
	XMax float64 `json:"xmax,omitempty" yaml:"xmax,omitempty"`
	YMin float64 `json:"ymin,omitempty" yaml:"ymin,omitempty"`
	YMax float64 `json:"ymax,omitempty" yaml:"ymax,omitempty"`
}

// FilterSpec is the immutable filter input for one query job.
type FilterSpec struct {
	Categories []string      `json:"categories" yaml:"categories"`
	Spatial    SpatialFilter `json:"spatial" yaml:"spatial"`
	Limit      *int          `json:"limit" yaml:"limit,omitempty"`
}

var (
	categoryCharset = regexp.MustCompile(`^[a-zA-Z0-9_\- ]+$`)

	// Deny-listed SQL control-flow fragments. Defense in depth on top of the
	// charset allow-list — not a substitute for literal escaping downstream.
	categoryDenylist = []*regexp.Regexp{
		regexp.MustCompile(`'.*--`),
		regexp.MustCompile(`;`),
		regexp.MustCompile(`(?i)DROP\s+TABLE`),
		regexp.MustCompile(`(?i)DELETE\s+FROM`),
		regexp.MustCompile(`(?i)INSERT\s+INTO`),
		regexp.MustCompile(`(?i)UPDATE\s`),
	}

	multiSpace = regexp.MustCompile(`\s+`)
)

// Validate checks the whole spec against the generic limit ceiling.
// Export-target-specific ceilings are checked separately via ValidateLimit.
func (s *FilterSpec) Validate() error {
	if err := ValidateCategories(s.Categories); err != nil {
		return err
	}
	if err := s.Spatial.Validate(); err != nil {
		return err
	}
	if s.Limit != nil {
		if err := ValidateLimit(*s.Limit, GenericLimitCeiling); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks that exactly one spatial variant is carried and that its
// parameters are in range.
func (f *SpatialFilter) Validate() error {
	switch f.Mode {
	case SpatialModeState:
		return ValidateStateCode(f.Code)
	case SpatialModeBBox:
		if f.Code != "" {
			return ErrValidation("bbox filter must not carry a state code")
		}
		return ValidateBBox(f.XMin, f.XMax, f.YMin, f.YMax)
	default:
		return ErrValidation("spatial mode must be %q or %q, got %q", SpatialModeState, SpatialModeBBox, f.Mode)
	}
}

// ValidateStateCode verifies the code against the fixed state enumeration.
func ValidateStateCode(code string) error {
	if code == "" {
		return ErrValidation("state code cannot be empty")
	}
	if !ValidStateCode(code) {
		return ErrValidation("invalid state code: %s", code)
	}
	return nil
}

// ValidateBBox checks coordinate ranges, corner ordering, and the maximum
// extent guard against unbounded full-dataset scans.
func ValidateBBox(xmin, xmax, ymin, ymax float64) error {
	if xmin < -180 || xmin > 180 {
		return ErrValidation("minimum longitude must be between -180 and 180, got %g", xmin)
	}
	if xmax < -180 || xmax > 180 {
		return ErrValidation("maximum longitude must be between -180 and 180, got %g", xmax)
	}
	if ymin < -90 || ymin > 90 {
		return ErrValidation("minimum latitude must be between -90 and 90, got %g", ymin)
	}
	if ymax < -90 || ymax > 90 {
		return ErrValidation("maximum latitude must be between -90 and 90, got %g", ymax)
	}
	if xmin >= xmax {
		return ErrValidation("minimum longitude (%g) must be less than maximum longitude (%g)", xmin, xmax)
	}
	if ymin >= ymax {
		return ErrValidation("minimum latitude (%g) must be less than maximum latitude (%g)", ymin, ymax)
	}
	if xmax-xmin > MaxBBoxExtentDeg || ymax-ymin > MaxBBoxExtentDeg {
		return ErrValidation("bounding box too large (lon %g°, lat %g°): maximum %g° per axis",
			xmax-xmin, ymax-ymin, MaxBBoxExtentDeg)
	}
	return nil
}

// ValidateCategory checks a single category name against the allow-listed
// charset and the SQL fragment deny-list.
func ValidateCategory(name string) error {
	if name == "" {
		return ErrValidation("category name cannot be empty")
	}
	for _, pattern := range categoryDenylist {
		if pattern.MatchString(name) {
			return ErrValidation("category name contains invalid characters")
		}
	}
	if len(name) > MaxCategoryLength {
		return ErrValidation("category name too long (max %d characters)", MaxCategoryLength)
	}
	if !categoryCharset.MatchString(name) {
		return ErrValidation("category name may only contain letters, digits, spaces, underscores, and hyphens")
	}
	return nil
}

// ValidateCategories checks the category list bounds and each entry.
func ValidateCategories(categories []string) error {
	if len(categories) == 0 {
		return ErrValidation("at least one category is required")
	}
	if len(categories) > MaxCategories {
		return ErrValidation("too many categories (max %d)", MaxCategories)
	}
	for _, c := range categories {
		if err := ValidateCategory(c); err != nil {
			return ErrValidation("invalid category %q: %s", c, err.Error())
		}
	}
	return nil
}

// ValidateLimit checks that limit is positive and within ceiling.
func ValidateLimit(limit, ceiling int) error {
	if limit <= 0 {
		return ErrValidation("limit must be a positive integer, got %d", limit)
	}
	if limit > ceiling {
		return ErrValidation("limit %d exceeds maximum of %d", limit, ceiling)
	}
	return nil
}

// NormalizeCategory folds user-entered category names into the snake_case
// form used by the Overture schema.
func NormalizeCategory(name string) string {
	normalized := strings.TrimSpace(name)
	normalized = multiSpace.ReplaceAllString(normalized, " ")
	normalized = strings.ToLower(normalized)
	return strings.ReplaceAll(normalized, " ", "_")
}
