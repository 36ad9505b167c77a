package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"placequery/internal/domain"
)

// specFlags collects the filter inputs shared by the compile and query
// commands. A YAML spec file provides the base; individual flags override it.
type specFlags struct {
	specFile   string
	state      string
	bbox       string
	categories []string
	limit      int
}

func (f *specFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.specFile, "spec", "", "YAML file carrying a filter spec")
	fs.StringVar(&f.state, "state", "", "two-letter US state or territory code")
	fs.StringVar(&f.bbox, "bbox", "", "bounding box as xmin,xmax,ymin,ymax")
	fs.StringSliceVar(&f.categories, "category", nil, "place category (repeatable)")
	fs.IntVar(&f.limit, "limit", 0, "maximum number of rows (0 = unlimited)")
}

// resolve assembles and validates the FilterSpec from the spec file and flags.
func (f *specFlags) resolve() (domain.FilterSpec, error) {
	var spec domain.FilterSpec

	if f.specFile != "" {
		data, err := os.ReadFile(f.specFile)
		if err != nil {
			return spec, fmt.Errorf("read spec file: %w", err)
		}
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return spec, fmt.Errorf("parse spec file: %w", err)
		}
	}

	if len(f.categories) > 0 {
		spec.Categories = spec.Categories[:0]
		for _, c := range f.categories {
			spec.Categories = append(spec.Categories, domain.NormalizeCategory(c))
		}
	}

	// A bbox flag wins over a state flag, mirroring the compiler's own
	// spatial precedence.
	switch {
	case f.bbox != "":
		box, err := parseBBox(f.bbox)
		if err != nil {
			return spec, err
		}
		spec.Spatial = box
	case f.state != "":
		spec.Spatial = domain.SpatialFilter{
			Mode: domain.SpatialModeState,
			Code: strings.ToUpper(strings.TrimSpace(f.state)),
		}
	}

	if f.limit > 0 {
		limit := f.limit
		spec.Limit = &limit
	}

	if err := spec.Validate(); err != nil {
		return spec, err
	}
	return spec, nil
}

// parseBBox parses the caller order xmin,xmax,ymin,ymax.
func parseBBox(raw string) (domain.SpatialFilter, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return domain.SpatialFilter{}, fmt.Errorf("bbox must be xmin,xmax,ymin,ymax, got %q", raw)
	}
	vals := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return domain.SpatialFilter{}, fmt.Errorf("bbox coordinate %q: %w", part, err)
		}
		vals[i] = v
	}
	return domain.SpatialFilter{
		Mode: domain.SpatialModeBBox,
		XMin: vals[0], XMax: vals[1], YMin: vals[2], YMax: vals[3],
	}, nil
}
