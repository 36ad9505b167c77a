// Package export encodes query results into downloadable documents. The
// format set is closed: every format is an Encoder in the registry below,
// conforming to the same rows -> (bytes, media type, extension) contract.
// Encoders never fail on empty input; they emit a structurally valid empty
// document instead. Formats that embed point geometry silently drop rows
// with missing coordinates.
package export

import (
	"sort"
	"strings"

	"placequery/internal/domain"
)

// Format identifies one supported export format.
type Format string

// Supported export formats.
const (
	FormatCSV       Format = "csv"
	FormatGeoJSON   Format = "geojson"
	FormatKML       Format = "kml"
	FormatParquet   Format = "parquet"
	FormatShapefile Format = "shapefile"
)

// Encoder turns an ordered result set into one document.
type Encoder interface {
	Encode(rs *domain.ResultSet) ([]byte, error)
	MediaType() string
	Extension() string
}

var registry = map[Format]Encoder{
	FormatCSV:       csvEncoder{},
	FormatGeoJSON:   geoJSONEncoder{},
	FormatKML:       kmlEncoder{},
	FormatParquet:   parquetEncoder{},
	FormatShapefile: shapefileEncoder{},
}

// Row ceilings used when validating a limit against a known export target.
var maxRows = map[Format]int{
	FormatCSV:       1_000_000,
	FormatGeoJSON:   500_000,
	FormatKML:       50_000,
	FormatParquet:   1_000_000,
	FormatShapefile: 100_000,
}

// ParseFormat resolves a format identifier, case-insensitively.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := registry[f]; !ok {
		return "", domain.ErrValidation("unsupported export format: %s (supported: %s)",
			name, strings.Join(SupportedFormats(), ", "))
	}
	return f, nil
}

// For returns the encoder for a format.
func For(f Format) (Encoder, error) {
	enc, ok := registry[f]
	if !ok {
		return nil, domain.ErrValidation("unsupported export format: %s", f)
	}
	return enc, nil
}

// MaxRowsFor returns the row ceiling for a format, or the generic ceiling for
// an unknown one.
func MaxRowsFor(f Format) int {
	if n, ok := maxRows[f]; ok {
		return n
	}
	return domain.GenericLimitCeiling
}

// SupportedFormats lists the registered format names, sorted.
func SupportedFormats() []string {
	names := make([]string, 0, len(registry))
	for f := range registry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}
