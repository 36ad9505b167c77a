// Package sqlbuild compiles a validated FilterSpec into DuckDB SQL text.
//
// Compilation is a pure function: the same spec always yields byte-identical
// text. Category literals are quote-escaped; input validation in the domain
// package remains the primary injection gate.
package sqlbuild

import (
	"strconv"
	"strings"

	"placequery/internal/domain"
)

// projection is the fixed column list of every row query. Longitude and
// latitude are derived from the geometry value.
const projection = `SELECT
    id,
    names.primary AS name,
    categories.primary AS category,
    addresses[1].region AS state,
    addresses[1].locality AS city,
    ST_X(geometry) AS longitude,
    ST_Y(geometry) AS latitude
FROM places`

const countProjection = `SELECT COUNT(*) AS count FROM places`

// CompiledQuery pairs the generated text with the spec it was derived from.
// It has no identity beyond content equality.
type CompiledQuery struct {
	Text string
	Spec domain.FilterSpec
}

// Compile builds the row query for spec.
func Compile(spec domain.FilterSpec) CompiledQuery {
	return CompiledQuery{Text: Build(spec), Spec: spec}
}

// Build returns the row query text for spec: fixed projection, AND-joined
// predicates, and a trailing LIMIT when spec carries a positive limit.
func Build(spec domain.FilterSpec) string {
	var b strings.Builder
	b.WriteString(projection)
	writeWhere(&b, spec)
	if spec.Limit != nil && *spec.Limit > 0 {
		b.WriteString("\nLIMIT ")
		b.WriteString(strconv.Itoa(*spec.Limit))
	}
	return b.String()
}

// BuildCount returns the exact-count variant: single count aggregate, same
// predicates, never a LIMIT.
func BuildCount(spec domain.FilterSpec) string {
	var b strings.Builder
	b.WriteString(countProjection)
	writeWhere(&b, spec)
	return b.String()
}

// writeWhere appends the WHERE clause, or nothing when spec carries no
// filterable predicate.
func writeWhere(b *strings.Builder, spec domain.FilterSpec) {
	conditions := predicates(spec)
	if len(conditions) == 0 {
		return
	}
	b.WriteString("\nWHERE ")
	b.WriteString(strings.Join(conditions, "\nAND "))
}

func predicates(spec domain.FilterSpec) []string {
	var conditions []string

	if len(spec.Categories) > 0 {
		quoted := make([]string, len(spec.Categories))
		for i, c := range spec.Categories {
			quoted[i] = quoteLiteral(c)
		}
		conditions = append(conditions, "categories.primary IN ("+strings.Join(quoted, ", ")+")")
	}

	// Bounding box takes precedence over a state code: the containment
	// predicate filters on the actual point location and suppresses the
	// region-equality predicate entirely.
	switch spec.Spatial.Mode {
	case domain.SpatialModeBBox:
		// ST_MakeEnvelope consumes corners as (xmin, ymin, xmax, ymax);
		// the spec carries them as (xmin, xmax, ymin, ymax).
		conditions = append(conditions,
			"ST_Within(geometry, ST_MakeEnvelope("+
				formatCoord(spec.Spatial.XMin)+", "+
				formatCoord(spec.Spatial.YMin)+", "+
				formatCoord(spec.Spatial.XMax)+", "+
				formatCoord(spec.Spatial.YMax)+"))")
	case domain.SpatialModeState:
		if spec.Spatial.Code != "" {
			conditions = append(conditions, "addresses[1].region = "+quoteLiteral(spec.Spatial.Code))
		}
	}

	return conditions
}

// quoteLiteral wraps s in single quotes, doubling any embedded quote.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// formatCoord renders a coordinate with the shortest exact representation so
// compilation stays deterministic.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
