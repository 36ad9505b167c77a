package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestFilterSpec_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		spec    FilterSpec
		wantErr string
	}{
		{
			name: "valid state spec",
			spec: FilterSpec{
				Categories: []string{"hospital", "clinic"},
				Spatial:    SpatialFilter{Mode: SpatialModeState, Code: "TN"},
				Limit:      intPtr(500),
			},
		},
		{
			name: "valid bbox spec",
			spec: FilterSpec{
				Categories: []string{"cafe"},
				Spatial:    SpatialFilter{Mode: SpatialModeBBox, XMin: -90.3, XMax: -81.6, YMin: 34.9, YMax: 36.7},
			},
		},
		{
			name:    "no categories",
			spec:    FilterSpec{Spatial: SpatialFilter{Mode: SpatialModeState, Code: "TN"}},
			wantErr: "at least one category",
		},
		{
			name: "51 categories",
			spec: FilterSpec{
				Categories: make51(),
				Spatial:    SpatialFilter{Mode: SpatialModeState, Code: "TN"},
			},
			wantErr: "too many categories",
		},
		{
			name: "statement separator in category",
			spec: FilterSpec{
				Categories: []string{"hospital; DROP TABLE places"},
				Spatial:    SpatialFilter{Mode: SpatialModeState, Code: "TN"},
			},
			wantErr: "invalid category",
		},
		{
			name: "DDL fragment in category",
			spec: FilterSpec{
				Categories: []string{"drop table users"},
				Spatial:    SpatialFilter{Mode: SpatialModeState, Code: "TN"},
			},
			wantErr: "invalid category",
		},
		{
			name: "comment marker in category",
			spec: FilterSpec{
				Categories: []string{"x' --"},
				Spatial:    SpatialFilter{Mode: SpatialModeState, Code: "TN"},
			},
			wantErr: "invalid category",
		},
		{
			name: "overlong category",
			spec: FilterSpec{
				Categories: []string{strings.Repeat("a", 101)},
				Spatial:    SpatialFilter{Mode: SpatialModeState, Code: "TN"},
			},
			wantErr: "too long",
		},
		{
			name: "disallowed charset",
			spec: FilterSpec{
				Categories: []string{"café"},
				Spatial:    SpatialFilter{Mode: SpatialModeState, Code: "TN"},
			},
			wantErr: "may only contain",
		},
		{
			name: "unknown state code",
			spec: FilterSpec{
				Categories: []string{"hospital"},
				Spatial:    SpatialFilter{Mode: SpatialModeState, Code: "ZZ"},
			},
			wantErr: "invalid state code",
		},
		{
			name: "missing spatial mode",
			spec: FilterSpec{
				Categories: []string{"hospital"},
			},
			wantErr: "spatial mode",
		},
		{
			name: "bbox carrying a state code",
			spec: FilterSpec{
				Categories: []string{"hospital"},
				Spatial:    SpatialFilter{Mode: SpatialModeBBox, Code: "TN", XMin: -90, XMax: -81, YMin: 34, YMax: 36},
			},
			wantErr: "must not carry a state code",
		},
		{
			name: "longitude out of range",
			spec: FilterSpec{
				Categories: []string{"hospital"},
				Spatial:    SpatialFilter{Mode: SpatialModeBBox, XMin: -200, XMax: -81, YMin: 34, YMax: 36},
			},
			wantErr: "minimum longitude",
		},
		{
			name: "latitude out of range",
			spec: FilterSpec{
				Categories: []string{"hospital"},
				Spatial:    SpatialFilter{Mode: SpatialModeBBox, XMin: -90, XMax: -81, YMin: 34, YMax: 95},
			},
			wantErr: "maximum latitude",
		},
		{
			name: "inverted longitude corners",
			spec: FilterSpec{
				Categories: []string{"hospital"},
				Spatial:    SpatialFilter{Mode: SpatialModeBBox, XMin: -81, XMax: -90, YMin: 34, YMax: 36},
			},
			wantErr: "must be less than",
		},
		{
			name: "60 by 60 degree box",
			spec: FilterSpec{
				Categories: []string{"hospital"},
				Spatial:    SpatialFilter{Mode: SpatialModeBBox, XMin: -120, XMax: -60, YMin: 0, YMax: 60},
			},
			wantErr: "too large",
		},
		{
			name: "zero limit",
			spec: FilterSpec{
				Categories: []string{"hospital"},
				Spatial:    SpatialFilter{Mode: SpatialModeState, Code: "TN"},
				Limit:      intPtr(0),
			},
			wantErr: "positive integer",
		},
		{
			name: "limit above generic ceiling",
			spec: FilterSpec{
				Categories: []string{"hospital"},
				Spatial:    SpatialFilter{Mode: SpatialModeState, Code: "TN"},
				Limit:      intPtr(GenericLimitCeiling + 1),
			},
			wantErr: "exceeds maximum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.spec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var validation *ValidationError
			assert.ErrorAs(t, err, &validation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func make51() []string {
	categories := make([]string, 51)
	for i := range categories {
		categories[i] = "category"
	}
	return categories
}

func TestValidateLimit_FormatCeiling(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateLimit(100_000, 100_000))
	err := ValidateLimit(100_001, 100_000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

func TestFilterSpec_WireShape(t *testing.T) {
	t.Parallel()

	t.Run("state variant", func(t *testing.T) {
		t.Parallel()
		raw := `{"categories":["hospital","clinic"],"spatial":{"mode":"state","code":"TN"},"limit":500}`
		var spec FilterSpec
		require.NoError(t, json.Unmarshal([]byte(raw), &spec))
		assert.Equal(t, []string{"hospital", "clinic"}, spec.Categories)
		assert.Equal(t, SpatialModeState, spec.Spatial.Mode)
		assert.Equal(t, "TN", spec.Spatial.Code)
		require.NotNil(t, spec.Limit)
		assert.Equal(t, 500, *spec.Limit)
		assert.NoError(t, spec.Validate())
	})

	t.Run("bbox variant with null limit", func(t *testing.T) {
		t.Parallel()
		raw := `{"categories":["cafe"],"spatial":{"mode":"bbox","xmin":-90.3,"xmax":-81.6,"ymin":34.9,"ymax":36.7},"limit":null}`
		var spec FilterSpec
		require.NoError(t, json.Unmarshal([]byte(raw), &spec))
		assert.Equal(t, SpatialModeBBox, spec.Spatial.Mode)
		assert.Equal(t, -90.3, spec.Spatial.XMin)
		assert.Nil(t, spec.Limit)
		assert.NoError(t, spec.Validate())
	})
}

func TestNormalizeCategory(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "coffee_shop", NormalizeCategory("  Coffee   Shop "))
	assert.Equal(t, "bike_rental", NormalizeCategory("bike_rental"))
}
