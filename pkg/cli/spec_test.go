package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placequery/internal/domain"
)

func TestParseBBox(t *testing.T) {
	t.Parallel()

	t.Run("caller order xmin,xmax,ymin,ymax", func(t *testing.T) {
		t.Parallel()
		box, err := parseBBox("-90.3, -81.6, 34.9, 36.7")
		require.NoError(t, err)
		assert.Equal(t, domain.SpatialModeBBox, box.Mode)
		assert.Equal(t, -90.3, box.XMin)
		assert.Equal(t, -81.6, box.XMax)
		assert.Equal(t, 34.9, box.YMin)
		assert.Equal(t, 36.7, box.YMax)
	})

	t.Run("wrong arity", func(t *testing.T) {
		t.Parallel()
		_, err := parseBBox("-90.3,-81.6,34.9")
		assert.ErrorContains(t, err, "xmin,xmax,ymin,ymax")
	})

	t.Run("non-numeric coordinate", func(t *testing.T) {
		t.Parallel()
		_, err := parseBBox("-90.3,east,34.9,36.7")
		assert.Error(t, err)
	})
}

func TestSpecFlags_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("flags only", func(t *testing.T) {
		t.Parallel()
		f := specFlags{state: " tn ", categories: []string{" Coffee Shop ", "hospital"}, limit: 500}
		spec, err := f.resolve()
		require.NoError(t, err)
		assert.Equal(t, []string{"coffee_shop", "hospital"}, spec.Categories)
		assert.Equal(t, domain.SpatialModeState, spec.Spatial.Mode)
		assert.Equal(t, "TN", spec.Spatial.Code)
		require.NotNil(t, spec.Limit)
		assert.Equal(t, 500, *spec.Limit)
	})

	t.Run("bbox flag wins over state flag", func(t *testing.T) {
		t.Parallel()
		f := specFlags{state: "TN", bbox: "-90.3,-81.6,34.9,36.7", categories: []string{"hospital"}}
		spec, err := f.resolve()
		require.NoError(t, err)
		assert.Equal(t, domain.SpatialModeBBox, spec.Spatial.Mode)
		assert.Empty(t, spec.Spatial.Code)
	})

	t.Run("spec file with flag overlays", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "spec.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"categories: [hospital, clinic]\nspatial:\n  mode: state\n  code: TN\nlimit: 100\n"), 0o644))

		f := specFlags{specFile: path, categories: []string{"cafe"}}
		spec, err := f.resolve()
		require.NoError(t, err)
		assert.Equal(t, []string{"cafe"}, spec.Categories, "category flags replace the file's list")
		assert.Equal(t, "TN", spec.Spatial.Code, "untouched file fields survive")
		require.NotNil(t, spec.Limit)
		assert.Equal(t, 100, *spec.Limit)
	})

	t.Run("invalid result is rejected", func(t *testing.T) {
		t.Parallel()
		f := specFlags{state: "ZZ", categories: []string{"hospital"}}
		_, err := f.resolve()
		require.Error(t, err)
		var validation *domain.ValidationError
		assert.ErrorAs(t, err, &validation)
	})

	t.Run("missing spec file", func(t *testing.T) {
		t.Parallel()
		f := specFlags{specFile: "/nonexistent/spec.yaml"}
		_, err := f.resolve()
		assert.ErrorContains(t, err, "read spec file")
	})
}
