package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placequery/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

// sampleRows returns two located places and one with missing coordinates.
func sampleRows() *domain.ResultSet {
	return &domain.ResultSet{Places: []domain.Place{
		{
			ID: "08f1", Name: "Vanderbilt Hospital", Category: "hospital",
			State: "TN", City: "Nashville",
			Longitude: floatPtr(-86.8027), Latitude: floatPtr(36.1445),
		},
		{
			ID: "08f2", Name: "Centennial Park", Category: "park",
			State: "TN", City: "Nashville",
			Longitude: floatPtr(-86.8128), Latitude: floatPtr(36.1490),
		},
		{
			ID: "08f3", Name: "Unlocated Place", Category: "hospital",
			State: "TN", City: "Memphis",
		},
	}}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "csv", want: FormatCSV},
		{in: "GeoJSON", want: FormatGeoJSON},
		{in: " KML ", want: FormatKML},
		{in: "parquet", want: FormatParquet},
		{in: "shapefile", want: FormatShapefile},
		{in: "xlsx", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				var validation *domain.ValidationError
				assert.ErrorAs(t, err, &validation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMaxRowsFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1_000_000, MaxRowsFor(FormatCSV))
	assert.Equal(t, 500_000, MaxRowsFor(FormatGeoJSON))
	assert.Equal(t, 50_000, MaxRowsFor(FormatKML))
	assert.Equal(t, 1_000_000, MaxRowsFor(FormatParquet))
	assert.Equal(t, 100_000, MaxRowsFor(FormatShapefile))
	assert.Equal(t, domain.GenericLimitCeiling, MaxRowsFor(Format("unknown")))
}

func TestSupportedFormats(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"csv", "geojson", "kml", "parquet", "shapefile"}, SupportedFormats())
}

func TestEncoders_EmptyInput(t *testing.T) {
	t.Parallel()

	for name, enc := range registry {
		t.Run(string(name), func(t *testing.T) {
			t.Parallel()
			data, err := enc.Encode(&domain.ResultSet{})
			require.NoError(t, err, "encoders never fail on empty input")
			assert.NotEmpty(t, data, "empty export is still a well-formed document")
			assert.NotEmpty(t, enc.MediaType())
			assert.NotEmpty(t, enc.Extension())
		})
	}
}

func TestCSVEncoder(t *testing.T) {
	t.Parallel()

	enc, err := For(FormatCSV)
	require.NoError(t, err)

	data, err := enc.Encode(sampleRows())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header plus all three rows; CSV keeps unlocated places")
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"08f1", "Vanderbilt Hospital", "hospital", "TN", "Nashville", "-86.8027", "36.1445"}, records[1])
	assert.Equal(t, "", records[3][5], "missing coordinates are empty cells")
	assert.Equal(t, "", records[3][6])
}

func TestGeoJSONEncoder(t *testing.T) {
	t.Parallel()

	enc, err := For(FormatGeoJSON)
	require.NoError(t, err)

	data, err := enc.Encode(sampleRows())
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2, "unlocated rows are dropped")
	assert.Equal(t, "Point", fc.Features[0].Geometry.Type)
	assert.Equal(t, []float64{-86.8027, 36.1445}, fc.Features[0].Geometry.Coordinates)
	assert.Equal(t, "Vanderbilt Hospital", fc.Features[0].Properties["name"])

	empty, err := enc.Encode(&domain.ResultSet{})
	require.NoError(t, err)
	assert.Contains(t, string(empty), `"features": []`)
}

func TestKMLEncoder(t *testing.T) {
	t.Parallel()

	enc, err := For(FormatKML)
	require.NoError(t, err)

	data, err := enc.Encode(sampleRows())
	require.NoError(t, err)

	doc := string(data)
	assert.Contains(t, doc, "<kml")
	assert.Equal(t, 2, strings.Count(doc, "<Placemark>"), "unlocated rows are dropped")
	assert.Contains(t, doc, "<name>Vanderbilt Hospital</name>")
	assert.Contains(t, doc, "-86.8027,36.1445")
	assert.NotContains(t, doc, "Unlocated Place")
}

func TestParquetEncoder(t *testing.T) {
	t.Parallel()

	enc, err := For(FormatParquet)
	require.NoError(t, err)

	data, err := enc.Encode(sampleRows())
	require.NoError(t, err)

	// Parquet files are framed by the PAR1 magic at both ends.
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))
}

func TestShapefileEncoder(t *testing.T) {
	t.Parallel()

	enc, err := For(FormatShapefile)
	require.NoError(t, err)
	assert.Equal(t, "application/zip", enc.MediaType())
	assert.Equal(t, "zip", enc.Extension())

	data, err := enc.Encode(sampleRows())
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make(map[string]bool, len(reader.File))
	for _, f := range reader.File {
		names[f.Name] = true
	}
	for _, want := range []string{"places.shp", "places.shx", "places.dbf", "places.prj"} {
		assert.True(t, names[want], "archive must carry %s", want)
	}
}
