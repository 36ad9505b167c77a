package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	shp "github.com/jonas-p/go-shp"
	"github.com/klauspost/compress/zip"

	"placequery/internal/domain"
)

// WGS84 well-known text for the .prj sidecar.
const wgs84WKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// shapefileEncoder writes a point shapefile to a scratch directory and bundles
// the .shp/.shx/.dbf/.prj components into a single zip archive. Rows without
// coordinates are dropped; zero rows still produce a valid header-only file.
// DBF field names are capped at 10 characters by the format.
type shapefileEncoder struct{}

func (shapefileEncoder) Encode(rs *domain.ResultSet) ([]byte, error) {
	dir, err := os.MkdirTemp("", "placequery-shp-")
	if err != nil {
		return nil, fmt.Errorf("shapefile scratch dir: %w", err)
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	base := filepath.Join(dir, "places")
	writer, err := shp.Create(base+".shp", shp.POINT)
	if err != nil {
		return nil, fmt.Errorf("create shapefile: %w", err)
	}

	fields := []shp.Field{
		shp.StringField("ID", 40),
		shp.StringField("NAME", 100),
		shp.StringField("CAT", 60),
		shp.StringField("STATE", 20),
		shp.StringField("CITY", 60),
	}
	writer.SetFields(fields)

	if rs != nil {
		row := 0
		for i := range rs.Places {
			p := &rs.Places[i]
			if !p.HasCoordinates() {
				continue
			}
			writer.Write(&shp.Point{X: *p.Longitude, Y: *p.Latitude})
			writer.WriteAttribute(row, 0, p.ID)
			writer.WriteAttribute(row, 1, p.Name)
			writer.WriteAttribute(row, 2, p.Category)
			writer.WriteAttribute(row, 3, p.State)
			writer.WriteAttribute(row, 4, p.City)
			row++
		}
	}
	writer.Close()

	if err := os.WriteFile(base+".prj", []byte(wgs84WKT), 0o644); err != nil {
		return nil, fmt.Errorf("write prj: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, ext := range []string{".shp", ".shx", ".dbf", ".prj"} {
		data, err := os.ReadFile(base + ext)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read %s component: %w", ext, err)
		}
		entry, err := zw.Create("places" + ext)
		if err != nil {
			return nil, err
		}
		if _, err := entry.Write(data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (shapefileEncoder) MediaType() string { return "application/zip" }
func (shapefileEncoder) Extension() string { return "zip" }
