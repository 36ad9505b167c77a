package export

import (
	"bytes"
	"fmt"

	kml "github.com/twpayne/go-kml/v3"

	"placequery/internal/domain"
)

// kmlEncoder emits a KML document of point placemarks for Google Earth and
// similar viewers. Rows without coordinates are dropped.
type kmlEncoder struct{}

func (kmlEncoder) Encode(rs *domain.ResultSet) ([]byte, error) {
	children := []kml.Element{
		kml.Name("Overture Maps Places Export"),
		kml.Description("Exported places data from Overture Maps"),
	}
	if rs != nil {
		for i := range rs.Places {
			p := &rs.Places[i]
			if !p.HasCoordinates() {
				continue
			}
			children = append(children, kml.Placemark(
				kml.Name(p.Name),
				kml.Description(fmt.Sprintf("Category: %s / City: %s / State: %s", p.Category, p.City, p.State)),
				kml.Point(
					kml.Coordinates(kml.Coordinate{Lon: *p.Longitude, Lat: *p.Latitude}),
				),
			))
		}
	}

	var buf bytes.Buffer
	if err := kml.KML(kml.Document(children...)).WriteIndent(&buf, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (kmlEncoder) MediaType() string { return "application/vnd.google-earth.kml+xml" }
func (kmlEncoder) Extension() string { return "kml" }
