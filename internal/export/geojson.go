package export

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"placequery/internal/domain"
)

// geoJSONEncoder emits a FeatureCollection of point features. Rows without
// coordinates are dropped; zero rows still yield a valid empty collection.
type geoJSONEncoder struct{}

func (geoJSONEncoder) Encode(rs *domain.ResultSet) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	if rs != nil {
		for i := range rs.Places {
			p := &rs.Places[i]
			if !p.HasCoordinates() {
				continue
			}
			f := geojson.NewFeature(orb.Point{*p.Longitude, *p.Latitude})
			f.Properties = geojson.Properties{
				"id":       p.ID,
				"name":     p.Name,
				"category": p.Category,
				"state":    p.State,
				"city":     p.City,
			}
			fc.Append(f)
		}
	}
	return json.MarshalIndent(fc, "", "  ")
}

func (geoJSONEncoder) MediaType() string { return "application/geo+json" }
func (geoJSONEncoder) Extension() string { return "geojson" }
