package export

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"placequery/internal/domain"
)

var csvHeader = []string{"id", "name", "category", "state", "city", "longitude", "latitude"}

// csvEncoder writes the fixed projection as RFC 4180 CSV with a header row.
// Missing coordinates become empty cells; rows are kept.
type csvEncoder struct{}

func (csvEncoder) Encode(rs *domain.ResultSet) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	if rs != nil {
		for i := range rs.Places {
			p := &rs.Places[i]
			row := []string{p.ID, p.Name, p.Category, p.State, p.City, formatOptFloat(p.Longitude), formatOptFloat(p.Latitude)}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (csvEncoder) MediaType() string { return "text/csv" }
func (csvEncoder) Extension() string { return "csv" }

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
