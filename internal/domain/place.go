package domain

// Place is one row of the fixed query projection.
// Longitude/Latitude are nil when the source geometry is missing.
type Place struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	State     string   `json:"state"`
	City      string   `json:"city"`
	Longitude *float64 `json:"longitude"`
	Latitude  *float64 `json:"latitude"`
}

// HasCoordinates reports whether both coordinates are present.
func (p *Place) HasCoordinates() bool {
	return p.Longitude != nil && p.Latitude != nil
}

// ResultSet holds the rows returned by one executed query.
type ResultSet struct {
	Places []Place
}

// RowCount returns the number of rows.
func (r *ResultSet) RowCount() int {
	if r == nil {
		return 0
	}
	return len(r.Places)
}

// Empty reports whether the query matched zero rows.
func (r *ResultSet) Empty() bool { return r.RowCount() == 0 }
