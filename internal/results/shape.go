package results

import "time"

// Row is one returned reading. Date, Block and Position are set for field
// data; Test is set for lab data.
type Row struct {
	ID          string     `db:"id" json:"id"`
	Designation string     `db:"designation" json:"designation"`
	Date        *time.Time `db:"date" json:"date,omitempty"`
	Age         *float64   `db:"age" json:"age"`
	Block       *string    `db:"block" json:"block,omitempty"`
	Position    *string    `db:"position" json:"position,omitempty"`
	Test        *string    `db:"test" json:"test,omitempty"`
	Expansion   *float64   `db:"expansion" json:"expansion"`
}

// Point is one (independent variable, expansion) pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is the readings of one record in arrival order.
type Series struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// XY splits the points into parallel coordinate slices.
func (s *Series) XY() (xs, ys []float64) {
	xs = make([]float64, len(s.Points))
	ys = make([]float64, len(s.Points))
	for i, p := range s.Points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return xs, ys
}

// SeriesSet groups rows by record id.
type SeriesSet struct {
	order []string
	byID  map[string]*Series
}

// Group buckets rows by record id. Series appear in order of each id's first
// row and points keep the order rows arrived in; nothing is sorted.
// Rows missing either coordinate contribute no point.
func Group(rows []Row) *SeriesSet {
	set := &SeriesSet{byID: make(map[string]*Series)}
	for _, r := range rows {
		s, ok := set.byID[r.ID]
		if !ok {
			s = &Series{ID: r.ID, Label: r.Designation}
			set.byID[r.ID] = s
			set.order = append(set.order, r.ID)
		}
		if r.Age == nil || r.Expansion == nil {
			continue
		}
		s.Points = append(s.Points, Point{X: *r.Age, Y: *r.Expansion})
	}
	return set
}

// IDs returns record ids in first-seen order.
func (s *SeriesSet) IDs() []string {
	return append([]string(nil), s.order...)
}

func (s *SeriesSet) Get(id string) (*Series, bool) {
	series, ok := s.byID[id]
	return series, ok
}

// All returns every series in first-seen order.
func (s *SeriesSet) All() []*Series {
	out := make([]*Series, len(s.order))
	for i, id := range s.order {
		out[i] = s.byID[id]
	}
	return out
}

func (s *SeriesSet) Len() int { return len(s.order) }

// Points returns the total number of plotted points.
func (s *SeriesSet) Points() int {
	n := 0
	for _, series := range s.byID {
		n += len(series.Points)
	}
	return n
}
