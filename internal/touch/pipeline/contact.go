package pipeline

// Contact is a single-frame bounding box of triggered cells, in grid units
// (0-63 per axis). Contacts are rebuilt every tick; no identity persists
// across frames. Scaling to sensor resolution is the event emitter's job.
type Contact struct {
	X, Y int // box origin, grid units
	W, H int // box extent, grid units
}

// contains reports whether the triggered cell (col, row) falls inside the
// contact's merge region: the box grown by two cells on each side plus a
// one-cell margin.
func (c Contact) contains(col, row int) bool {
	return col >= c.X-2 && col < c.X+c.W+3 &&
		row >= c.Y-2 && row < c.Y+c.H+3
}

// grow extends the box so its far corner reaches (col, row). The origin
// never moves; growth is rightward and downward only, so cells above or
// left of the origin merge without enlarging the box.
func (c *Contact) grow(col, row int) {
	if w := col - c.X + 1; w > c.W {
		c.W = w
	}
	if h := row - c.Y + 1; h > c.H {
		c.H = h
	}
}
