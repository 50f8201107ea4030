package pipeline

import "github.com/banshee-data/contact.report/internal/touch/grid"

// extract thresholds the smoothed scores and clusters triggered cells into
// bounding-box contacts, visiting cells in raster order.
//
// The arena is fixed at MaxContacts slots with an explicit live count:
// a new contact is allocated at the current count and the count then
// advances, so slot 0 is used and the write at full capacity never runs
// past the arena. Once the arena is full, triggered cells that match no
// existing contact are dropped outright.
func (p *Pipeline) extract() {
	off, threshold := p.params.LineOffset, p.params.Threshold
	p.contacts = p.contacts[:0]

	for row := 0; row < grid.Dim; row++ {
		for col := 0; col < grid.Dim; col++ {
			if p.adjacent[grid.Index(row, col, off)] <= threshold {
				continue
			}

			matched := -1
			for m := range p.contacts {
				if p.contacts[m].contains(col, row) {
					matched = m
					break
				}
			}
			if matched >= 0 {
				p.contacts[matched].grow(col, row)
			} else if len(p.contacts) < p.params.MaxContacts {
				p.contacts = append(p.contacts, Contact{X: col, Y: row, W: 1, H: 1})
			}
		}
	}
}
