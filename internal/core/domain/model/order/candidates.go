package order

import "slices"

// Candidates is the set of agents who expressed interest. Membership is what the
// business cares about; insertion order is kept only so auto-assignment ties are
// resolved deterministically.
type Candidates struct {
	ids []string
}

func NewCandidates(ids ...string) Candidates {
	var c Candidates
	for _, id := range ids {
		c.add(id)
	}
	return c
}

func (c Candidates) Contains(id string) bool {
	return slices.Contains(c.ids, id)
}

func (c Candidates) Len() int {
	return len(c.ids)
}

func (c Candidates) IsEmpty() bool {
	return len(c.ids) == 0
}

// IDs returns a copy in insertion order.
func (c Candidates) IDs() []string {
	return slices.Clone(c.ids)
}

func (c *Candidates) add(id string) bool {
	if id == "" || c.Contains(id) {
		return false
	}
	c.ids = append(c.ids, id)
	return true
}

func (c *Candidates) clear() {
	c.ids = nil
}
