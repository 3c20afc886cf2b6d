package featurespace

import "sort"

// GroupIndex maps sample group ids to the table rows that belong to them.
// It is built once per table and shared by Split and SampleReduce.
type GroupIndex struct {
	ids   []int
	rows  map[int][]int
	class map[int]int
}

func buildGroupIndex(samples []SampleMeta, classOf []int) *GroupIndex {
	g := &GroupIndex{
		rows:  make(map[int][]int),
		class: make(map[int]int),
	}
	for i, s := range samples {
		if _, ok := g.rows[s.GroupID]; !ok {
			g.ids = append(g.ids, s.GroupID)
			g.class[s.GroupID] = classOf[i]
		}
		g.rows[s.GroupID] = append(g.rows[s.GroupID], i)
	}
	for _, rows := range g.rows {
		sort.SliceStable(rows, func(a, b int) bool {
			return samples[rows[a]].TileIndex < samples[rows[b]].TileIndex
		})
	}
	return g
}

// Len returns the number of groups.
func (g *GroupIndex) Len() int { return len(g.ids) }

// IDs returns the group ids in order of first appearance.
func (g *GroupIndex) IDs() []int {
	return append([]int(nil), g.ids...)
}

// Has reports whether id is a group of the table.
func (g *GroupIndex) Has(id int) bool {
	_, ok := g.rows[id]
	return ok
}

// Rows returns the rows of group id ordered by tile index.
func (g *GroupIndex) Rows(id int) []int {
	return append([]int(nil), g.rows[id]...)
}

// Class returns the class index of group id, or -1 for continuous tables.
func (g *GroupIndex) Class(id int) int {
	c, ok := g.class[id]
	if !ok {
		return -1
	}
	return c
}

// ByClass returns the group ids of each class in order of first appearance.
func (g *GroupIndex) ByClass(numClasses int) [][]int {
	out := make([][]int, numClasses)
	for _, id := range g.ids {
		if c := g.class[id]; c >= 0 && c < numClasses {
			out[c] = append(out[c], id)
		}
	}
	return out
}

// rowsOf concatenates the rows of the given groups in the order given.
func (g *GroupIndex) rowsOf(ids []int) []int {
	var rows []int
	for _, id := range ids {
		rows = append(rows, g.rows[id]...)
	}
	return rows
}
