// Package spatial implements broad-phase grid partitioning, exact narrow-phase
// shape tests, swept-box continuous collision and the judgment detector built
// on top of them.
package spatial

import (
	"math"

	"github.com/vovakirdan/notefall/internal/core"
)

// DefaultCellSize is the grid cell edge used when none is configured.
const DefaultCellSize = 96.0

// DefaultFieldHeight is the play-field height used when none is configured.
const DefaultFieldHeight = 1000.0

// CellKey addresses one grid cell.
type CellKey struct {
	X, Y int
}

// Grid is an unbounded uniform hash grid mapping cells to entity ids.
// Each id lives in exactly one cell, chosen by its center point.
type Grid struct {
	cellSize float64
	cells    map[CellKey][]uint64
	where    map[uint64]CellKey
	points   map[uint64]core.Vec2
}

// NewGrid creates a grid with the given cell size.
func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 || math.IsNaN(cellSize) {
		cellSize = DefaultCellSize
	}
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[CellKey][]uint64),
		where:    make(map[uint64]CellKey),
		points:   make(map[uint64]core.Vec2),
	}
}

// CellSize returns the current cell edge length.
func (g *Grid) CellSize() float64 {
	return g.cellSize
}

// KeyFor returns the cell containing p.
func (g *Grid) KeyFor(p core.Vec2) CellKey {
	return CellKey{
		X: int(math.Floor(p.X / g.cellSize)),
		Y: int(math.Floor(p.Y / g.cellSize)),
	}
}

// Insert places id at p. Inserting an id that is already present moves it.
func (g *Grid) Insert(id uint64, p core.Vec2) {
	if _, ok := g.where[id]; ok {
		g.Move(id, p)
		return
	}
	key := g.KeyFor(p)
	g.cells[key] = append(g.cells[key], id)
	g.where[id] = key
	g.points[id] = p
}

// Remove deletes id from the grid. Unknown ids are ignored.
func (g *Grid) Remove(id uint64) {
	key, ok := g.where[id]
	if !ok {
		return
	}
	g.removeFromCell(key, id)
	delete(g.where, id)
	delete(g.points, id)
}

// Move repositions id: it is removed from its old cell and inserted into the
// new one, never partially updated.
func (g *Grid) Move(id uint64, p core.Vec2) {
	key, ok := g.where[id]
	if !ok {
		g.Insert(id, p)
		return
	}
	g.points[id] = p
	next := g.KeyFor(p)
	if next == key {
		return
	}
	g.removeFromCell(key, id)
	g.cells[next] = append(g.cells[next], id)
	g.where[id] = next
}

// removeFromCell swap-removes id from the cell and drops empty cells.
func (g *Grid) removeFromCell(key CellKey, id uint64) {
	ids := g.cells[key]
	for i, v := range ids {
		if v == id {
			last := len(ids) - 1
			ids[i] = ids[last]
			ids = ids[:last]
			break
		}
	}
	if len(ids) == 0 {
		delete(g.cells, key)
		return
	}
	g.cells[key] = ids
}

// CellOf returns the cell currently holding id.
func (g *Grid) CellOf(id uint64) (CellKey, bool) {
	key, ok := g.where[id]
	return key, ok
}

// Len returns the number of ids in the grid.
func (g *Grid) Len() int {
	return len(g.where)
}

// Query appends to dst the ids whose cells intersect box, plus one ring of
// neighboring cells so that entities centered just outside a cell edge but
// overlapping the box are still candidates. Cells are visited row by row.
func (g *Grid) Query(box core.AABB, dst []uint64) []uint64 {
	lo := g.KeyFor(box.Min)
	hi := g.KeyFor(box.Max)
	for y := lo.Y - 1; y <= hi.Y+1; y++ {
		for x := lo.X - 1; x <= hi.X+1; x++ {
			dst = append(dst, g.cells[CellKey{X: x, Y: y}]...)
		}
	}
	return dst
}

// Span returns the number of cells Query visits for box.
func (g *Grid) Span(box core.AABB) int {
	lo := g.KeyFor(box.Min)
	hi := g.KeyFor(box.Max)
	return (hi.X - lo.X + 3) * (hi.Y - lo.Y + 3)
}

// Neighbors appends the ids in the 3x3 block of cells around p.
func (g *Grid) Neighbors(p core.Vec2, dst []uint64) []uint64 {
	c := g.KeyFor(p)
	for y := c.Y - 1; y <= c.Y+1; y++ {
		for x := c.X - 1; x <= c.X+1; x++ {
			dst = append(dst, g.cells[CellKey{X: x, Y: y}]...)
		}
	}
	return dst
}

// Rebuild changes the cell size and re-buckets every id.
func (g *Grid) Rebuild(cellSize float64) {
	if cellSize <= 0 || math.IsNaN(cellSize) || cellSize == g.cellSize {
		return
	}
	g.cellSize = cellSize
	g.cells = make(map[CellKey][]uint64, len(g.cells))
	for id, p := range g.points {
		key := g.KeyFor(p)
		g.cells[key] = append(g.cells[key], id)
		g.where[id] = key
	}
}

// Clear removes every id.
func (g *Grid) Clear() {
	clear(g.cells)
	clear(g.where)
	clear(g.points)
}
