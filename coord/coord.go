// Package coord defines the coordinate types shared by every layer of the
// block view engine: a world-scoped block position and the chunk key used
// to index it.
package coord

// WorldID opaquely identifies a world. The view engine never looks inside
// it; it only compares WorldIDs for equality.
type WorldID string

// BlockPosition is an integer triple scoped to a WorldID. Two positions are
// equal if and only if all four fields are equal, which makes BlockPosition
// safe to use as a map key directly.
type BlockPosition struct {
	World   WorldID
	X, Y, Z int32
}

// Add returns the position offset by the given deltas.
func (p BlockPosition) Add(dx, dy, dz int32) BlockPosition {
	p.X += dx
	p.Y += dy
	p.Z += dz
	return p
}

// Sub returns the component-wise difference between p and o, ignoring
// world: callers are expected to only subtract positions in the same
// world.
func (p BlockPosition) Sub(o BlockPosition) (dx, dy, dz int32) {
	return p.X - o.X, p.Y - o.Y, p.Z - o.Z
}

// Chunk returns the ChunkKey of the chunk containing p.
func (p BlockPosition) Chunk() ChunkKey {
	return ChunkKey{World: p.World, CX: floorDiv16(p.X), CZ: floorDiv16(p.Z)}
}

// ChunkKey identifies a 16x16 column of a world, used as the spatial index
// key by the view manager.
type ChunkKey struct {
	World  WorldID
	CX, CZ int32
}

// floorDiv16 computes floor(n/16) for a signed integer, which differs from
// Go's truncating `/` for negative n.
func floorDiv16(n int32) int32 {
	if n >= 0 {
		return n / 16
	}
	return -((-n + 15) / 16)
}

// Dimensions describes the size of a rectangular volume in blocks.
type Dimensions struct {
	W, H, D int32
}

// Volume returns the number of cells contained in d.
func (d Dimensions) Volume() int64 {
	return int64(d.W) * int64(d.H) * int64(d.D)
}

// Box is a world-anchored, half-open rectangular volume: a block at
// (x, y, z) is inside the box iff Origin.X <= x < Origin.X+Dims.W (and
// likewise for y, z).
type Box struct {
	Origin BlockPosition
	Dims   Dimensions
}

// Contains reports whether pos lies within the half-open bounds of b, in
// the same world as b.Origin.
func (b Box) Contains(pos BlockPosition) bool {
	if pos.World != b.Origin.World {
		return false
	}
	dx, dy, dz := pos.Sub(b.Origin)
	return dx >= 0 && dx < b.Dims.W &&
		dy >= 0 && dy < b.Dims.H &&
		dz >= 0 && dz < b.Dims.D
}

// Relative converts a world position inside b into a 0-based relative
// position (rx, ry, rz). The second return value is false if pos is not
// contained in b.
func (b Box) Relative(pos BlockPosition) (rx, ry, rz int32, ok bool) {
	if !b.Contains(pos) {
		return 0, 0, 0, false
	}
	dx, dy, dz := pos.Sub(b.Origin)
	return dx, dy, dz, true
}

// Chunks returns every ChunkKey overlapped by b's bounding box.
func (b Box) Chunks() []ChunkKey {
	min := b.Origin
	max := b.Origin.Add(b.Dims.W-1, 0, b.Dims.D-1)
	minChunk, maxChunk := min.Chunk(), max.Chunk()

	keys := make([]ChunkKey, 0, int(maxChunk.CX-minChunk.CX+1)*int(maxChunk.CZ-minChunk.CZ+1))
	for cx := minChunk.CX; cx <= maxChunk.CX; cx++ {
		for cz := minChunk.CZ; cz <= maxChunk.CZ; cz++ {
			keys = append(keys, ChunkKey{World: b.Origin.World, CX: cx, CZ: cz})
		}
	}
	return keys
}
