package tiled

// Cell is one grid position of a layer.
type Cell struct {
	Index int    // Linear index into Layer.Data
	X     int    // Index % Width
	Y     int    // Index / Width
	GID   uint32 // Raw GID including orientation flags
}

// Walk visits every cell of the layer in row-major order until fn
// returns false. Layers without a positive width are not walked.
func (l *Layer) Walk(fn func(Cell) bool) {
	n := l.CellCount()
	for i := 0; i < n; i++ {
		c := Cell{
			Index: i,
			X:     i % l.Width,
			Y:     i / l.Width,
			GID:   l.Data[i],
		}
		if !fn(c) {
			return
		}
	}
}
