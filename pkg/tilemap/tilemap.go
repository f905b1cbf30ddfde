package tilemap

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMalformedMap is returned when map data has no ground layer, missing dimensions,
	// or layer data whose length does not match the dimensions.
	ErrMalformedMap = errors.New("malformed map")
	// ErrAssetLoad is returned when a map or tileset asset cannot be read.
	ErrAssetLoad = errors.New("asset load failed")
)

// GroundLayer is the one layer every map must carry.
const GroundLayer = "ground"

// Tiled stores flip flags in the top bits of a global tile ID.
const gidMask uint32 = 0x1FFFFFFF

// Layer is a named grid of tile IDs stored row-major. Tile ID 0 means empty.
type Layer struct {
	Name string
	Data []uint32
}

// Dimensions describes the size of a map in tiles and pixels.
type Dimensions struct {
	WidthTiles  int `json:"widthTiles"`
	HeightTiles int `json:"heightTiles"`
	TileWidth   int `json:"tileWidth"`
	TileHeight  int `json:"tileHeight"`
	PixelWidth  int `json:"pixelWidth"`
	PixelHeight int `json:"pixelHeight"`
}

// TileSize returns the edge length of a tile in pixels.
func (d Dimensions) TileSize() int {
	return d.TileWidth
}

// InBounds reports whether a rectangle lies entirely inside the map.
func (d Dimensions) InBounds(x, y, w, h float64) bool {
	return x >= 0 && y >= 0 &&
		x+w <= float64(d.PixelWidth) &&
		y+h <= float64(d.PixelHeight)
}

// TileMap is one screen's layered tile grid together with its derived collision grid.
// The collision grid is rebuilt whenever the rules change.
type TileMap struct {
	name       string
	width      int
	height     int
	tileWidth  int
	tileHeight int
	layers     []*Layer
	byName     map[string]*Layer
	tilesets   Tilesets
	rules      *RuleTable
	collision  []bool
}

// New builds a map from already decoded layers. The rule table is copied.
func New(name string, width, height, tileWidth, tileHeight int, layers []Layer, tilesets []Tileset, rules *RuleTable) (*TileMap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %s has dimensions %dx%d", ErrMalformedMap, name, width, height)
	}
	if tileWidth <= 0 || tileHeight <= 0 {
		return nil, fmt.Errorf("%w: %s has tile size %dx%d", ErrMalformedMap, name, tileWidth, tileHeight)
	}
	if rules == nil {
		rules = DefaultRules()
	}

	m := &TileMap{
		name:       name,
		width:      width,
		height:     height,
		tileWidth:  tileWidth,
		tileHeight: tileHeight,
		byName:     make(map[string]*Layer, len(layers)),
		tilesets:   newTilesets(tilesets),
		rules:      rules.Clone(),
	}
	for _, l := range layers {
		if len(l.Data) != width*height {
			return nil, fmt.Errorf("%w: %s layer %q has %d tiles, want %d", ErrMalformedMap, name, l.Name, len(l.Data), width*height)
		}
		data := make([]uint32, len(l.Data))
		for i, id := range l.Data {
			data[i] = id & gidMask
		}
		layer := &Layer{Name: l.Name, Data: data}
		m.layers = append(m.layers, layer)
		m.byName[l.Name] = layer
	}
	if _, ok := m.byName[GroundLayer]; !ok {
		return nil, fmt.Errorf("%w: %s has no %s layer", ErrMalformedMap, name, GroundLayer)
	}

	m.RegenerateCollision()
	return m, nil
}

// Name returns the screen name the map was loaded for.
func (m *TileMap) Name() string {
	return m.name
}

func (m *TileMap) Dimensions() Dimensions {
	return Dimensions{
		WidthTiles:  m.width,
		HeightTiles: m.height,
		TileWidth:   m.tileWidth,
		TileHeight:  m.tileHeight,
		PixelWidth:  m.width * m.tileWidth,
		PixelHeight: m.height * m.tileHeight,
	}
}

// RegenerateCollision rebuilds the collision grid from the layers and the current rules.
// Calling it repeatedly without changing the rules yields the same grid.
func (m *TileMap) RegenerateCollision() {
	grid := make([]bool, m.width*m.height)
	for _, layer := range m.layers {
		if m.rules.RuleFor(layer.Name) == RuleNever {
			continue
		}
		for i, id := range layer.Data {
			if m.rules.Solid(layer.Name, id) {
				grid[i] = true
			}
		}
	}
	m.collision = grid
}

// Rules returns a copy of the map's rule table.
func (m *TileMap) Rules() *RuleTable {
	return m.rules.Clone()
}

// SetRules replaces the rule table and rebuilds the collision grid.
func (m *TileMap) SetRules(rules *RuleTable) {
	m.rules = rules.Clone()
	m.RegenerateCollision()
}

// SetLayerRule changes the rule of one layer and rebuilds the collision grid.
func (m *TileMap) SetLayerRule(layer string, rule Rule) {
	m.rules.Layers[layer] = rule
	m.RegenerateCollision()
}

// MarkPassable adds a tile ID to the selective-layer exceptions and rebuilds the collision grid.
func (m *TileMap) MarkPassable(tileID uint32) {
	m.rules.Passable[tileID&gidMask] = struct{}{}
	m.RegenerateCollision()
}

// MarkBlocking removes a tile ID from the selective-layer exceptions and rebuilds the collision grid.
func (m *TileMap) MarkBlocking(tileID uint32) {
	delete(m.rules.Passable, tileID&gidMask)
	m.RegenerateCollision()
}

// IsSolid reports whether the tile at (tx, ty) blocks movement. Tiles outside the map are solid.
func (m *TileMap) IsSolid(tx, ty int) bool {
	if tx < 0 || ty < 0 || tx >= m.width || ty >= m.height {
		return true
	}
	return m.collision[ty*m.width+tx]
}

// IsSolidAtPixel reports whether the tile containing pixel (x, y) blocks movement.
func (m *TileMap) IsSolidAtPixel(x, y float64) bool {
	tx, ty := m.TileCoords(x, y)
	return m.IsSolid(tx, ty)
}

// TileCoords converts pixel coordinates to tile coordinates by floor division.
func (m *TileMap) TileCoords(x, y float64) (int, int) {
	return int(math.Floor(x / float64(m.tileWidth))), int(math.Floor(y / float64(m.tileHeight)))
}

// SolidCount returns the number of blocking tiles.
func (m *TileMap) SolidCount() int {
	n := 0
	for _, solid := range m.collision {
		if solid {
			n++
		}
	}
	return n
}

// CollisionGrid returns a row-major copy of the collision grid.
func (m *TileMap) CollisionGrid() []bool {
	grid := make([]bool, len(m.collision))
	copy(grid, m.collision)
	return grid
}

// LayerNames returns the layer names in draw order.
func (m *TileMap) LayerNames() []string {
	names := make([]string, 0, len(m.layers))
	for _, l := range m.layers {
		names = append(names, l.Name)
	}
	return names
}

// Layer returns a copy of the named layer.
func (m *TileMap) Layer(name string) (Layer, bool) {
	l, ok := m.byName[name]
	if !ok {
		return Layer{}, false
	}
	data := make([]uint32, len(l.Data))
	copy(data, l.Data)
	return Layer{Name: l.Name, Data: data}, true
}

// TileAt returns the tile ID on a layer at tile coordinates. Out-of-range lookups return false.
func (m *TileMap) TileAt(layer string, tx, ty int) (uint32, bool) {
	l, ok := m.byName[layer]
	if !ok || tx < 0 || ty < 0 || tx >= m.width || ty >= m.height {
		return 0, false
	}
	return l.Data[ty*m.width+tx], true
}

// Tilesets returns the map's tileset bindings ordered by first ID.
func (m *TileMap) Tilesets() Tilesets {
	sets := make(Tilesets, len(m.tilesets))
	copy(sets, m.tilesets)
	return sets
}

// DrawInfo describes how to paint a tile ID: a source rectangle in the owning tileset image,
// or a flat color when the tileset or its image layout is unknown.
func (m *TileMap) DrawInfo(tileID uint32) DrawInfo {
	tileID &= gidMask
	info := DrawInfo{
		TileID: tileID,
		Width:  m.tileWidth,
		Height: m.tileHeight,
	}
	ts, ok := m.tilesets.Resolve(tileID)
	if !ok || ts.Columns <= 0 || ts.Source == "" {
		info.Fallback = true
		info.Color = FallbackColor(tileID)
		return info
	}

	w, h := ts.TileWidth, ts.TileHeight
	if w <= 0 {
		w = m.tileWidth
	}
	if h <= 0 {
		h = m.tileHeight
	}
	local := int(tileID - ts.FirstGID)
	info.Source = ts.Source
	info.SrcX = (local % ts.Columns) * w
	info.SrcY = (local / ts.Columns) * h
	info.Width = w
	info.Height = h
	return info
}
