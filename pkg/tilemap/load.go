package tilemap

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"

	"github.com/cbodonnell/tileworld/pkg/log"
)

// Fallback map parameters used when a map asset cannot be loaded.
const (
	FallbackWidth      = 25
	FallbackHeight     = 25
	FallbackTileSize   = 32
	FallbackGroundTile = 17
)

type rawMap struct {
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	TileWidth  int          `json:"tilewidth"`
	TileHeight int          `json:"tileheight"`
	Layers     []rawLayer   `json:"layers"`
	Tilesets   []rawTileset `json:"tilesets"`
}

type rawLayer struct {
	Name string   `json:"name"`
	Type string   `json:"type"`
	Data []uint32 `json:"data"`
}

type rawTileset struct {
	Name       string `json:"name"`
	FirstGID   uint32 `json:"firstgid"`
	Image      string `json:"image"`
	Source     string `json:"source"`
	TileWidth  int    `json:"tilewidth"`
	TileHeight int    `json:"tileheight"`
	Columns    int    `json:"columns"`
}

// Parse decodes a Tiled-style JSON map. Layers without tile data, such as object groups, are skipped.
func Parse(name string, data []byte, rules *RuleTable) (*TileMap, error) {
	var raw rawMap
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMap, name, err)
	}
	if raw.TileWidth <= 0 || raw.TileHeight <= 0 {
		return nil, fmt.Errorf("%w: %s has tile size %dx%d", ErrMalformedMap, name, raw.TileWidth, raw.TileHeight)
	}

	layers := make([]Layer, 0, len(raw.Layers))
	for _, l := range raw.Layers {
		if l.Data == nil {
			continue
		}
		layers = append(layers, Layer{Name: l.Name, Data: l.Data})
	}

	tilesets := make([]Tileset, 0, len(raw.Tilesets))
	for _, ts := range raw.Tilesets {
		source := ts.Image
		if source == "" {
			source = ts.Source
		}
		tilesets = append(tilesets, Tileset{
			Name:       ts.Name,
			FirstGID:   ts.FirstGID,
			Source:     source,
			TileWidth:  ts.TileWidth,
			TileHeight: ts.TileHeight,
			Columns:    ts.Columns,
		})
	}

	return New(name, raw.Width, raw.Height, raw.TileWidth, raw.TileHeight, layers, tilesets, rules)
}

// Load reads and parses a map file from fsys. Tileset image headers are read from the
// map's directory when present; missing images only downgrade drawing to flat colors.
func Load(fsys fs.FS, name, file string, rules *RuleTable) (*TileMap, error) {
	data, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, fmt.Errorf("%w: map %s: %v", ErrAssetLoad, file, err)
	}
	m, err := Parse(name, data, rules)
	if err != nil {
		return nil, err
	}
	if err := m.tilesets.LoadImageHeaders(fsys, path.Dir(file)); err != nil {
		log.Component("tilemap").Warn("Tileset images for %s unavailable, drawing with fallback colors: %v", name, err)
	}
	return m, nil
}

// LoadOrFallback loads a map and substitutes the fallback map on any failure.
// Startup never fails because of a missing or broken map asset.
func LoadOrFallback(fsys fs.FS, name, file string, rules *RuleTable) *TileMap {
	m, err := Load(fsys, name, file, rules)
	if err != nil {
		log.Component("tilemap").Error("Failed to load map %s from %s, using fallback: %v", name, file, err)
		return Fallback(name, rules)
	}
	log.Component("tilemap").Info("Loaded map %s: %dx%d tiles, %d solid", name, m.width, m.height, m.SolidCount())
	return m
}

// Fallback builds a 25x25 map of ground tiles with no obstacles.
func Fallback(name string, rules *RuleTable) *TileMap {
	ground := make([]uint32, FallbackWidth*FallbackHeight)
	for i := range ground {
		ground[i] = FallbackGroundTile
	}
	m, err := New(name, FallbackWidth, FallbackHeight, FallbackTileSize, FallbackTileSize,
		[]Layer{{Name: GroundLayer, Data: ground}}, nil, rules)
	if err != nil {
		// the fallback parameters are constants, so this cannot fail
		panic(err)
	}
	return m
}
