package tilemap

import (
	"fmt"
	"image"
	_ "image/png"
	"io/fs"
	"path"
	"sort"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Tileset binds a contiguous range of global tile IDs, starting at FirstGID, to a source image.
type Tileset struct {
	Name       string `json:"name"`
	FirstGID   uint32 `json:"firstgid"`
	Source     string `json:"source"`
	TileWidth  int    `json:"tilewidth"`
	TileHeight int    `json:"tileheight"`
	// Columns is the number of tiles per image row. Zero means the image layout is unknown.
	Columns int `json:"columns"`
}

// Tilesets is a list of tileset bindings ordered by FirstGID.
type Tilesets []Tileset

func newTilesets(sets []Tileset) Tilesets {
	sorted := make(Tilesets, len(sets))
	copy(sorted, sets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FirstGID < sorted[j].FirstGID
	})
	return sorted
}

// Resolve returns the tileset owning tileID: the one with the greatest FirstGID not above tileID.
func (t Tilesets) Resolve(tileID uint32) (Tileset, bool) {
	if tileID == 0 {
		return Tileset{}, false
	}
	i := sort.Search(len(t), func(i int) bool {
		return t[i].FirstGID > tileID
	})
	if i == 0 {
		return Tileset{}, false
	}
	return t[i-1], true
}

// DrawInfo tells a renderer how to paint a tile: a source rectangle in a tileset image,
// or a flat fallback color when no image layout is available.
type DrawInfo struct {
	TileID   uint32 `json:"tileId"`
	Source   string `json:"source,omitempty"`
	SrcX     int    `json:"srcX"`
	SrcY     int    `json:"srcY"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Color    string `json:"color,omitempty"`
	Fallback bool   `json:"fallback"`
}

var fallbackColors = map[uint32]string{
	17: "#4a7c59",
	19: "#5a8b69",
	20: "#6a9b79",
	33: "#777777",
	34: "#777777",
	49: "#666666",
	50: "#666666",
	51: "#666666",
}

// FallbackColor returns the flat color used for a tile ID when its tileset image is unavailable.
func FallbackColor(tileID uint32) string {
	switch {
	case tileID == 0:
		return ""
	case tileID <= 256:
		if c, ok := fallbackColors[tileID]; ok {
			return c
		}
		return "#4a7c59"
	case tileID <= 512:
		return "#228B22"
	default:
		return "#8B4513"
	}
}

// LoadImageHeaders fills in Columns for tilesets whose image layout is unknown by decoding
// the image header from fsys. Images are looked up relative to dir.
// Failures leave the tileset on the color fallback and are returned joined as ErrAssetLoad.
func (t Tilesets) LoadImageHeaders(fsys fs.FS, dir string) error {
	var failed []string
	for i := range t {
		ts := &t[i]
		if ts.Columns > 0 || ts.Source == "" || ts.TileWidth <= 0 {
			continue
		}
		columns, err := decodeColumns(fsys, path.Join(dir, ts.Source), ts.TileWidth)
		if err != nil {
			failed = append(failed, fmt.Sprintf("%s (%v)", ts.Source, err))
			continue
		}
		ts.Columns = columns
	}
	if len(failed) > 0 {
		return fmt.Errorf("%w: tileset images %v", ErrAssetLoad, failed)
	}
	return nil
}

func decodeColumns(fsys fs.FS, name string, tileWidth int) (int, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, err
	}
	return cfg.Width / tileWidth, nil
}
