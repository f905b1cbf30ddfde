package collisions

import (
	"errors"
	"math"
	"math/rand"

	"github.com/cbodonnell/tileworld/pkg/kinematic"
	"github.com/cbodonnell/tileworld/pkg/log"
)

// ErrNoSafeSpawn describes an exhausted spawn search. It is only reported through
// SpawnResult.Err; FindSafeSpawn never fails.
var ErrNoSafeSpawn = errors.New("no safe spawn found")

// AttemptsPerZone bounds the random picks tried in each search zone.
const AttemptsPerZone = 100

// FallbackTiles is the tile offset of the fallback spawn point on both axes.
const FallbackTiles = 2

// Zone is a rectangle of tile coordinates. Min is inclusive, Max is exclusive.
type Zone struct {
	MinX int `json:"minX" yaml:"minX"`
	MinY int `json:"minY" yaml:"minY"`
	MaxX int `json:"maxX" yaml:"maxX"`
	MaxY int `json:"maxY" yaml:"maxY"`
}

// DefaultZones returns the central third of the map, then the middle two thirds, then the whole map.
func DefaultZones(widthTiles, heightTiles int) []Zone {
	return []Zone{
		{MinX: widthTiles / 3, MinY: heightTiles / 3, MaxX: widthTiles - widthTiles/3, MaxY: heightTiles - heightTiles/3},
		{MinX: widthTiles / 6, MinY: heightTiles / 6, MaxX: widthTiles - widthTiles/6, MaxY: heightTiles - heightTiles/6},
		{MinX: 0, MinY: 0, MaxX: widthTiles, MaxY: heightTiles},
	}
}

// SpawnOptions tunes FindSafeSpawn. The zero value searches the default zones with a fresh random source.
type SpawnOptions struct {
	// Zones are tried in order, innermost first.
	Zones []Zone
	// Exclude is a point, usually the player's position, that spawns keep away from.
	Exclude *kinematic.Vector
	// MinSeparation is the minimum center distance from Exclude in pixels.
	MinSeparation float64
	Rand          *rand.Rand
}

// SpawnResult is the outcome of a spawn search.
type SpawnResult struct {
	Position kinematic.Vector
	// Zone is the index of the zone the position was found in, or -1 for the fallback.
	Zone     int
	Attempts int
	Fallback bool
	Err      error
}

func fallbackResult(tileSize, attempts int) SpawnResult {
	return SpawnResult{
		Position: kinematic.Vector{X: float64(FallbackTiles * tileSize), Y: float64(FallbackTiles * tileSize)},
		Zone:     -1,
		Attempts: attempts,
		Fallback: true,
		Err:      ErrNoSafeSpawn,
	}
}

// FindSafeSpawn picks random tiles zone by zone until the entity's whole tile footprint is clear.
// When every zone exhausts its budget the fixed fallback point two tiles in from the origin is returned.
func FindSafeSpawn(g Grid, w, h float64, opts SpawnOptions) SpawnResult {
	dims := g.Dimensions()
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	zones := opts.Zones
	if len(zones) == 0 {
		zones = DefaultZones(dims.WidthTiles, dims.HeightTiles)
	}
	footW := footprint(w, dims.TileWidth)
	footH := footprint(h, dims.TileHeight)

	attempts := 0
	for zi, zone := range zones {
		zone = clampZone(zone, dims.WidthTiles, dims.HeightTiles)
		spanX := zone.MaxX - zone.MinX - footW + 1
		spanY := zone.MaxY - zone.MinY - footH + 1
		if spanX <= 0 || spanY <= 0 {
			continue
		}
		for i := 0; i < AttemptsPerZone; i++ {
			attempts++
			tx := zone.MinX + rng.Intn(spanX)
			ty := zone.MinY + rng.Intn(spanY)

			if opts.Exclude != nil && opts.MinSeparation > 0 {
				var ok bool
				tx, ty, ok = nudge(tx, ty, footW, footH, dims.TileWidth, dims.TileHeight, *opts.Exclude, opts.MinSeparation)
				if !ok {
					continue
				}
			}
			if !footprintClear(g, tx, ty, footW, footH) {
				continue
			}
			return SpawnResult{
				Position: kinematic.Vector{X: float64(tx * dims.TileWidth), Y: float64(ty * dims.TileHeight)},
				Zone:     zi,
				Attempts: attempts,
			}
		}
	}

	log.Component("collisions").Warn("No safe spawn found after %d attempts, using fallback", attempts)
	return fallbackResult(dims.TileWidth, attempts)
}

func footprint(px float64, tile int) int {
	n := int(math.Ceil(px / float64(tile)))
	if n < 1 {
		n = 1
	}
	return n
}

func clampZone(z Zone, w, h int) Zone {
	if z.MinX < 0 {
		z.MinX = 0
	}
	if z.MinY < 0 {
		z.MinY = 0
	}
	if z.MaxX > w {
		z.MaxX = w
	}
	if z.MaxY > h {
		z.MaxY = h
	}
	return z
}

func footprintClear(g Grid, tx, ty, footW, footH int) bool {
	for dy := 0; dy < footH; dy++ {
		for dx := 0; dx < footW; dx++ {
			if g.IsSolid(tx+dx, ty+dy) {
				return false
			}
		}
	}
	return true
}

// nudge pushes a candidate footprint outward from the excluded point until its center
// is at least minSep away. It reports false when the pushed candidate leaves the map grid
// entirely; the footprint check that follows rejects partial overlaps with the edge.
func nudge(tx, ty, footW, footH, tileW, tileH int, exclude kinematic.Vector, minSep float64) (int, int, bool) {
	cx := (float64(tx) + float64(footW)/2) * float64(tileW)
	cy := (float64(ty) + float64(footH)/2) * float64(tileH)
	heading := kinematic.Direction(exclude.X, exclude.Y, cx, cy)
	if heading.Distance >= minSep {
		return tx, ty, true
	}
	ux, uy := heading.X, heading.Y
	if heading.Distance == 0 {
		ux, uy = 1, 0
	}
	// round away from the excluded point so the separation holds after snapping to tiles
	nx := exclude.X + ux*minSep - float64(footW*tileW)/2
	ny := exclude.Y + uy*minSep - float64(footH*tileH)/2
	ntx := snapAway(nx/float64(tileW), ux)
	nty := snapAway(ny/float64(tileH), uy)
	if ntx < 0 || nty < 0 {
		return 0, 0, false
	}
	return ntx, nty, true
}

func snapAway(v, dir float64) int {
	if dir < 0 {
		return int(math.Floor(v))
	}
	return int(math.Ceil(v))
}
