// Package assets embeds the default world definition and its maps.
package assets

import "embed"

// FS holds the map files and tileset images. Paths are relative to this directory.
//
//go:embed maps
var FS embed.FS

// World is the default world definition.
//
//go:embed world.yaml
var World []byte
