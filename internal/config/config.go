// Package config handles importer configuration loading and management.
package config

import "time"

// Config holds all importer settings.
type Config struct {
	Import  ImportConfig  `yaml:"import"`
	Output  OutputConfig  `yaml:"output"`
	Watch   WatchConfig   `yaml:"watch"`
	Logging LoggingConfig `yaml:"logging"`
}

// ImportConfig holds the map import settings.
type ImportConfig struct {
	ContentDirs   []string `yaml:"content_dirs"`   // Roots searched for map and mesh table, last wins
	MapPath       string   `yaml:"map_path"`       // Map document, relative to a content dir
	MeshTable     string   `yaml:"mesh_table"`     // Mesh table, relative to a content dir
	TileSize      TileSize `yaml:"tile_size"`      // World units per grid cell
	AllowFlipping bool     `yaml:"allow_flipping"` // Mirror tiles with a single flip flag
}

// TileSize is the world size of one grid cell.
type TileSize struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
}

// OutputConfig holds placement output settings.
type OutputConfig struct {
	Manifest string `yaml:"manifest"` // Placement manifest path, "-" for stdout
}

// WatchConfig holds re-import settings for watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			ContentDirs:   []string{"."},
			MapPath:       "Maps/Map.json",
			MeshTable:     "meshes.yaml",
			TileSize:      TileSize{X: 100, Y: 100},
			AllowFlipping: false,
		},
		Output: OutputConfig{
			Manifest: "-",
		},
		Watch: WatchConfig{
			Debounce: 100 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
