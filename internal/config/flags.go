package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagContent = flag.String("content", "", "Content directory (replaces configured content_dirs)")
	flagMap     = flag.String("map", "", "Map path relative to the content directory")
	flagMeshes  = flag.String("meshes", "", "Mesh table path relative to the content directory")
	flagTileX   = flag.Float64("tile-x", 0, "Tile size along X in world units")
	flagTileY   = flag.Float64("tile-y", 0, "Tile size along Y in world units")
	flagFlip    = flag.Bool("flip", false, "Allow mirrored tiles")
	flagNoFlip  = flag.Bool("no-flip", false, "Disallow mirrored tiles")
	flagOut     = flag.String("out", "", "Placement manifest path (- for stdout)")
	flagLogFile = flag.String("log", "", "Log file path")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagContent != "" {
		cfg.Import.ContentDirs = []string{*flagContent}
	}
	if *flagMap != "" {
		cfg.Import.MapPath = *flagMap
	}
	if *flagMeshes != "" {
		cfg.Import.MeshTable = *flagMeshes
	}
	if *flagTileX > 0 {
		cfg.Import.TileSize.X = float32(*flagTileX)
	}
	if *flagTileY > 0 {
		cfg.Import.TileSize.Y = float32(*flagTileY)
	}
	if *flagFlip {
		cfg.Import.AllowFlipping = true
	}
	if *flagNoFlip {
		cfg.Import.AllowFlipping = false
	}
	if *flagOut != "" {
		cfg.Output.Manifest = *flagOut
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
