// tiledimport converts Tiled maps into mesh placement manifests.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/tiledmesh/internal/config"
	"github.com/Faultbox/tiledmesh/internal/logger"
)

func main() {
	flag.Usage = printUsage
	config.ParseFlags()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Sugar.Debugf("Config: %+v", cfg)

	command := args[0]
	args = args[1:]

	switch command {
	case "import", "i":
		err = cmdImport(cfg)
	case "inspect", "info":
		err = cmdInspect(cfg)
	case "keys":
		err = cmdKeys(cfg, args)
	case "watch", "w":
		err = cmdWatch(cfg)
	case "init":
		err = cmdInit(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `tiledimport - Tiled map to mesh placement importer

Usage:
  tiledimport [flags] <command> [options]

Commands:
  import               Import the map and write the placement manifest
  inspect              Show map, tileset and layer information
  keys [-missing]      List mesh lookup keys used by the map
  watch                Re-import whenever the map or mesh table changes
  init [path]          Write the current configuration to a file
  help                 Show this help

Flags:`)
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, `
Examples:
  tiledimport -content ./Content import
  tiledimport -map Maps/Dungeon.tmx -flip -out placements.yaml import
  tiledimport keys -missing
  tiledimport -debug watch`)
}
