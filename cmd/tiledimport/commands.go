package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/tiledmesh/internal/assets"
	"github.com/Faultbox/tiledmesh/internal/config"
	"github.com/Faultbox/tiledmesh/internal/importer"
	"github.com/Faultbox/tiledmesh/internal/logger"
	"github.com/Faultbox/tiledmesh/internal/meshtable"
	"github.com/Faultbox/tiledmesh/internal/sink"
	"github.com/Faultbox/tiledmesh/internal/watch"
	"github.com/Faultbox/tiledmesh/pkg/math"
	"github.com/Faultbox/tiledmesh/pkg/tiled"
)

// openContent builds the asset manager from the configured content dirs.
func openContent(cfg *config.Config) (*assets.Manager, error) {
	mgr := assets.NewManager()
	for _, dir := range cfg.Import.ContentDirs {
		if err := mgr.AddDir(dir); err != nil {
			return nil, err
		}
		logger.Debug("Content dir added", zap.String("dir", dir))
	}
	return mgr, nil
}

func loadMeshTable(mgr *assets.Manager, path string) (*meshtable.Table, error) {
	data, err := mgr.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading mesh table: %w", err)
	}
	table, err := meshtable.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading mesh table %s: %w", path, err)
	}
	logger.Debug("Mesh table loaded", zap.String("path", path), zap.Int("rows", table.Len()))
	return table, nil
}

func loadDocument(mgr *assets.Manager, path string) (*tiled.Document, error) {
	data, err := mgr.Load(path)
	if err != nil {
		return nil, err
	}
	fsys, _ := mgr.Source(path)
	return tiled.Parse(path, data, fsys)
}

func importOptions(cfg *config.Config) importer.Options {
	return importer.Options{
		MapPath:       cfg.Import.MapPath,
		TileSize:      math.Vec2{X: cfg.Import.TileSize.X, Y: cfg.Import.TileSize.Y},
		AllowFlipping: cfg.Import.AllowFlipping,
	}
}

func cmdImport(cfg *config.Config) error {
	mgr, err := openContent(cfg)
	if err != nil {
		return err
	}
	defer mgr.Close()

	table, err := loadMeshTable(mgr, cfg.Import.MeshTable)
	if err != nil {
		return err
	}

	manifest := sink.NewManifest(cfg.Import.MapPath)
	im := importer.New(mgr, table, manifest)

	res, err := im.Import(context.Background(), importOptions(cfg))
	if err != nil {
		return err
	}
	if err := manifest.Save(cfg.Output.Manifest); err != nil {
		return err
	}

	logger.Info("Manifest written",
		zap.String("out", cfg.Output.Manifest),
		zap.Int("placed", res.Placed),
		zap.Int("empty", res.Empty),
		zap.Int("missing", res.Missing))
	return nil
}

func cmdInspect(cfg *config.Config) error {
	mgr, err := openContent(cfg)
	if err != nil {
		return err
	}
	defer mgr.Close()

	doc, err := loadDocument(mgr, cfg.Import.MapPath)
	if err != nil {
		return err
	}

	registry := tiled.NewRegistry(doc.Tilesets)

	fmt.Printf("Map:         %s\n", cfg.Import.MapPath)
	fmt.Printf("Summary:     %s\n", doc)
	fmt.Printf("Orientation: %s\n", doc.Orientation)
	fmt.Printf("Tile size:   %dx%d px\n", doc.TileWidth, doc.TileHeight)
	fmt.Printf("First GID:   %d\n", registry.FirstGID())
	fmt.Println()

	fmt.Println("Tilesets:")
	for _, ts := range registry.Tilesets() {
		source := ts.Source
		if source == "" {
			source = "(embedded)"
		}
		fmt.Printf("  %-20s firstgid=%-6d %s\n", ts.Name, ts.FirstGID, source)
	}
	fmt.Println()

	fmt.Println("Tile layers:")
	for _, l := range doc.TileLayers() {
		var used int
		flags := make(map[tiled.Flag]int)
		l.Walk(func(c tiled.Cell) bool {
			if tiled.CleanGID(c.GID) != 0 {
				used++
			}
			if f := tiled.Flags(c.GID); f != 0 {
				flags[f]++
			}
			return true
		})

		hidden := ""
		if !l.Visible {
			hidden = " (hidden)"
		}
		fmt.Printf("  [%d] %-16s %dx%d  %d/%d tiles%s\n", l.ID, l.Name, l.Width, l.Height, used, l.CellCount(), hidden)

		var fs []tiled.Flag
		for f := range flags {
			fs = append(fs, f)
		}
		sort.Slice(fs, func(i, j int) bool { return fs[i] < fs[j] })
		for _, f := range fs {
			fmt.Printf("      %-8s %d\n", f, flags[f])
		}
	}
	return nil
}

func cmdKeys(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("keys", flag.ExitOnError)
	missing := fs.Bool("missing", false, "Only list keys absent from the mesh table")
	fs.Parse(args)

	mgr, err := openContent(cfg)
	if err != nil {
		return err
	}
	defer mgr.Close()

	doc, err := loadDocument(mgr, cfg.Import.MapPath)
	if err != nil {
		return err
	}

	var table *meshtable.Table
	if *missing {
		table, err = loadMeshTable(mgr, cfg.Import.MeshTable)
		if err != nil {
			return err
		}
	}

	registry := tiled.NewRegistry(doc.Tilesets)
	counts := make(map[string]int)
	for _, l := range doc.TileLayers() {
		l.Walk(func(c tiled.Cell) bool {
			if tile, ok := registry.Resolve(tiled.CleanGID(c.GID)); ok {
				counts[tile.Key()]++
			}
			return true
		})
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		if *missing {
			if mesh, ok := table.Lookup(key); ok && mesh.Usable() {
				continue
			}
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Printf("%-24s %d\n", key, counts[key])
	}
	return nil
}

// tableRef lets watch mode swap the mesh table between imports.
type tableRef struct {
	mu    sync.RWMutex
	table *meshtable.Table
}

func (r *tableRef) Lookup(key string) (*meshtable.Mesh, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table.Lookup(key)
}

func (r *tableRef) set(t *meshtable.Table) {
	r.mu.Lock()
	r.table = t
	r.mu.Unlock()
}

func resolveAbs(mgr *assets.Manager, p string) (string, error) {
	resolved, err := mgr.Resolve(p)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

func cmdWatch(cfg *config.Config) error {
	mgr, err := openContent(cfg)
	if err != nil {
		return err
	}
	defer mgr.Close()

	table, err := loadMeshTable(mgr, cfg.Import.MeshTable)
	if err != nil {
		return err
	}
	meshes := &tableRef{table: table}

	mapFile, err := resolveAbs(mgr, cfg.Import.MapPath)
	if err != nil {
		return err
	}
	tableFile, err := resolveAbs(mgr, cfg.Import.MeshTable)
	if err != nil {
		return err
	}

	w, err := watch.New(cfg.Watch.Debounce, mapFile, tableFile)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mem := sink.NewMemory()
	manifest := sink.NewManifest(cfg.Import.MapPath)
	im := importer.New(mgr, meshes, sink.Tee{mem, manifest})
	opts := importOptions(cfg)

	run := func() {
		before := mem.Len()
		res, err := im.Import(ctx, opts)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("Import failed, keeping previous placements", zap.Error(err))
			}
			return
		}
		if err := manifest.Save(cfg.Output.Manifest); err != nil {
			logger.Error("Failed to write manifest", zap.Error(err))
			return
		}
		logger.Info("Placements updated",
			zap.Uint64("epoch", res.Epoch),
			zap.Int("before", before),
			zap.Int("after", mem.Len()),
			zap.Int("missing", res.Missing))
	}

	run()
	logger.Info("Watching for changes", zap.Strings("files", w.Files()))

	for {
		select {
		case name, ok := <-w.Events:
			if !ok {
				return nil
			}
			logger.Debug("Change detected", zap.String("file", name))
			mgr.Invalidate(cfg.Import.MapPath)
			if name == tableFile {
				mgr.Invalidate(cfg.Import.MeshTable)
				t, err := loadMeshTable(mgr, cfg.Import.MeshTable)
				if err != nil {
					logger.Error("Mesh table reload failed", zap.Error(err))
					continue
				}
				meshes.set(t)
			}
			run()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error", zap.Error(err))
		case <-ctx.Done():
			logger.Info("Stopping watch")
			return nil
		}
	}
}

func cmdInit(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Printf("Config written to %s\n", config.DefaultPath())
		return nil
	}
	if err := cfg.SaveTo(args[0]); err != nil {
		return err
	}
	fmt.Printf("Config written to %s\n", args[0])
	return nil
}
