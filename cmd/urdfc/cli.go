package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pwatools/urdfc/internal/api"
	"github.com/pwatools/urdfc/internal/cache"
	"github.com/pwatools/urdfc/internal/compiler"
	"github.com/pwatools/urdfc/internal/influx"
	"github.com/pwatools/urdfc/internal/logging"
	"github.com/pwatools/urdfc/internal/model"
	"github.com/pwatools/urdfc/internal/pwa"
	"github.com/pwatools/urdfc/internal/storage"
	"github.com/pwatools/urdfc/pkg/core"
)

const usage = `usage: urdfc <command> [flags]

commands:
  compile <file>   compile a robot description into a hybrid model
  show <name>      print a stored model as JSON
  slice <name>     print a mode's guard cross-section as WKT
  list             list stored models
  delete <name>    remove a stored model
  version          print version information

run 'urdfc <command> -h' for command flags
`

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	var err error
	switch args[0] {
	case "compile":
		err = cmdCompile(args[1:])
	case "show":
		err = cmdShow(args[1:])
	case "slice":
		err = cmdSlice(args[1:])
	case "list":
		err = cmdList(args[1:])
	case "delete":
		err = cmdDelete(args[1:])
	case "version":
		fmt.Printf("%s %s (built %s)\n", ToolName, compiler.Version, BuildDate)
		return 0
	case "-h", "--help", "help":
		fmt.Print(usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func cmdCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	configDir := fs.String("config", ".", "directory containing urdfc.cfg.json")
	name := fs.String("name", "", "override the model name from the document")
	refsPath := fs.String("refs", "", "YAML file with per-mode linearization references")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("compile takes exactly one description file")
	}

	if err := setup(*configDir); err != nil {
		return err
	}
	defer teardown()

	doc, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to read description: %w", err)
	}

	refs, err := loadReferences(*refsPath)
	if err != nil {
		return err
	}

	opts := compiler.Options{
		Gravity:     core.Vec3{Cfg.Compile.Gravity[0], Cfg.Compile.Gravity[1], Cfg.Compile.Gravity[2]},
		FDStep:      Cfg.Compile.FDStep,
		Restitution: Cfg.Compile.Restitution,
		Parallel:    Cfg.Compile.Parallel,
		References:  refs,
	}

	comp := compiler.New(Logger, logging.NewPipelineLogger(dbLogger()))

	start := time.Now()
	res, err := comp.Compile(context.Background(), doc, opts)
	if err != nil {
		return err
	}
	total := time.Since(start)

	if *name != "" {
		res.Model.Name = *name
	}
	SlogManager.SetSubject(res.Model.Name)

	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}

	backend, err := storage.NewBackend(Cfg.Storage, storage.Dependencies{
		LogManager: SlogManager,
		ModelCache: cache.NewModelCache(),
		DBLog:      dbLogger(),
	})
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer backend.Close()

	if err := backend.SaveModel(res.Model); err != nil {
		return err
	}

	// catalog backends with an audit table also record the run
	if auditor, ok := backend.(interface {
		RecordRun(*model.CompileRun) error
	}); ok {
		_ = auditor.RecordRun(&model.CompileRun{
			ModelName: res.Model.Name,
			DocSHA256: res.Model.DocSHA256,
			Duration:  total.Seconds(),
			Warnings:  len(res.Warnings),
		})
	}

	if Cfg.Influx.Enabled {
		exportMetrics(res, total)
	}

	if Cfg.API.Enabled {
		publishModel(backend)
	}

	fmt.Printf("compiled %s: %d links, %d modes, nx=%d nu=%d\n",
		res.Model.Name, len(res.Model.Tree.Links), res.Model.PWA.NM, res.Model.PWA.NX, res.Model.PWA.NU)
	fmt.Printf("document sha256 %s\n", res.Model.DocSHA256)
	for _, tm := range res.Timings {
		fmt.Printf("  %-10s %v\n", tm.Stage, tm.Duration)
	}
	return nil
}

// exportMetrics pushes stage timings and the run summary to InfluxDB,
// or its backup spool. Metric failures never fail the compile.
func exportMetrics(res *compiler.Result, total time.Duration) {
	mgr := influx.NewManager(dbLogger(), influxBackupPath())
	if err := mgr.Connect(); err != nil {
		Logger.Warn("metrics export unavailable", "error", err)
		return
	}
	defer mgr.Close()

	ctx := context.Background()
	if err := mgr.WriteTimings(ctx, res.Model.Name, res.Timings); err != nil {
		Logger.Warn("failed to write stage timings", "error", err)
	}
	if err := mgr.WritePoint(ctx, influx.CompileBucket, influx.CompileRunPoint(res.Model, total)); err != nil {
		Logger.Warn("failed to write compile summary", "error", err)
	}
}

// publishModel uploads the latest export to the registry when the
// backend produced one. Registry failures never fail the compile.
func publishModel(backend storage.Backend) {
	up, ok := backend.(storage.Uploadable)
	if !ok || up.GetExportedFilePath() == "" {
		Logger.Debug("catalog backend has no exportable file, skipping upload")
		return
	}

	client := api.New(Cfg.API.ServerURL, Cfg.API.APIKey)
	if err := client.Healthcheck(); err != nil {
		Logger.Warn("registry unreachable, skipping upload", "error", err)
		return
	}
	if err := client.Upload(up.GetExportedFilePath(), up.GetExportMetadata()); err != nil {
		Logger.Warn("model upload failed", "error", err)
		return
	}
	Logger.Info("model uploaded", "path", up.GetExportedFilePath())
}

func cmdShow(args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	configDir := fs.String("config", ".", "directory containing urdfc.cfg.json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("show takes exactly one model name")
	}

	if err := setup(*configDir); err != nil {
		return err
	}
	defer teardown()

	backend, err := openCatalog()
	if err != nil {
		return err
	}
	defer backend.Close()

	m, err := backend.GetModel(fs.Arg(0))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

func cmdSlice(args []string) error {
	fs := flag.NewFlagSet("slice", flag.ContinueOnError)
	configDir := fs.String("config", ".", "directory containing urdfc.cfg.json")
	modeName := fs.String("mode", "free", "mode whose guard region to slice")
	dimsFlag := fs.String("dims", "0,1", "two state indices spanning the slice plane")
	atFlag := fs.String("at", "", "comma separated values pinning every state (default all zeros)")
	windowFlag := fs.String("window", "-1,1,-1,1", "clip window as minX,maxX,minY,maxY")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("slice takes exactly one model name")
	}

	dims, err := parseIndexPair(*dimsFlag)
	if err != nil {
		return err
	}
	win, err := parseFloatList(*windowFlag, 4)
	if err != nil {
		return err
	}

	if err := setup(*configDir); err != nil {
		return err
	}
	defer teardown()

	backend, err := openCatalog()
	if err != nil {
		return err
	}
	defer backend.Close()

	m, err := backend.GetModel(fs.Arg(0))
	if err != nil {
		return err
	}
	mode := m.PWA.ModeByName(*modeName)
	if mode == nil {
		return fmt.Errorf("model %q has no mode %q", m.Name, *modeName)
	}

	fixed := make([]float64, m.PWA.NX)
	if *atFlag != "" {
		if fixed, err = parseFloatList(*atFlag, m.PWA.NX); err != nil {
			return err
		}
	}

	poly, err := pwa.GuardSlice(mode.Guard, dims, fixed, pwa.SliceBounds{
		MinX: win[0], MaxX: win[1], MinY: win[2], MaxY: win[3],
	})
	if err != nil {
		return err
	}
	fmt.Println(poly.AsText())
	return nil
}

// parseIndexPair reads "i,j" into two distinct state indices.
func parseIndexPair(s string) ([2]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return [2]int{}, fmt.Errorf("expected two comma separated indices, got %q", s)
	}
	var out [2]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return [2]int{}, fmt.Errorf("bad state index %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}

// parseFloatList reads a comma separated list of exactly n floats.
func parseFloatList(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated values, got %d in %q", n, len(parts), s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}

func cmdList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	configDir := fs.String("config", ".", "directory containing urdfc.cfg.json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := setup(*configDir); err != nil {
		return err
	}
	defer teardown()

	backend, err := openCatalog()
	if err != nil {
		return err
	}
	defer backend.Close()

	infos, err := backend.ListModels()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("catalog is empty")
		return nil
	}

	fmt.Printf("%-24s %-6s %-4s %-4s %-20s %s\n", "NAME", "MODES", "NX", "NU", "COMPILED", "TOOL")
	for _, info := range infos {
		fmt.Printf("%-24s %-6d %-4d %-4d %-20s %s\n",
			info.Name, info.Modes, info.NX, info.NU,
			info.CompiledAt.Format(time.RFC3339), info.Tool)
	}
	return nil
}

func cmdDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	configDir := fs.String("config", ".", "directory containing urdfc.cfg.json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("delete takes exactly one model name")
	}

	if err := setup(*configDir); err != nil {
		return err
	}
	defer teardown()

	backend, err := openCatalog()
	if err != nil {
		return err
	}
	defer backend.Close()

	if err := backend.DeleteModel(fs.Arg(0)); err != nil {
		return err
	}
	fmt.Println("deleted", fs.Arg(0))
	return nil
}

func openCatalog() (storage.Backend, error) {
	backend, err := storage.NewBackend(Cfg.Storage, storage.Dependencies{
		LogManager: SlogManager,
		ModelCache: cache.NewModelCache(),
		DBLog:      dbLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return backend, nil
}

// loadReferences reads per-mode linearization points from a YAML file:
//
//	default:
//	  x: [0.3, 0, 0, 0]
//	  u: [0]
//	pole_tip/wall:
//	  x: [0.3, 0, 0.1, 0]
//	  u: [0]
//
// An empty path returns nil; the compiler then linearizes about the
// origin.
func loadReferences(path string) (map[string]core.Reference, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read references file: %w", err)
	}

	refs := make(map[string]core.Reference)
	if err := yaml.Unmarshal(data, &refs); err != nil {
		return nil, fmt.Errorf("failed to parse references file: %w", err)
	}
	return refs, nil
}
