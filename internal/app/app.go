package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/vk/tempoplan/internal/check"
	"github.com/vk/tempoplan/internal/ctxlog"
	"github.com/vk/tempoplan/internal/export"
	"github.com/vk/tempoplan/internal/fsutil"
	"github.com/vk/tempoplan/internal/hclspec"
	"github.com/vk/tempoplan/internal/tpn"
)

// App encapsulates the compiler's dependencies, configuration, and
// lifecycle. Logs go to logW; the exported network goes to outW unless
// the configuration names an output file.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
}

// New is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger.
func New(outW, logW io.Writer, config *Config) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logger: logger,
		config: config,
	}
}

// Run executes the compile pipeline: discover plan sources, decode and
// resolve them, build the temporal plan network, check it, and export the
// result. On any diagnostic the network is withheld and Run returns an
// error.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	files, err := fsutil.FindFilesByExtension(a.config.PlanPath, ".hcl")
	if err != nil {
		return fmt.Errorf("failed to discover plan sources: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no .hcl plan sources found under %s", a.config.PlanPath)
	}
	a.logger.Debug("Discovered plan sources.", "count", len(files))

	doc, err := hclspec.NewLoader().Load(ctx, files...)
	if err != nil {
		return fmt.Errorf("failed to load plan: %w", err)
	}
	a.logger.Info("Plan loaded.",
		"classes", len(doc.Model.Classes),
		"objects", len(doc.Model.Objects),
		"methods", len(doc.Model.Methods))

	network, err := tpn.Build(doc.Plan)
	if err != nil {
		return fmt.Errorf("failed to build network: %w", err)
	}
	a.logger.Debug("Network built.", "nodes", len(network.Nodes), "edges", len(network.Edges))

	result := check.Check(network)
	if !result.OK() {
		for _, diag := range result.Errors {
			a.logger.Error("Plan check failed.", "error", diag)
		}
		return fmt.Errorf("plan is inconsistent: %d diagnostic(s), first: %w", len(result.Errors), result.Errors[0])
	}
	a.logger.Info("Plan checked.", "nodes", len(network.Nodes), "branches", len(network.Branches()))

	return a.export(network, result)
}

func (a *App) export(network *tpn.Network, result *check.Result) error {
	out := a.outW
	if a.config.OutputPath != "" {
		f, err := os.Create(a.config.OutputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	var err error
	switch a.config.OutputFormat {
	case "yaml":
		err = export.WriteYAML(out, network, result)
	default:
		err = export.WriteJSON(out, network, result)
	}
	if err != nil {
		return fmt.Errorf("failed to export network: %w", err)
	}
	a.logger.Debug("Network exported.", "format", a.config.OutputFormat, "path", a.config.OutputPath)
	return nil
}
