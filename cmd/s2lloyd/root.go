// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/2dChan/s2lloyd"
	"github.com/2dChan/s2lloyd/internal/config"
	"github.com/2dChan/s2lloyd/internal/pointio"
	"github.com/2dChan/s2lloyd/internal/render"
	"github.com/golang/geo/s2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the state shared by the commands of one root command.
type app struct {
	// Global flags
	verbose    bool
	configPath string

	// Flag values; they override the config only when set explicitly.
	points     int
	seed       int64
	iterations int
	weight     float64
	workers    int
	tolerance  float64
	format     string
	out        string
	width      int
	in         string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	def := config.DefaultConfig()

	root := &cobra.Command{
		Use:   "s2lloyd",
		Short: "Evenly distributed points on the unit sphere",
		Long: `s2lloyd samples random points on the unit sphere and spreads them
evenly with Lloyd relaxation of their spherical Voronoi diagram.

Settings come from an optional YAML file (--config) and are overridden by
the S2LLOYD_WORKERS and S2LLOYD_LOG_LEVEL environment variables and then by
explicit flags.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")

	sampleCmd := &cobra.Command{
		Use:   "sample",
		Short: "Sample uniform random points on the sphere",
		Args:  cobra.NoArgs,
		RunE:  a.run(a.sample),
	}
	a.samplingFlags(sampleCmd, def)
	a.outputFlags(sampleCmd, def)

	relaxCmd := &cobra.Command{
		Use:   "relax",
		Short: "Relax sampled or loaded points with Lloyd iterations",
		Long: `Relaxes a point set with Lloyd iterations. Points are sampled from --n and
--seed unless --in names a YAML or JSON point file written by sample or relax.`,
		Args: cobra.NoArgs,
		RunE: a.run(a.relax),
	}
	a.samplingFlags(relaxCmd, def)
	a.relaxFlags(relaxCmd, def)
	a.outputFlags(relaxCmd, def)

	cellsCmd := &cobra.Command{
		Use:   "cells",
		Short: "Print a per-cell summary of the relaxed Voronoi diagram",
		Args:  cobra.NoArgs,
		RunE:  a.run(a.cells),
	}
	a.samplingFlags(cellsCmd, def)
	a.relaxFlags(cellsCmd, def)
	cellsCmd.Flags().StringVarP(&a.out, "out", "o", def.Output.Path, "output file (default stdout)")

	root.AddCommand(sampleCmd, relaxCmd, cellsCmd)
	return root
}

func (a *app) samplingFlags(cmd *cobra.Command, def *config.Config) {
	cmd.Flags().IntVar(&a.points, "n", def.Points, "number of points")
	cmd.Flags().Int64Var(&a.seed, "seed", def.Seed, "random seed")
}

func (a *app) relaxFlags(cmd *cobra.Command, def *config.Config) {
	cmd.Flags().IntVarP(&a.iterations, "iterations", "k", def.Iterations, "maximum number of Lloyd iterations")
	cmd.Flags().Float64Var(&a.weight, "weight", def.Weight, "centroid weight in (0, 1]")
	cmd.Flags().IntVar(&a.workers, "workers", def.Workers, "parallel workers (0 means one per CPU)")
	cmd.Flags().Float64Var(&a.tolerance, "tolerance", def.Tolerance, "stop once no point moves more than this many radians")
	cmd.Flags().StringVar(&a.in, "in", "", "read points from a YAML or JSON file")
}

func (a *app) outputFlags(cmd *cobra.Command, def *config.Config) {
	cmd.Flags().StringVarP(&a.format, "format", "f", def.Output.Format, "output format: yaml, json or svg")
	cmd.Flags().StringVarP(&a.out, "out", "o", def.Output.Path, "output file (default stdout)")
	cmd.Flags().IntVar(&a.width, "width", def.Output.Width, "SVG width in pixels")
}

// setup loads the config, applies explicit flags and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	if a.verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	a.logger, err = zc.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = a.logger.With(
		zap.String("command", cmd.Name()),
		zap.String("run", uuid.NewString()),
	)
	return nil
}

func (a *app) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("n") {
		cfg.Points = a.points
	}
	if flags.Changed("seed") {
		cfg.Seed = a.seed
	}
	if flags.Changed("iterations") {
		cfg.Iterations = a.iterations
	}
	if flags.Changed("weight") {
		cfg.Weight = a.weight
	}
	if flags.Changed("workers") {
		cfg.Workers = a.workers
	}
	if flags.Changed("tolerance") {
		cfg.Tolerance = a.tolerance
	}
	if flags.Changed("format") {
		cfg.Output.Format = a.format
	}
	if flags.Changed("out") {
		cfg.Output.Path = a.out
	}
	if flags.Changed("width") {
		cfg.Output.Width = a.width
	}
}

// run logs a failing command before handing the error back to cobra.
func (a *app) run(fn func(cmd *cobra.Command) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd)
		if err != nil {
			a.logger.Error("command failed", zap.Error(err))
		}
		return err
	}
}

// lloydOptions turns the config into library options.
func (a *app) lloydOptions() []s2lloyd.Option {
	opts := []s2lloyd.Option{
		s2lloyd.WithWeight(a.cfg.Weight),
		s2lloyd.WithTolerance(a.cfg.Tolerance),
		s2lloyd.WithLogger(a.logger),
	}
	if a.cfg.Workers > 0 {
		opts = append(opts, s2lloyd.WithWorkers(a.cfg.Workers))
	}
	return opts
}

// pointSet is a point set with the seed it was sampled from and the number
// of Lloyd iterations applied to it so far.
type pointSet struct {
	seed       int64
	iterations int
	points     s2.PointVector
}

// inputPoints loads --in when given and samples otherwise.
func (a *app) inputPoints() (pointSet, error) {
	if a.in == "" {
		points, err := s2lloyd.SampleSphere(a.cfg.Points, a.cfg.Seed)
		if err != nil {
			return pointSet{}, err
		}
		a.logger.Debug("sampled points", zap.Int("points", len(points)), zap.Int64("seed", a.cfg.Seed))
		return pointSet{seed: a.cfg.Seed, points: points}, nil
	}

	doc, err := pointio.ReadFile(a.in)
	if err != nil {
		return pointSet{}, fmt.Errorf("failed to read points: %w", err)
	}
	points, err := doc.PointVector()
	if err != nil {
		return pointSet{}, fmt.Errorf("%s: %w", a.in, err)
	}
	a.logger.Debug("loaded points", zap.String("path", a.in), zap.Int("points", len(points)))
	return pointSet{seed: doc.Seed, iterations: doc.Iterations, points: points}, nil
}

// output opens the configured destination.
func (a *app) output(cmd *cobra.Command) (io.Writer, func() error, error) {
	if a.cfg.Output.Path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(a.cfg.Output.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output: %w", err)
	}
	return f, f.Close, nil
}

// write encodes ps in the configured format. vd is drawn for svg output when
// it is not nil.
func (a *app) write(cmd *cobra.Command, ps pointSet, vd *s2lloyd.Diagram) (err error) {
	w, closeFn, err := a.output(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); err == nil {
			err = cerr
		}
	}()

	if a.cfg.Output.Format != config.FormatSVG {
		return pointio.Write(w, a.cfg.Output.Format, pointio.NewDocument(ps.seed, ps.iterations, ps.points))
	}

	m, err := render.New(a.cfg.Output.Width)
	if err != nil {
		return err
	}
	if vd == nil {
		return m.Points(w, ps.points)
	}
	drawn, err := m.Diagram(w, vd)
	if err != nil {
		return err
	}
	a.logger.Debug("rendered diagram", zap.Int("polygons", drawn), zap.Int("cells", vd.NumCells()))
	return nil
}
