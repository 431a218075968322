package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/voidshard/citynet"
	"github.com/voidshard/citynet/cityfile"
)

// options shared by every command
type options struct {
	verbose bool
	config  string
	strict  bool
	layer   float64
	json    bool
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// newRootCmd returns the citynet command & its subcommands
func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "citynet",
		Short:        "Synthesize city networks from drawn regions",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "TOML config file")
	root.PersistentFlags().BoolVar(&opts.strict, "strict", false, "fail on points outside every cell")
	root.PersistentFlags().Float64Var(&opts.layer, "layer", 0, "only work on the layer at this height")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "write results as JSON")

	root.AddCommand(cellsCmd(opts))
	root.AddCommand(synthCmd(opts))
	return root
}

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// run is a loaded & partitioned city
type run struct {
	e     *citynet.Engine
	city  *citynet.City
	scope citynet.Scope
	log   *log.Logger
}

// setup loads config & the city file & partitions its cells
func setup(cmd *cobra.Command, opts *options, path string) (*run, error) {
	level := log.InfoLevel
	if opts.verbose {
		level = log.DebugLevel
	}
	logger := newLogger(cmd.ErrOrStderr(), level)

	cfg := citynet.DefaultConfig()
	if opts.config != "" {
		var err error
		cfg, err = citynet.LoadConfig(opts.config)
		if err != nil {
			return nil, err
		}
	}
	if opts.strict {
		cfg.Strict = true
	}
	e := citynet.New(cfg, citynet.WithLogger(logger))

	f, err := cityfile.Load(path)
	if err != nil {
		return nil, err
	}
	city, err := f.Build(e)
	if err != nil {
		return nil, err
	}

	scope := citynet.Scope{City: city}
	if cmd.Flags().Changed("layer") {
		scope.Filter = citynet.OnLayer(opts.layer)
	}

	cells, err := e.PartitionCells(scope)
	if err != nil {
		return nil, err
	}
	logger.Info("partitioned", "city", city.Name, "cells", len(cells), "layers", len(city.Layers()))

	return &run{e: e, city: city, scope: scope, log: logger}, nil
}

func cellsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "cells <city.yaml>",
		Short: "Partition the city footprint into cells",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := setup(cmd, opts, args[0])
			if err != nil {
				return err
			}
			cells := r.city.Cells(r.scope.Filter)

			if opts.json {
				out := make([]cellJSON, len(cells))
				for i, c := range cells {
					out[i] = cellJSON{Key: c.Key, Layer: c.Layer, Region: c.Region, Area: c.Area, Centroid: [2]float64{c.Centroid.X, c.Centroid.Y}}
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			for _, c := range cells {
				region := c.Region
				if region == "" {
					region = "-"
				}
				fmt.Fprintf(w, "%-10s %-10s %-16s area=%.4f centroid=(%.4f, %.4f)\n", c.Key, c.Layer.Name, region, c.Area, c.Centroid.X, c.Centroid.Y)
			}
			return nil
		},
	}
}

func synthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "synth <city.yaml>",
		Short: "Partition the city & synthesize every system's nodes & edges",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := setup(cmd, opts, args[0])
			if err != nil {
				return err
			}

			out := []systemJSON{}
			for _, sys := range r.city.Systems() {
				res, err := r.e.RegenerateSystem(r.scope, sys)
				if err != nil {
					return err
				}
				if res.Warnings != nil {
					for _, w := range res.Warnings.Errors {
						r.log.Warn("partial synthesis", "system", sys.Name, "err", w)
					}
				}
				if !opts.json {
					fmt.Fprintf(cmd.OutOrStdout(), "%-16s %-14s regions=%d skipped=%d nodes=%d edges=%d\n",
						sys.Name, sys.Kind, len(res.Regenerated), len(res.Skipped), res.Nodes, res.Edges)
					continue
				}
				out = append(out, systemJSON{
					Name:  sys.Name,
					Kind:  sys.Kind,
					Nodes: sys.Nodes(r.scope.Filter),
					Edges: sys.Edges(r.scope.Filter),
				})
			}

			if opts.json {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
}

type cellJSON struct {
	Key      citynet.CellKey `json:"key"`
	Layer    citynet.Layer   `json:"layer"`
	Region   string          `json:"region,omitempty"`
	Area     float64         `json:"area"`
	Centroid [2]float64      `json:"centroid"`
}

type systemJSON struct {
	Name  string             `json:"name"`
	Kind  citynet.SystemKind `json:"kind"`
	Nodes []citynet.Node     `json:"nodes"`
	Edges []citynet.Edge     `json:"edges"`
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
