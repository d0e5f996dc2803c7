package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/charts"
	"emotionchart/internal/logger"
	"emotionchart/internal/reports"
	"emotionchart/internal/storage"
	"emotionchart/internal/view"
)

// Output formats of the single chart commands
const (
	formatPNG = "png"
	formatSVG = "svg"
)

func (o *options) chartGenerator() *charts.ChartGenerator {
	return charts.NewChartGenerator(o.outDir, o.width, o.height)
}

func newAllCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Render the static charts and an export bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.For(logger.ComponentRender)
			ctx := cmd.Context()

			g, gctx := errgroup.WithContext(ctx)
			var files []string
			var bundle *reports.ExportResult

			g.Go(func() error {
				ds, err := opts.load(gctx, opts.source)
				if err != nil {
					return err
				}
				written, err := opts.chartGenerator().GenerateCharts(ds, opts.chunkSize, opts.stackOffset())
				if err != nil {
					return fmt.Errorf("failed to generate charts: %w", err)
				}
				files = written
				return nil
			})
			g.Go(func() error {
				result, err := runExport(gctx, opts)
				if err != nil {
					return err
				}
				bundle = result
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, f := range files {
				fmt.Fprintln(out, f)
			}
			fmt.Fprintln(out, filepath.Join(opts.outDir, filepath.FromSlash(bundle.Index)))
			log.Info("render complete", map[string]interface{}{"charts": len(files), "export": bundle.Folder})
			return nil
		},
	}
}

func newLineCmd(opts *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "line",
		Short: "Render the line/dot chart of --line-source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := opts.load(cmd.Context(), opts.lineSource)
			if err != nil {
				return err
			}
			if ds.Len() == 0 {
				return charts.ErrNoRecords
			}
			cg := opts.chartGenerator()

			var name string
			var render func(w io.Writer) error
			switch format {
			case formatPNG:
				name = charts.LinePNGFile
				render = func(w io.Writer) error { return cg.RenderLinePNG(w, ds.Records) }
			case formatSVG:
				name = charts.LineSVGFile
				render = func(w io.Writer) error { return cg.RenderLineSVG(w, ds.Records) }
			default:
				return fmt.Errorf("unknown format %q, want png or svg", format)
			}
			return writeOutput(cmd, opts.outDir, name, render)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatPNG, "Output format: png or svg")
	return cmd
}

func newStreamgraphCmd(opts *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "streamgraph",
		Short: "Render the streamgraph of --source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := opts.load(cmd.Context(), opts.source)
			if err != nil {
				return err
			}
			if ds.Len() == 0 {
				return charts.ErrNoRecords
			}

			switch format {
			case formatPNG:
				layers, err := aggregate.BuildStreamLayers(ds.Records, opts.chunkSize, opts.stackOffset())
				if err != nil {
					return err
				}
				cg := opts.chartGenerator()
				return writeOutput(cmd, opts.outDir, charts.StreamPNGFile, func(w io.Writer) error {
					return cg.RenderStreamPNG(w, layers)
				})
			case formatSVG:
				v, err := view.NewStreamView(ds.Records, view.StreamOptions{
					Width:     float64(opts.width),
					Height:    float64(opts.height),
					ChunkSize: opts.chunkSize,
					Offset:    opts.stackOffset(),
				})
				if err != nil {
					return err
				}
				defer v.Destroy()
				return writeOutput(cmd, opts.outDir, reports.StreamSVGFile, v.Scene().WriteSVG)
			default:
				return fmt.Errorf("unknown format %q, want png or svg", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatPNG, "Output format: png or svg")
	return cmd
}

func newExportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write a complete export bundle under --out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := runExport(cmd.Context(), opts)
			if err != nil {
				return err
			}
			names := append([]string(nil), result.Files...)
			sort.Strings(names)
			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintln(out, filepath.Join(opts.outDir, filepath.FromSlash(result.Folder), name))
			}
			return nil
		},
	}
}

// runExport stores a bundle through the same orchestrator the server uses,
// backed by local storage rooted at the output directory
func runExport(ctx context.Context, opts *options) (*reports.ExportResult, error) {
	ds, err := opts.load(ctx, opts.source)
	if err != nil {
		return nil, err
	}
	client, err := storage.NewLocalStorageClient(opts.outDir)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	cg := opts.chartGenerator()
	generator := reports.NewFileGenerator(cg, reports.NewReportService(cg))
	return reports.NewStorageOrchestrator(client, generator).Export(ctx, ds, reports.ExportOptions{
		ChunkSize: opts.chunkSize,
		Offset:    opts.stackOffset(),
		Width:     float64(opts.width),
		Height:    float64(opts.height),
	})
}

// writeOutput renders into outDir/name and prints the path
func writeOutput(cmd *cobra.Command, outDir, name string, render func(w io.Writer) error) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(outDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to render %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.For(logger.ComponentRender).Info("chart written", map[string]interface{}{"path": path})
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
