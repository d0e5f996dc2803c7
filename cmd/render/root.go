package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"emotionchart/internal/aggregate"
	"emotionchart/internal/config"
	"emotionchart/internal/loader"
	"emotionchart/internal/logger"
	"emotionchart/internal/mocks"
	"emotionchart/internal/models"
	"emotionchart/internal/view"
)

// options are the flags shared by every subcommand
type options struct {
	source     string
	lineSource string
	outDir     string
	chunkSize  int
	offset     string
	width      int
	height     int
	mockup     bool
	records    int
	seed       int64
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "render",
		Short: "Render emotion charts without running the server",
		Long: `Render loads an emotion corpus (a JSON array of label, accuracy and
paragraph objects) and writes the line/dot chart, the streamgraph and
export bundles to a local directory.

Examples:
  render all --source data/moby_dick.json --chunk 5
  render streamgraph --format svg --offset wiggle --out ./charts
  render export --mockup --records 300`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Configure(opts.logLevel, "auto"); err != nil {
				return err
			}
			return opts.validate()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.source, "source", "data/moby_dick.json", "Streamgraph corpus, a local path or http(s) URL")
	flags.StringVar(&opts.lineSource, "line-source", "data/emotion_data.json", "Line chart corpus, a local path or http(s) URL")
	flags.StringVarP(&opts.outDir, "out", "o", "charts", "Output directory")
	flags.IntVarP(&opts.chunkSize, "chunk", "c", 1, "Records per streamgraph chunk")
	flags.StringVar(&opts.offset, "offset", string(aggregate.OffsetNone), "Stack offset: none, expand, silhouette or wiggle")
	flags.IntVar(&opts.width, "width", int(view.DefaultStreamWidth), "Chart width in pixels")
	flags.IntVar(&opts.height, "height", int(view.DefaultStreamHeight), "Chart height in pixels")
	flags.BoolVar(&opts.mockup, "mockup", false, "Render a generated corpus instead of reading --source")
	flags.IntVar(&opts.records, "records", 600, "Number of generated records in mockup mode")
	flags.Int64Var(&opts.seed, "seed", 1, "Seed of the generated corpus")
	flags.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newAllCmd(opts),
		newLineCmd(opts),
		newStreamgraphCmd(opts),
		newExportCmd(opts),
	)
	return rootCmd
}

func (o *options) validate() error {
	if o.chunkSize < config.MinChunkSize || o.chunkSize > config.MaxChunkSize {
		return fmt.Errorf("--chunk must be between %d and %d, got %d: %w",
			config.MinChunkSize, config.MaxChunkSize, o.chunkSize, aggregate.ErrInvalidChunkSize)
	}
	if _, err := aggregate.ParseOffset(o.offset); err != nil {
		return fmt.Errorf("--offset: %w", err)
	}
	if o.width <= 0 || o.height <= 0 {
		return fmt.Errorf("chart size must be positive, got %dx%d", o.width, o.height)
	}
	if o.mockup && o.records <= 0 {
		return fmt.Errorf("--records must be positive, got %d", o.records)
	}
	return nil
}

func (o *options) stackOffset() aggregate.Offset {
	offset, _ := aggregate.ParseOffset(o.offset)
	return offset
}

// load reads a corpus, or generates one in mockup mode
func (o *options) load(ctx context.Context, source string) (*models.Dataset, error) {
	if o.mockup {
		return mocks.NewMockService(o.seed).LoadMockData(o.records)
	}
	return loader.New().Load(ctx, source)
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
