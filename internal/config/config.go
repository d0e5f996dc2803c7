package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"emotionchart/internal/aggregate"
)

// Chunk size limits shared by the slider and every chunked endpoint
const (
	MinChunkSize = 1
	MaxChunkSize = 1000
)

// Config holds all configuration for the emotion chart service
type Config struct {
	// Server configuration
	Port string `env:"PORT,default=8981"`

	// Data sources, local paths or http(s) URLs
	DataSource     string `env:"DATA_SOURCE,default=data/moby_dick.json"`
	LineDataSource string `env:"LINE_DATA_SOURCE,default=data/emotion_data.json"`

	// Chart defaults
	ChunkSize   int    `env:"CHUNK_SIZE,default=1"`
	StackOffset string `env:"STACK_OFFSET,default=none"`
	ChartWidth  int    `env:"CHART_WIDTH,default=960"`
	ChartHeight int    `env:"CHART_HEIGHT,default=600"`

	// GCP configuration (optional for local runs)
	GCPProjectID string `env:"GCP_PROJECT_ID"`
	GCSBucket    string `env:"GCS_BUCKET"`

	// Local configuration
	LocalExportsDir string `env:"LOCAL_EXPORTS_DIR,default=./exports"`
	MockupMode      bool   `env:"MOCKUP_MODE,default=false"`
	MockupRecords   int    `env:"MOCKUP_RECORDS,default=600"`
	MockupSeed      int64  `env:"MOCKUP_SEED,default=1"`

	// Service configuration
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	LogFormat   string `env:"LOG_FORMAT,default=auto"`
}

// Load reads an optional .env file and then the environment. Variables that
// are already set win over the file.
func Load(ctx context.Context, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot
func (c *Config) Validate() error {
	if c.ChunkSize < MinChunkSize || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("CHUNK_SIZE must be between %d and %d, got %d", MinChunkSize, MaxChunkSize, c.ChunkSize)
	}
	if _, err := aggregate.ParseOffset(c.StackOffset); err != nil {
		return fmt.Errorf("STACK_OFFSET: %w", err)
	}
	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		return fmt.Errorf("chart size must be positive, got %dx%d", c.ChartWidth, c.ChartHeight)
	}
	if c.MockupMode && c.MockupRecords <= 0 {
		return fmt.Errorf("MOCKUP_RECORDS must be positive, got %d", c.MockupRecords)
	}
	switch strings.ToLower(c.Environment) {
	case "development", "local", "production", "test":
	default:
		return fmt.Errorf("unknown ENVIRONMENT %q", c.Environment)
	}
	return nil
}

// Offset returns the parsed default stack offset
func (c *Config) Offset() aggregate.Offset {
	o, err := aggregate.ParseOffset(c.StackOffset)
	if err != nil {
		return aggregate.OffsetNone
	}
	return o
}

// UseGCS reports whether exports go to Cloud Storage
func (c *Config) UseGCS() bool {
	return c.GCSBucket != "" && strings.EqualFold(c.Environment, "production")
}
