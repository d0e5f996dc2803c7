package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"emotionchart/internal/charts"
	"emotionchart/internal/config"
	"emotionchart/internal/loader"
	"emotionchart/internal/logger"
	"emotionchart/internal/mocks"
	"emotionchart/internal/models"
	"emotionchart/internal/reports"
	"emotionchart/internal/storage"
)

// Server represents the main application server
type Server struct {
	Config         *config.Config
	Loader         *loader.Loader
	MockService    *mocks.MockService
	Charts         *charts.ChartGenerator
	Reports        *reports.ReportService
	Exporter       *reports.StorageOrchestrator
	Storage        storage.StorageClient
	DeploymentMode storage.DeploymentMode

	exportMutex sync.Mutex
	upgrader    websocket.Upgrader
	log         *logger.Logger

	// live sessions end when base is cancelled
	base     context.Context
	cancel   context.CancelFunc
	sessions sync.WaitGroup
}

// NewServer creates a new server instance with the storage backend the
// configuration asks for
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	mode := storage.ModeFor(cfg)
	client, err := storage.NewStorageClient(ctx, mode, cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithStorage(cfg, client, mode), nil
}

// NewServerWithStorage creates a server around an existing storage client
func NewServerWithStorage(cfg *config.Config, client storage.StorageClient, mode storage.DeploymentMode) *Server {
	log := logger.For(logger.ComponentServer)

	chartGen := charts.NewChartGenerator("", cfg.ChartWidth, cfg.ChartHeight)
	reportService := reports.NewReportService(chartGen)
	base, cancel := context.WithCancel(context.Background())

	s := &Server{
		Config:         cfg,
		Loader:         loader.New(),
		Charts:         chartGen,
		Reports:        reportService,
		Exporter:       reports.NewStorageOrchestrator(client, reports.NewFileGenerator(chartGen, reportService)),
		Storage:        client,
		DeploymentMode: mode,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		log:    log,
		base:   base,
		cancel: cancel,
	}

	if cfg.MockupMode {
		s.MockService = mocks.NewMockService(cfg.MockupSeed)
		log.Info("mockup mode enabled", map[string]interface{}{
			"records": cfg.MockupRecords,
			"seed":    cfg.MockupSeed,
		})
	}
	log.Info("server configured", map[string]interface{}{
		"deployment_mode": string(mode),
		"data_source":     cfg.DataSource,
		"line_source":     cfg.LineDataSource,
	})
	return s
}

// SetupRoutes configures HTTP routes for the server
func (s *Server) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.HandleHealth)

	// Pages
	mux.HandleFunc("/streamgraph", s.HandleStreamgraph)
	mux.HandleFunc("/live", s.HandleLive)
	mux.HandleFunc("/transitions", s.HandleTransitions)
	mux.HandleFunc("/dashboard", s.HandleDashboard)

	// Rendered charts
	mux.HandleFunc("/svg/line", s.HandleLineSVG)
	mux.HandleFunc("/svg/streamgraph", s.HandleStreamSVG)
	mux.HandleFunc("/png/line", s.HandleLinePNG)
	mux.HandleFunc("/png/streamgraph", s.HandleStreamPNG)

	// JSON API
	mux.HandleFunc("/api/records", s.HandleRecords)
	mux.HandleFunc("/api/layers", s.HandleLayers)
	mux.HandleFunc("/api/select", s.HandleSelect)
	mux.HandleFunc("/api/legend", s.HandleLegend)

	// Live view sessions
	mux.HandleFunc("/ws/live", s.HandleLiveSocket)

	// Exports
	mux.HandleFunc("/export", s.HandleExport)
	mux.HandleFunc("/exports", s.HandleListExports)
	mux.HandleFunc("/files/", s.HandleFileProxy)

	// Handle root path last (catch-all)
	mux.HandleFunc("/", s.HandleRoot)

	return mux
}

// loadDataset reads a source, or generates a corpus in mockup mode
func (s *Server) loadDataset(ctx context.Context, source string) (*models.Dataset, error) {
	if s.MockService != nil {
		return s.MockService.LoadMockData(s.Config.MockupRecords)
	}
	return s.Loader.Load(ctx, source)
}

// Shutdown ends every live session and waits for them, bounded by ctx
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("live sessions did not finish: %w", ctx.Err())
	}
}

// Close cleans up server resources
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	shutdownErr := s.Shutdown(ctx)
	if s.Storage != nil {
		if err := s.Storage.Close(); err != nil {
			return err
		}
	}
	return shutdownErr
}
