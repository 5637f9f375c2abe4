package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vvka-141/jsonload/internal/files/filesystem"
	"github.com/vvka-141/jsonload/internal/files/scanner"
	"github.com/vvka-141/jsonload/internal/ingest"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// StoreOpener opens a storage backend. store.Open is the production value.
type StoreOpener func(ctx context.Context, cfg *jsonload.ConnectionConfig, logger jsonload.Logger) (jsonload.Store, error)

// IngestRequest describes one run.
type IngestRequest struct {
	Connection *jsonload.ConnectionConfig
	Run        jsonload.RunConfig

	// Paths is the ordered input. When empty, Folder is scanned.
	Paths     []string
	Folder    string
	Recursive bool
}

// IngestionService opens the store, runs the pipeline and closes the store.
// Thread-Safety: safe for concurrent Ingest calls; each call owns its store.
type IngestionService struct {
	openStore StoreOpener
	fs        filesystem.FileSystemProvider
	scanner   *scanner.Scanner
	logger    jsonload.Logger
	newRunID  func() string
}

// NewIngestionService wires the service. Panics on nil dependencies.
func NewIngestionService(openStore StoreOpener, fs filesystem.FileSystemProvider, logger jsonload.Logger) *IngestionService {
	if openStore == nil {
		panic("openStore cannot be nil")
	}
	if fs == nil {
		panic("fs cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &IngestionService{
		openStore: openStore,
		fs:        fs,
		scanner:   scanner.NewScannerWithFS(fs),
		logger:    logger,
		newRunID:  uuid.NewString,
	}
}

// Ingest loads req's files. Setup failures (configuration, empty input,
// connection, schema) are returned before any file is touched.
func (s *IngestionService) Ingest(ctx context.Context, req IngestRequest, sink jsonload.EventSink) (jsonload.Summary, error) {
	if req.Connection == nil {
		return jsonload.Summary{}, fmt.Errorf("connection is required: %w", jsonload.ErrInvalidConfig)
	}
	if err := req.Run.Validate(); err != nil {
		return jsonload.Summary{}, err
	}
	run := req.Run.WithDefaults()

	decoder, err := ingest.NewDecoder(s.fs, run.Encoding)
	if err != nil {
		return jsonload.Summary{}, err
	}

	paths, err := s.resolvePaths(req)
	if err != nil {
		return jsonload.Summary{}, err
	}

	if pool := req.Connection.EffectivePoolSize(); run.Workers > pool {
		s.logger.Info("Warning: %d workers share %d pooled connections; workers will wait for connections (consider --pool-size %d)",
			run.Workers, pool, run.Workers)
	}

	runID := s.newRunID()
	s.logger.Verbose("Run %s: %d files", runID, len(paths))

	st, err := s.openStore(ctx, req.Connection, s.logger)
	if err != nil {
		return jsonload.Summary{}, err
	}
	defer func() {
		if err := st.Close(); err != nil {
			s.logger.Error("Failed to close store: %v", err)
		}
	}()

	pipeline, err := ingest.NewPipeline(st, decoder, s.fs, s.logger, run, ingest.WithRunID(runID))
	if err != nil {
		return jsonload.Summary{}, err
	}
	return pipeline.Run(ctx, paths, sink)
}

func (s *IngestionService) resolvePaths(req IngestRequest) ([]string, error) {
	if len(req.Paths) > 0 {
		return req.Paths, nil
	}
	if req.Folder == "" {
		return nil, fmt.Errorf("no input folder or paths given: %w", jsonload.ErrInvalidConfig)
	}
	paths, err := s.scanner.ListJSON(req.Folder, scanner.Options{Recursive: req.Recursive})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", req.Folder, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s contains no %s files: %w", req.Folder, jsonload.JSONExtension, jsonload.ErrNoFiles)
	}
	return paths, nil
}

// Connect opens and closes the store, which verifies connectivity and
// creates the database and table when missing.
func (s *IngestionService) Connect(ctx context.Context, cfg *jsonload.ConnectionConfig) error {
	if cfg == nil {
		return fmt.Errorf("connection is required: %w", jsonload.ErrInvalidConfig)
	}
	st, err := s.openStore(ctx, cfg, s.logger)
	if err != nil {
		return err
	}
	return st.Close()
}
