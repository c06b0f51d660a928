package fuser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/fuser/core/pipeline"
	"github.com/siherrmann/fuser/core/selector"
	"github.com/siherrmann/fuser/database"
	"github.com/siherrmann/fuser/helper"
	"github.com/siherrmann/fuser/model"
	loadSql "github.com/siherrmann/fuser/sql"
)

// Fuser fuses results from a vector search collaborator and a graph search
// collaborator into one deduplicated, ranked, budget-bounded evidence set
type Fuser struct {
	DB        *helper.Database
	Chunks    *database.ChunksDBHandler
	Documents *database.DocumentsDBHandler
	Graph     *database.GraphDBHandler
	// Collaborators
	vector selector.VectorSearcher
	graph  selector.GraphSearcher
	boost  selector.BoostProvider
	// Logging
	log *slog.Logger
}

// QueryResult is the outcome of one hybrid query
type QueryResult struct {
	Evidence    model.Evidence  `json:"evidence"`
	Trace       model.ToolTrace `json:"trace"`
	IsSparse    bool            `json:"is_sparse"`
	TotalRanked int             `json:"total_ranked"`
}

// New creates a Fuser on top of caller-provided collaborators.
// Use this to fuse results from external search backends; use NewPostgres for
// the bundled Postgres-backed collaborators.
func New(vector selector.VectorSearcher, graph selector.GraphSearcher, logger *slog.Logger) (*Fuser, error) {
	if vector == nil || graph == nil {
		return nil, helper.NewError("collaborator validation", fmt.Errorf("vector and graph collaborators must not be nil"))
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Fuser{
		vector: vector,
		graph:  graph,
		log:    logger,
	}, nil
}

// NewPostgres creates a Fuser instance backed by the bundled Postgres
// collaborators with all handlers initialized
func NewPostgres(config *helper.DatabaseConfiguration, embed database.EmbedFunc, embeddingDim int) (*Fuser, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("fuser", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in the correct order (documents first, then chunks)
	// force=false to not reload if functions already exist
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, embed, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	graph, err := database.NewGraphDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create graph handler", err)
	}

	return &Fuser{
		DB:        db,
		Chunks:    chunks,
		Documents: documents,
		Graph:     graph,
		vector:    chunks,
		graph:     graph,
		boost:     documents,
		log:       logger,
	}, nil
}

// Close closes the database connection
func (f *Fuser) Close() error {
	if f.DB != nil && f.DB.Instance != nil {
		return f.DB.Instance.Close()
	}
	return nil
}

// SetBoostProvider sets an optional boost provider for ranking.
// The Postgres-backed Fuser uses the documents handler by default; callers
// wiring their own collaborators can attach one here.
func (f *Fuser) SetBoostProvider(provider selector.BoostProvider) {
	f.boost = provider
}

// RunHybridQuery runs the full hybrid flow for one query: tool selection,
// concurrent collaborator invocation, normalization, deduplication, ranking
// and budget-bounded assembly.
// When every invoked tool fails the returned error wraps
// [model.ErrNoEvidenceAvailable] and the result still carries the tool trace.
// Healthy tools returning no hits yield an empty, sparse result without error.
// Cancellation of ctx returns the context error without a result.
func (f *Fuser) RunHybridQuery(ctx context.Context, query string, config *model.QueryConfig) (*QueryResult, error) {
	if config == nil {
		defaults := model.DefaultQueryConfig()
		config = &defaults
	}
	if err := config.Validate(); err != nil {
		return nil, helper.NewError("validate config", err)
	}

	// Building the pipeline first surfaces configuration errors before any
	// collaborator is invoked.
	pipe, err := pipeline.NewPipeline(*config, f.log)
	if err != nil {
		return nil, helper.NewError("create pipeline", err)
	}

	sel := selector.NewSelector(f.vector, f.graph, *config, f.log)
	hits, trace, err := sel.Invoke(ctx, query)
	if err != nil {
		if errors.Is(err, model.ErrNoEvidenceAvailable) {
			return &QueryResult{Trace: trace}, err
		}
		return nil, err
	}

	var boost pipeline.BoostFunc
	if f.boost != nil && config.BoostEnabled {
		boost = func(canonicalID string) (float64, bool) {
			return f.boost.Boost(ctx, canonicalID)
		}
	}

	assembled, err := pipe.Run(hits, boost, trace)
	if err != nil {
		return nil, helper.NewError("run pipeline", err)
	}

	result := &QueryResult{
		Evidence:    assembled.Evidence,
		Trace:       assembled.Trace,
		IsSparse:    assembled.IsSparse,
		TotalRanked: assembled.TotalRanked,
	}

	f.log.Info("Hybrid query completed",
		slog.String("state", string(sel.State())),
		slog.Int("evidence", len(result.Evidence)),
		slog.Bool("is_sparse", result.IsSparse))

	return result, nil
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (f *Fuser) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	if f.Chunks == nil {
		return helper.NewError("change index type", fmt.Errorf("not backed by Postgres"))
	}
	return f.Chunks.ChangeIndexType(ctx, indexType, params)
}
