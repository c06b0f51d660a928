package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/siherrmann/fuser/helper"
	"github.com/siherrmann/fuser/model"
	loadSql "github.com/siherrmann/fuser/sql"
)

// GraphDBHandlerFunctions defines the interface for graph database operations.
type GraphDBHandlerFunctions interface {
	InsertEntity(entity *model.Entity) error
	InsertEntityEdge(edge *model.EntityEdge) error
	InsertEntityMention(mention *model.EntityMention) error
	SelectEntityByName(name string) (*model.Entity, error)
	DeleteEntity(id uuid.UUID) error
	GraphSearch(ctx context.Context, query string, depth int, limit int) ([]model.Hit, error)
}

// GraphDBHandler handles entity graph database operations and acts as the
// graph search collaborator
type GraphDBHandler struct {
	db *helper.Database
}

// NewGraphDBHandler creates a new graph database handler.
// It initializes the database connection and loads graph-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewGraphDBHandler(db *helper.Database, force bool) (*GraphDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	graphDbHandler := &GraphDBHandler{
		db: db,
	}

	err := loadSql.LoadGraphSql(graphDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load graph sql", err)
	}

	err = graphDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized GraphDBHandler")

	return graphDbHandler, nil
}

// CreateTable creates the entity graph tables in the database.
// If the tables already exist, it does not create them again.
func (h *GraphDBHandler) CreateTable() error {
	_, err := h.db.Instance.Exec(`SELECT init_graph();`)
	if err != nil {
		return helper.NewError("init graph tables", err)
	}

	h.db.Logger.Info("Checked/created graph tables")

	return nil
}

// InsertEntity inserts a new entity
func (h *GraphDBHandler) InsertEntity(entity *model.Entity) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_entity($1, $2, $3)`,
		entity.Name,
		entity.Type,
		entity.Metadata,
	)

	err := row.Scan(
		&entity.ID,
		&entity.Name,
		&entity.Type,
		&entity.Metadata,
		&entity.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// InsertEntityEdge inserts a new relationship between two entities
func (h *GraphDBHandler) InsertEntityEdge(edge *model.EntityEdge) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_entity_edge($1, $2, $3, $4, $5)`,
		edge.SourceEntityID,
		edge.TargetEntityID,
		edge.Relation,
		edge.Weight,
		edge.Metadata,
	)

	err := row.Scan(
		&edge.ID,
		&edge.SourceEntityID,
		&edge.TargetEntityID,
		&edge.Relation,
		&edge.Weight,
		&edge.Metadata,
		&edge.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// InsertEntityMention links an entity to the document chunk it was found in
func (h *GraphDBHandler) InsertEntityMention(mention *model.EntityMention) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_entity_mention($1, $2, $3)`,
		mention.EntityID,
		mention.DocumentRID,
		mention.ChunkIndex,
	)

	err := row.Scan(
		&mention.EntityID,
		&mention.DocumentRID,
		&mention.ChunkIndex,
		&mention.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectEntityByName retrieves an entity by its name
func (h *GraphDBHandler) SelectEntityByName(name string) (*model.Entity, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_entity_by_name($1)`,
		name,
	)

	entity := &model.Entity{}
	err := row.Scan(
		&entity.ID,
		&entity.Name,
		&entity.Type,
		&entity.Metadata,
		&entity.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entity, nil
}

// DeleteEntity deletes an entity and its edges and mentions
func (h *GraphDBHandler) DeleteEntity(id uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_entity($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// GraphSearch traverses the entity graph from entities matching the query and
// returns the mentioned chunks as hits. The raw score of a hit is the match
// count, the number of distinct matched entities mentioned in the chunk, which
// downstream normalization divides by the traversal depth limit.
func (h *GraphDBHandler) GraphSearch(ctx context.Context, query string, depth int, limit int) ([]model.Hit, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM search_graph($1, $2, $3)`,
		query,
		depth,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var hits []model.Hit
	for rows.Next() {
		var entityID uuid.UUID
		var entityName string
		var entityType string
		var matchCount int
		var documentRID uuid.UUID
		var chunkIndex int
		var snippet string

		err := rows.Scan(
			&entityID,
			&entityName,
			&entityType,
			&matchCount,
			&documentRID,
			&chunkIndex,
			&snippet,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		hits = append(hits, model.Hit{
			SourceID:   fmt.Sprintf("entity:%s", entityID),
			SourceType: model.SourceTypeGraph,
			RawScore:   float64(matchCount),
			ContentRef: model.ChunkContentRef(documentRID, chunkIndex),
			Payload:    snippet,
			Metadata: model.Metadata{
				"entity_name": entityName,
				"entity_type": entityType,
			},
		})
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return hits, nil
}
