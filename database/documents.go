package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/fuser/helper"
	"github.com/siherrmann/fuser/model"
	loadSql "github.com/siherrmann/fuser/sql"
)

// DocumentsDBHandlerFunctions defines the interface for Documents database operations.
type DocumentsDBHandlerFunctions interface {
	InsertDocument(document *model.Document) error
	SelectDocument(rid uuid.UUID) (*model.Document, error)
	SelectAllDocuments() ([]*model.Document, error)
	DeleteDocument(rid uuid.UUID) error
	Boost(ctx context.Context, canonicalID string) (float64, bool)
}

// DocumentsDBHandler handles document-related database operations and acts as
// the recency boost provider
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It initializes the database connection and loads document-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db: db,
	}

	err := loadSql.LoadDocumentsSql(documentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = documentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// CreateTable creates the 'documents' table in the database.
// If the table already exists, it does not create it again.
func (h *DocumentsDBHandler) CreateTable() error {
	_, err := h.db.Instance.Exec(`SELECT init_documents();`)
	if err != nil {
		return helper.NewError("init documents table", err)
	}

	h.db.Logger.Info("Checked/created table documents")

	return nil
}

// InsertDocument inserts a new document
func (h *DocumentsDBHandler) InsertDocument(document *model.Document) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_document($1, $2, $3)`,
		document.Title,
		document.Source,
		document.Metadata,
	)

	err := row.Scan(
		&document.ID,
		&document.RID,
		&document.Title,
		&document.Source,
		&document.Metadata,
		&document.CreatedAt,
		&document.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectDocument retrieves a document by RID
func (h *DocumentsDBHandler) SelectDocument(rid uuid.UUID) (*model.Document, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_document($1)`,
		rid,
	)

	document := &model.Document{}
	err := row.Scan(
		&document.ID,
		&document.RID,
		&document.Title,
		&document.Source,
		&document.Metadata,
		&document.CreatedAt,
		&document.UpdatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return document, nil
}

// SelectAllDocuments retrieves all documents
func (h *DocumentsDBHandler) SelectAllDocuments() ([]*model.Document, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_all_documents()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var documents []*model.Document
	for rows.Next() {
		document := &model.Document{}
		err := rows.Scan(
			&document.ID,
			&document.RID,
			&document.Title,
			&document.Source,
			&document.Metadata,
			&document.CreatedAt,
			&document.UpdatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		documents = append(documents, document)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// DeleteDocument deletes a document and its chunks by RID
func (h *DocumentsDBHandler) DeleteDocument(rid uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_document($1)`,
		rid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// Boost returns a recency factor in (0, 1] for the chunk behind the canonical
// ID based on the age of its document. A document created now yields 1.0 and
// the factor halves roughly every month. Unknown or malformed IDs report no
// boost, which is not an error.
func (h *DocumentsDBHandler) Boost(ctx context.Context, canonicalID string) (float64, bool) {
	ridPart, _, found := strings.Cut(canonicalID, "#")
	if !found {
		return 0, false
	}

	rid, err := uuid.Parse(ridPart)
	if err != nil {
		return 0, false
	}

	var createdAt sql.NullTime
	err = h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_document_created_at($1)`,
		rid,
	).Scan(&createdAt)
	if err != nil {
		h.db.Logger.Warn(fmt.Sprintf("boost lookup failed for %s: %v", canonicalID, err))
		return 0, false
	}
	if !createdAt.Valid {
		return 0, false
	}

	ageDays := time.Since(createdAt.Time).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}

	return 1 / (1 + ageDays/30), true
}
