// Package ingest orchestrates the statement ingestion pipeline: extraction
// of a statement document from a PDF, identity derivation, normalization and
// the idempotent store upsert.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cardledger/statement"
)

// StatementStore is the storage capability the ingestor needs. *db.DB is the
// one concrete implementation; the interface keeps tests off sqlite and the
// ingestor off any wider db surface.
type StatementStore interface {
	StatementUpsert(
		ctx context.Context,
		header statement.Header,
		transactions []statement.Transaction,
		promotions []statement.Promotion,
		disclosures []statement.Disclosure,
	) (string, error)
}

// Extractor turns PDF bytes into the raw textual output of the extraction
// model. The output is ordinarily a JSON document but may be wrapped in
// prose or code fences; ParseDocument deals with that.
type Extractor interface {
	Extract(ctx context.Context, pdf []byte) (string, error)
}

// Ingestor runs the ingestion pipeline against a store and an extractor.
type Ingestor struct {
	store     StatementStore
	extractor Extractor
	log       *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewIngestor makes an Ingestor. The extractor may be nil when only
// IngestDocument is needed, for example when re-ingesting stored raw JSON.
func NewIngestor(store StatementStore, extractor Extractor, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		store:     store,
		extractor: extractor,
		log:       logger,
		now:       time.Now,
	}
}

// IngestDocument derives the statement identity for the tenant, normalizes
// the document and upserts the result, returning the statement id. Ingesting
// the same document twice is a no-op for stored state.
func (ing *Ingestor) IngestDocument(ctx context.Context, doc statement.Document, userID string) (string, error) {

	statementID := statement.DeriveID(doc, userID)
	header, transactions, promotions, disclosures := statement.Normalize(
		doc, userID, statementID, ing.now(),
	)

	id, err := ing.store.StatementUpsert(ctx, header, transactions, promotions, disclosures)
	if err != nil {
		return "", fmt.Errorf("statement store upsert error: %w", err)
	}
	ing.log.Info("statement ingested",
		"statement_id", id,
		"user_id", userID,
		"transactions", len(transactions),
		"promotions", len(promotions),
		"disclosures", len(disclosures),
	)
	return id, nil
}

// IngestRaw parses raw extractor output and ingests the resulting document.
func (ing *Ingestor) IngestRaw(ctx context.Context, raw string, userID string) (string, error) {
	doc, err := ParseDocument(raw)
	if err != nil {
		return "", err
	}
	return ing.IngestDocument(ctx, doc, userID)
}

// IngestPDF runs the full pipeline: extract, parse, derive, normalize,
// upsert.
func (ing *Ingestor) IngestPDF(ctx context.Context, pdf []byte, userID string) (string, error) {
	if ing.extractor == nil {
		return "", fmt.Errorf("no extractor configured")
	}
	raw, err := ing.extractor.Extract(ctx, pdf)
	if err != nil {
		return "", fmt.Errorf("extraction error: %w", err)
	}
	return ing.IngestRaw(ctx, raw, userID)
}
