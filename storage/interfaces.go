package storage

import "stamps-catalog/models"

// ImportAuditWriter persists the outcome of import runs for later review.
type ImportAuditWriter interface {
	WriteImport(results []*models.ImportResult) error
	Close() error
}
