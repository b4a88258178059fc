package services

import (
	"poster-gen-backend/internal/errs"
	"poster-gen-backend/internal/models"
)

// NoopRecordStore stands in for record persistence when no database is
// configured. Creation always fails, which the orchestrator downgrades to a
// warning, so generations still complete.
type NoopRecordStore struct{}

func (NoopRecordStore) CreateGenerationWithResult(string, string, string, []string) (*models.UserGeneration, error) {
	return nil, errs.ErrNotFound
}
