package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/attendly-go-api/internal/models"
)

// ImportJobRepository persists CSV import audit records.
type ImportJobRepository interface {
	Create(ctx context.Context, job *models.ImportJob) error
}

type importJobRepository struct {
	db *gorm.DB
}

// NewImportJobRepository constructs an import job repository.
func NewImportJobRepository(db *gorm.DB) ImportJobRepository {
	return &importJobRepository{db: db}
}

func (r *importJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}
