package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/attendly-go-api/internal/models"
)

// BatchRepository provides access to batches and their memberships.
type BatchRepository interface {
	List(ctx context.Context) ([]models.Batch, error)
	GetByID(ctx context.Context, id uint) (models.Batch, error)
	GetByName(ctx context.Context, name string) (models.Batch, error)
	NamesByIDs(ctx context.Context, ids []uint) (map[uint]string, error)
	Create(ctx context.Context, batch *models.Batch) error
	Update(ctx context.Context, batch *models.Batch) error
	Delete(ctx context.Context, id uint) error
	AddStudent(ctx context.Context, batchID, studentID uint) error
	RemoveStudent(ctx context.Context, batchID, studentID uint) error
	AddSubject(ctx context.Context, batchID, subjectID uint) error
	RemoveSubject(ctx context.Context, batchID, subjectID uint) error
	ListStudents(ctx context.Context, batchID uint) ([]models.Student, error)
}

type batchRepository struct {
	db *gorm.DB
}

// NewBatchRepository constructs a batch repository.
func NewBatchRepository(db *gorm.DB) BatchRepository {
	return &batchRepository{db: db}
}

func (r *batchRepository) List(ctx context.Context) ([]models.Batch, error) {
	var batches []models.Batch
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&batches).Error; err != nil {
		return nil, err
	}

	return batches, nil
}

func (r *batchRepository) GetByID(ctx context.Context, id uint) (models.Batch, error) {
	var batch models.Batch
	if err := r.db.WithContext(ctx).First(&batch, id).Error; err != nil {
		return models.Batch{}, err
	}

	return batch, nil
}

func (r *batchRepository) GetByName(ctx context.Context, name string) (models.Batch, error) {
	var batch models.Batch
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&batch).Error; err != nil {
		return models.Batch{}, err
	}

	return batch, nil
}

// NamesByIDs resolves batch names for the distinct ids of a grouped session
// listing in one query.
func (r *batchRepository) NamesByIDs(ctx context.Context, ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var batches []models.Batch
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&batches).Error; err != nil {
		return nil, err
	}

	for _, batch := range batches {
		names[batch.ID] = batch.Name
	}

	return names, nil
}

func (r *batchRepository) Create(ctx context.Context, batch *models.Batch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *batchRepository) Update(ctx context.Context, batch *models.Batch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

func (r *batchRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Batch{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *batchRepository) AddStudent(ctx context.Context, batchID, studentID uint) error {
	batch := models.Batch{ID: batchID}
	return r.db.WithContext(ctx).Model(&batch).
		Association("Students").
		Append(&models.Student{ID: studentID})
}

func (r *batchRepository) RemoveStudent(ctx context.Context, batchID, studentID uint) error {
	batch := models.Batch{ID: batchID}
	return r.db.WithContext(ctx).Model(&batch).
		Association("Students").
		Delete(&models.Student{ID: studentID})
}

func (r *batchRepository) AddSubject(ctx context.Context, batchID, subjectID uint) error {
	batch := models.Batch{ID: batchID}
	return r.db.WithContext(ctx).Model(&batch).
		Association("Subjects").
		Append(&models.Subject{ID: subjectID})
}

func (r *batchRepository) RemoveSubject(ctx context.Context, batchID, subjectID uint) error {
	batch := models.Batch{ID: batchID}
	return r.db.WithContext(ctx).Model(&batch).
		Association("Subjects").
		Delete(&models.Subject{ID: subjectID})
}

func (r *batchRepository) ListStudents(ctx context.Context, batchID uint) ([]models.Student, error) {
	batch := models.Batch{ID: batchID}
	var students []models.Student
	if err := r.db.WithContext(ctx).Model(&batch).
		Association("Students").
		Find(&students); err != nil {
		return nil, err
	}

	return students, nil
}
