package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/attendly-go-api/internal/models"
)

// SubjectRepository provides access to subjects and teaching assignments.
type SubjectRepository interface {
	List(ctx context.Context) ([]models.Subject, error)
	GetByID(ctx context.Context, id uint) (models.Subject, error)
	GetByCode(ctx context.Context, code string) (models.Subject, error)
	NamesByIDs(ctx context.Context, ids []uint) (map[uint]string, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id uint) error
	AddTeacher(ctx context.Context, subjectID, userID uint) error
	RemoveTeacher(ctx context.Context, subjectID, userID uint) error
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository constructs a subject repository.
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	var subjects []models.Subject
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&subjects).Error; err != nil {
		return nil, err
	}

	return subjects, nil
}

func (r *subjectRepository) GetByID(ctx context.Context, id uint) (models.Subject, error) {
	var subject models.Subject
	if err := r.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return models.Subject{}, err
	}

	return subject, nil
}

func (r *subjectRepository) GetByCode(ctx context.Context, code string) (models.Subject, error) {
	var subject models.Subject
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&subject).Error; err != nil {
		return models.Subject{}, err
	}

	return subject, nil
}

// NamesByIDs resolves subject names for the distinct ids of a grouped
// session listing in one query.
func (r *subjectRepository) NamesByIDs(ctx context.Context, ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var subjects []models.Subject
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&subjects).Error; err != nil {
		return nil, err
	}

	for _, subject := range subjects {
		names[subject.ID] = subject.Name
	}

	return names, nil
}

func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Save(subject).Error
}

func (r *subjectRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Subject{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *subjectRepository) AddTeacher(ctx context.Context, subjectID, userID uint) error {
	subject := models.Subject{ID: subjectID}
	return r.db.WithContext(ctx).Model(&subject).
		Association("Teachers").
		Append(&models.User{ID: userID})
}

func (r *subjectRepository) RemoveTeacher(ctx context.Context, subjectID, userID uint) error {
	subject := models.Subject{ID: subjectID}
	return r.db.WithContext(ctx).Model(&subject).
		Association("Teachers").
		Delete(&models.User{ID: userID})
}
