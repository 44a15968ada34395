package repository

import (
	"github.com/coursemark/coursemark/internal/model"
	"gorm.io/gorm"
)

type AssignmentRepository interface {
	Create(assignment *model.Assignment) error
	FindByID(id uint) (*model.Assignment, error)
	FindByIDWithDetails(id uint) (*model.Assignment, error)
	FindByIDs(ids []uint) ([]*model.Assignment, error)
	FindByMarker(markerID uint) ([]*model.Assignment, error)
	Update(assignment *model.Assignment) error
	MarkSubmitted(assignment *model.Assignment) error
	Delete(id uint) error
}

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(assignment *model.Assignment) error {
	return r.db.Create(assignment).Error
}

func (r *assignmentRepository) FindByID(id uint) (*model.Assignment, error) {
	var a model.Assignment
	if err := r.db.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) FindByIDWithDetails(id uint) (*model.Assignment, error) {
	var a model.Assignment
	err := r.db.
		Preload("Student").
		Preload("Presentation").
		Preload("Marker").
		Preload("Tokens").
		First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) FindByIDs(ids []uint) ([]*model.Assignment, error) {
	var as []*model.Assignment
	err := r.db.
		Preload("Student").
		Preload("Presentation").
		Preload("Marker").
		Preload("Tokens").
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&as).Error
	return as, err
}

func (r *assignmentRepository) FindByMarker(markerID uint) ([]*model.Assignment, error) {
	var as []*model.Assignment
	err := r.db.
		Preload("Student").
		Preload("Presentation").
		Preload("Marker").
		Where("marker_id = ?", markerID).
		Order("due_date ASC, id ASC").
		Find(&as).Error
	return as, err
}

func (r *assignmentRepository) Update(assignment *model.Assignment) error {
	return r.db.Save(assignment).Error
}

// MarkSubmitted persists the status flip and the submission stamps in a
// single UPDATE, so a concurrent reader never sees a submitted record
// without its metadata.
func (r *assignmentRepository) MarkSubmitted(assignment *model.Assignment) error {
	return r.db.Model(assignment).
		Select("status", "submitted_at", "submitted_ip", "answers").
		Updates(map[string]interface{}{
			"status":       assignment.Status,
			"submitted_at": assignment.SubmittedAt,
			"submitted_ip": assignment.SubmittedIP,
			"answers":      assignment.Answers,
		}).Error
}

func (r *assignmentRepository) Delete(id uint) error {
	return r.db.Delete(&model.Assignment{}, id).Error
}
