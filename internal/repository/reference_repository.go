package repository

import (
	"github.com/coursemark/coursemark/internal/model"
	"gorm.io/gorm"
)

// Students, staff and presentations are read-only reference data as far as
// the marking engine is concerned; only lookups are exposed.

type StudentRepository interface {
	FindByID(id uint) (*model.Student, error)
}

type StaffRepository interface {
	FindByID(id uint) (*model.Staff, error)
}

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) FindByID(id uint) (*model.Student, error) {
	var s model.Student
	if err := r.db.First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

type staffRepository struct {
	db *gorm.DB
}

func NewStaffRepository(db *gorm.DB) StaffRepository {
	return &staffRepository{db: db}
}

func (r *staffRepository) FindByID(id uint) (*model.Staff, error) {
	var s model.Staff
	if err := r.db.First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
