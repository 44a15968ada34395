package repository

import (
	"github.com/coursemark/coursemark/internal/model"
	"gorm.io/gorm"
)

type FormRepository interface {
	FindByRole(role string) (*model.FormDefinition, error)
	FindAll() ([]model.FormDefinition, error)
	Upsert(def *model.FormDefinition) error
}

type formRepository struct {
	db *gorm.DB
}

func NewFormRepository(db *gorm.DB) FormRepository {
	return &formRepository{db: db}
}

func (r *formRepository) FindByRole(role string) (*model.FormDefinition, error) {
	var def model.FormDefinition
	if err := r.db.Where("role = ?", role).First(&def).Error; err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *formRepository) FindAll() ([]model.FormDefinition, error) {
	var defs []model.FormDefinition
	err := r.db.Order("role ASC").Find(&defs).Error
	return defs, err
}

func (r *formRepository) Upsert(def *model.FormDefinition) error {
	var existing model.FormDefinition
	err := r.db.Where("role = ?", def.Role).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.Create(def).Error
	}
	if err != nil {
		return err
	}
	def.ID = existing.ID
	return r.db.Save(def).Error
}
