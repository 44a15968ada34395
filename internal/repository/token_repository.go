package repository

import (
	"github.com/coursemark/coursemark/internal/model"
	"gorm.io/gorm"
)

type TokenRepository interface {
	Create(token *model.AccessToken) error
	FindByAssignment(assignmentID uint) ([]model.AccessToken, error)
	FindByAssignmentAndScope(assignmentID uint, scope string) (*model.AccessToken, error)
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(token *model.AccessToken) error {
	return r.db.Create(token).Error
}

func (r *tokenRepository) FindByAssignment(assignmentID uint) ([]model.AccessToken, error) {
	var tokens []model.AccessToken
	err := r.db.Where("assignment_id = ?", assignmentID).Find(&tokens).Error
	return tokens, err
}

func (r *tokenRepository) FindByAssignmentAndScope(assignmentID uint, scope string) (*model.AccessToken, error) {
	var t model.AccessToken
	err := r.db.Where("assignment_id = ? AND scope = ?", assignmentID, scope).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}
