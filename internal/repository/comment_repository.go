package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/todo-homework/internal/domain"
)

type CommentRepository interface {
	Save(ctx context.Context, comment *domain.Comment) error
	FindByID(ctx context.Context, id uint) (*domain.Comment, error)
	// ListForTodo returns the requested page of a todo's comments, newest first,
	// with their authors loaded.
	ListForTodo(ctx context.Context, todoID uint, page string) (*Page[domain.Comment], error)
	Delete(ctx context.Context, id uint) error
}

type gormCommentRepository struct {
	db *gorm.DB
}

func NewGormCommentRepository(db *gorm.DB) CommentRepository {
	return &gormCommentRepository{db: db}
}

func (r *gormCommentRepository) Save(ctx context.Context, comment *domain.Comment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(comment).Error; err != nil {
		return fmt.Errorf("save comment: %w", err)
	}
	return nil
}

func (r *gormCommentRepository) FindByID(ctx context.Context, id uint) (*domain.Comment, error) {
	var c domain.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *gormCommentRepository) ListForTodo(ctx context.Context, todoID uint, page string) (*Page[domain.Comment], error) {
	query := r.db.WithContext(ctx).
		Model(&domain.Comment{}).
		Where("todo_id = ?", todoID)
	p, err := paginate[domain.Comment](query, domain.CommentsPageSize, page, newestFirst, "User")
	if err != nil {
		return nil, fmt.Errorf("list comments of todo %d: %w", todoID, err)
	}
	return p, nil
}

func (r *gormCommentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&domain.Comment{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete comment %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
