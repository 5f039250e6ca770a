package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Tomlord1122/todo-homework/internal/domain"
)

// TodoRepository defines the todo data operations.
type TodoRepository interface {
	// Save inserts a new todo or writes every column of an existing one.
	Save(ctx context.Context, todo *domain.Todo) error
	FindByID(ctx context.Context, id uint) (*domain.Todo, error)
	// List returns the requested page of todos, newest first.
	List(ctx context.Context, page string, scopes ...Scope) (*Page[domain.Todo], error)
	// Delete removes a todo together with its comments.
	Delete(ctx context.Context, id uint) error
}

type gormTodoRepository struct {
	db *gorm.DB
}

func NewGormTodoRepository(db *gorm.DB) TodoRepository {
	return &gormTodoRepository{db: db}
}

func (r *gormTodoRepository) Save(ctx context.Context, todo *domain.Todo) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(todo).Error; err != nil {
		return fmt.Errorf("save todo: %w", err)
	}
	return nil
}

func (r *gormTodoRepository) FindByID(ctx context.Context, id uint) (*domain.Todo, error) {
	var todo domain.Todo
	if err := r.db.WithContext(ctx).Preload("User").First(&todo, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &todo, nil
}

func (r *gormTodoRepository) List(ctx context.Context, page string, scopes ...Scope) (*Page[domain.Todo], error) {
	query := r.db.WithContext(ctx).
		Model(&domain.Todo{}).
		Scopes(scopes...)
	p, err := paginate[domain.Todo](query, domain.TodoPageSize, page, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return p, nil
}

func (r *gormTodoRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("todo_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments of todo %d: %w", id, err)
		}
		result := tx.Delete(&domain.Todo{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete todo %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// VisibleTo limits a todo query to the rows u owns. Superusers see every row.
func VisibleTo(u *domain.User) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if u.IsSuperuser {
			return db
		}
		return db.Where("user_id = ?", u.ID)
	}
}

// TitleOrDescriptionContains matches todos whose title or description
// contains q, ignoring case. An empty q matches everything.
func TitleOrDescriptionContains(q string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if q == "" {
			return db
		}
		pattern := likePattern(q)
		return db.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
}
