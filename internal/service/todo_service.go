package service

import (
	"context"
	"fmt"
	"log"

	"github.com/Tomlord1122/todo-homework/internal/domain"
	"github.com/Tomlord1122/todo-homework/internal/repository"
	"github.com/Tomlord1122/todo-homework/internal/storage"
	"github.com/Tomlord1122/todo-homework/internal/thumbnail"
)

// CreateTodoRequest holds the data needed to create a new todo.
type CreateTodoRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	StartDate   domain.Date `json:"start_date"`
	EndDate     domain.Date `json:"end_date"`
	IsCompleted bool        `json:"is_completed"`
}

// UpdateTodoRequest holds the data for updating an existing todo.
// Nil fields are left unchanged.
type UpdateTodoRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	StartDate   *domain.Date `json:"start_date"`
	EndDate     *domain.Date `json:"end_date"`
	IsCompleted *bool        `json:"is_completed"`
}

// TodoResponse is the representation of a Todo returned by the service.
type TodoResponse struct {
	ID             uint        `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	UserID         uint        `json:"user_id"`
	StartDate      domain.Date `json:"start_date"`
	EndDate        domain.Date `json:"end_date"`
	IsCompleted    bool        `json:"is_completed"`
	CompletedImage string      `json:"completed_image,omitempty"`
	Thumbnail      string      `json:"thumbnail,omitempty"`
	ImageURL       string      `json:"image_url,omitempty"`
	CreatedAt      string      `json:"created_at"`
	ModifiedAt     string      `json:"modified_at"`
}

// TodoDetailResponse is a todo with one page of its comments.
type TodoDetailResponse struct {
	TodoResponse
	Owner    string                        `json:"owner"`
	Comments PageResponse[CommentResponse] `json:"comments"`
}

// TodoService defines the operations for managing todos. Every operation acts
// on behalf of an authenticated user.
type TodoService interface {
	CreateTodo(ctx context.Context, actor *domain.User, req CreateTodoRequest, upload *thumbnail.Upload) (*TodoResponse, error)
	// GetTodo returns any todo with the requested page of its comments.
	GetTodo(ctx context.Context, actor *domain.User, id uint, commentsPage string) (*TodoDetailResponse, error)
	// ListTodos returns the actor's todos, or every todo for a superuser,
	// optionally filtered by a title or description substring.
	ListTodos(ctx context.Context, actor *domain.User, query, page string) (*PageResponse[TodoResponse], error)
	// UpdateTodo and DeleteTodo report domain.ErrNotFound for todos the actor
	// does not own.
	UpdateTodo(ctx context.Context, actor *domain.User, id uint, req UpdateTodoRequest, upload *thumbnail.Upload) (*TodoResponse, error)
	DeleteTodo(ctx context.Context, actor *domain.User, id uint) error
}

type todoService struct {
	repo     repository.TodoRepository
	comments repository.CommentRepository
	pipeline *thumbnail.Pipeline
}

func NewTodoService(repo repository.TodoRepository, comments repository.CommentRepository, store storage.Storage) TodoService {
	return &todoService{
		repo:     repo,
		comments: comments,
		pipeline: thumbnail.NewPipeline(store, repo),
	}
}

func (s *todoService) CreateTodo(ctx context.Context, actor *domain.User, req CreateTodoRequest, upload *thumbnail.Upload) (*TodoResponse, error) {
	todo := &domain.Todo{
		Title:       req.Title,
		Description: req.Description,
		UserID:      actor.ID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsCompleted: req.IsCompleted,
	}
	if err := todo.Validate(); err != nil {
		return nil, err
	}

	if err := s.pipeline.Save(ctx, todo, upload); err != nil {
		return nil, fmt.Errorf("create todo: %w", err)
	}
	log.Printf("Todo %d created by user %d", todo.ID, actor.ID)
	resp := s.toResponse(todo)
	return &resp, nil
}

func (s *todoService) GetTodo(ctx context.Context, actor *domain.User, id uint, commentsPage string) (*TodoDetailResponse, error) {
	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	page, err := s.comments.ListForTodo(ctx, todo.ID, commentsPage)
	if err != nil {
		return nil, err
	}

	resp := &TodoDetailResponse{
		TodoResponse: s.toResponse(todo),
		Comments:     mapPage(page, toCommentResponse),
	}
	if todo.User != nil {
		resp.Owner = todo.User.Name
	}
	return resp, nil
}

func (s *todoService) ListTodos(ctx context.Context, actor *domain.User, query, page string) (*PageResponse[TodoResponse], error) {
	p, err := s.repo.List(ctx, page, repository.VisibleTo(actor), repository.TitleOrDescriptionContains(query))
	if err != nil {
		return nil, err
	}
	resp := mapPage(p, s.toResponse)
	return &resp, nil
}

func (s *todoService) UpdateTodo(ctx context.Context, actor *domain.User, id uint, req UpdateTodoRequest, upload *thumbnail.Upload) (*TodoResponse, error) {
	todo, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		todo.Title = *req.Title
	}
	if req.Description != nil {
		todo.Description = *req.Description
	}
	if req.StartDate != nil {
		todo.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		todo.EndDate = *req.EndDate
	}
	if req.IsCompleted != nil {
		todo.IsCompleted = *req.IsCompleted
	}
	if err := todo.Validate(); err != nil {
		return nil, err
	}

	if err := s.pipeline.Save(ctx, todo, upload); err != nil {
		return nil, fmt.Errorf("update todo %d: %w", id, err)
	}
	resp := s.toResponse(todo)
	return &resp, nil
}

func (s *todoService) DeleteTodo(ctx context.Context, actor *domain.User, id uint) error {
	todo, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.pipeline.Remove(ctx, todo)
	log.Printf("Todo %d deleted by user %d", id, actor.ID)
	return nil
}

// owned loads a todo the actor may modify. Todos owned by someone else are
// reported as missing.
func (s *todoService) owned(ctx context.Context, actor *domain.User, id uint) (*domain.Todo, error) {
	todo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !todo.OwnedBy(actor) {
		return nil, domain.ErrNotFound
	}
	return todo, nil
}

func (s *todoService) toResponse(todo *domain.Todo) TodoResponse {
	url, _ := s.pipeline.DisplayURL(todo)
	return TodoResponse{
		ID:             todo.ID,
		Title:          todo.Title,
		Description:    todo.Description,
		UserID:         todo.UserID,
		StartDate:      todo.StartDate,
		EndDate:        todo.EndDate,
		IsCompleted:    todo.IsCompleted,
		CompletedImage: todo.CompletedImage,
		Thumbnail:      todo.Thumbnail,
		ImageURL:       url,
		CreatedAt:      todo.CreatedAt.Format(timeFormat),
		ModifiedAt:     todo.ModifiedAt.Format(timeFormat),
	}
}
