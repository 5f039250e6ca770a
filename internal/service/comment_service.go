package service

import (
	"context"

	"github.com/Tomlord1122/todo-homework/internal/domain"
	"github.com/Tomlord1122/todo-homework/internal/repository"
)

type CommentRequest struct {
	Message string `json:"message"`
}

type CommentResponse struct {
	ID         uint   `json:"id"`
	TodoID     uint   `json:"todo_id"`
	UserID     uint   `json:"user_id"`
	Author     string `json:"author"`
	Message    string `json:"message"`
	CreatedAt  string `json:"created_at"`
	ModifiedAt string `json:"modified_at"`
}

// CommentService manages comments on todos. Any authenticated user may comment
// on a todo; only the author or a superuser may change or remove a comment.
type CommentService interface {
	CreateComment(ctx context.Context, actor *domain.User, todoID uint, req CommentRequest) (*CommentResponse, error)
	UpdateComment(ctx context.Context, actor *domain.User, id uint, req CommentRequest) (*CommentResponse, error)
	DeleteComment(ctx context.Context, actor *domain.User, id uint) error
}

type commentService struct {
	repo  repository.CommentRepository
	todos repository.TodoRepository
}

func NewCommentService(repo repository.CommentRepository, todos repository.TodoRepository) CommentService {
	return &commentService{repo: repo, todos: todos}
}

func (s *commentService) CreateComment(ctx context.Context, actor *domain.User, todoID uint, req CommentRequest) (*CommentResponse, error) {
	todo, err := s.todos.FindByID(ctx, todoID)
	if err != nil {
		return nil, err
	}

	c := &domain.Comment{TodoID: todo.ID, UserID: actor.ID, User: actor, Message: req.Message}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := toCommentResponse(c)
	return &resp, nil
}

func (s *commentService) UpdateComment(ctx context.Context, actor *domain.User, id uint, req CommentRequest) (*CommentResponse, error) {
	c, err := s.authored(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	c.Message = req.Message
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, err
	}
	resp := toCommentResponse(c)
	return &resp, nil
}

func (s *commentService) DeleteComment(ctx context.Context, actor *domain.User, id uint) error {
	if _, err := s.authored(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *commentService) authored(ctx context.Context, actor *domain.User, id uint) (*domain.Comment, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.AuthoredBy(actor) {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func toCommentResponse(c *domain.Comment) CommentResponse {
	resp := CommentResponse{
		ID:         c.ID,
		TodoID:     c.TodoID,
		UserID:     c.UserID,
		Message:    c.Message,
		CreatedAt:  c.CreatedAt.Format(timeFormat),
		ModifiedAt: c.ModifiedAt.Format(timeFormat),
	}
	if c.User != nil {
		resp.Author = c.User.Name
	}
	return resp
}
