package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tomlord1122/todo-homework/internal/domain"
)

func TestCommentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com", true)
	author := env.user(t, "author@example.com", true)
	admin := env.user(t, "admin@example.com", true)
	admin.IsSuperuser = true

	todo, err := env.todoSvc.CreateTodo(ctx, owner, todoRequest("Homework"), nil)
	require.NoError(t, err)

	created, err := env.comSvc.CreateComment(ctx, author, todo.ID, CommentRequest{Message: "nice"})
	require.NoError(t, err)
	assert.Equal(t, author.Name, created.Author)
	assert.Equal(t, todo.ID, created.TodoID)

	_, err = env.comSvc.UpdateComment(ctx, owner, created.ID, CommentRequest{Message: "mine now"})
	assert.ErrorIs(t, err, domain.ErrNotFound, "the todo owner is not the comment author")

	updated, err := env.comSvc.UpdateComment(ctx, author, created.ID, CommentRequest{Message: "very nice"})
	require.NoError(t, err)
	assert.Equal(t, "very nice", updated.Message)

	assert.ErrorIs(t, env.comSvc.DeleteComment(ctx, owner, created.ID), domain.ErrNotFound)
	require.NoError(t, env.comSvc.DeleteComment(ctx, admin, created.ID))
	assert.ErrorIs(t, env.comSvc.DeleteComment(ctx, author, created.ID), domain.ErrNotFound)
}

func TestCommentValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "owner@example.com", true)
	todo, err := env.todoSvc.CreateTodo(ctx, owner, todoRequest("Homework"), nil)
	require.NoError(t, err)

	var verr *domain.ValidationError
	_, err = env.comSvc.CreateComment(ctx, owner, todo.ID, CommentRequest{})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "message")

	_, err = env.comSvc.CreateComment(ctx, owner, todo.ID, CommentRequest{Message: strings.Repeat("x", domain.CommentMaxLen+1)})
	require.ErrorAs(t, err, &verr)

	_, err = env.comSvc.CreateComment(ctx, owner, todo.ID+100, CommentRequest{Message: "orphan"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
