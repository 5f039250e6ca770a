package server

import (
	"net/http"

	"github.com/Tomlord1122/todo-homework/internal/auth"
	"github.com/Tomlord1122/todo-homework/internal/service"
)

func (s *Server) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	todoID, ok := parseID(w, r, "todo")
	if !ok {
		return
	}
	actor, _ := auth.UserFromContext(r.Context())

	var req service.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := s.comments.CreateComment(r.Context(), actor, todoID, req)
	if err != nil {
		respondWithServiceError(w, err, "create comment")
		return
	}

	respondWithJSON(w, http.StatusCreated, comment)
}

func (s *Server) updateCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "comment")
	if !ok {
		return
	}
	actor, _ := auth.UserFromContext(r.Context())

	var req service.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := s.comments.UpdateComment(r.Context(), actor, id, req)
	if err != nil {
		respondWithServiceError(w, err, "update comment")
		return
	}

	respondWithJSON(w, http.StatusOK, comment)
}

func (s *Server) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "comment")
	if !ok {
		return
	}
	actor, _ := auth.UserFromContext(r.Context())

	if err := s.comments.DeleteComment(r.Context(), actor, id); err != nil {
		respondWithServiceError(w, err, "delete comment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
