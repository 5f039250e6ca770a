package server

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Tomlord1122/todo-homework/internal/auth"
	"github.com/Tomlord1122/todo-homework/internal/domain"
	"github.com/Tomlord1122/todo-homework/internal/service"
	"github.com/Tomlord1122/todo-homework/internal/thumbnail"
)

const (
	imageField       = "completed_image"
	multipartMemory  = 8 << 20
	multipartContent = "multipart/form-data"
)

func (s *Server) createTodoHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())

	var req service.CreateTodoRequest
	var upload *thumbnail.Upload
	if isMultipart(r) {
		form, ok := s.parseTodoForm(w, r)
		if !ok {
			return
		}
		defer form.close()
		if err := form.applyCreate(&req); err != nil {
			respondWithServiceError(w, err, "create todo")
			return
		}
		upload = form.upload
	} else if !decodeJSON(w, r, &req) {
		return
	}

	todoResp, err := s.todos.CreateTodo(r.Context(), actor, req, upload)
	if err != nil {
		respondWithServiceError(w, err, "create todo")
		return
	}
	s.metrics.observeTodo(todoResp)

	respondWithJSON(w, http.StatusCreated, todoResp)
}

func (s *Server) listTodosHandler(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.UserFromContext(r.Context())
	q := r.URL.Query()

	page, err := s.todos.ListTodos(r.Context(), actor, strings.TrimSpace(q.Get("q")), q.Get("page"))
	if err != nil {
		respondWithServiceError(w, err, "retrieve todos")
		return
	}

	respondWithJSON(w, http.StatusOK, page)
}

func (s *Server) getTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "todo")
	if !ok {
		return
	}
	actor, _ := auth.UserFromContext(r.Context())

	todo, err := s.todos.GetTodo(r.Context(), actor, id, r.URL.Query().Get("page"))
	if err != nil {
		respondWithServiceError(w, err, "retrieve todo")
		return
	}

	respondWithJSON(w, http.StatusOK, todo)
}

func (s *Server) updateTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "todo")
	if !ok {
		return
	}
	actor, _ := auth.UserFromContext(r.Context())

	var req service.UpdateTodoRequest
	var upload *thumbnail.Upload
	if isMultipart(r) {
		form, ok := s.parseTodoForm(w, r)
		if !ok {
			return
		}
		defer form.close()
		if err := form.applyUpdate(&req); err != nil {
			respondWithServiceError(w, err, "update todo")
			return
		}
		upload = form.upload
	} else if !decodeJSON(w, r, &req) {
		return
	}

	updatedTodo, err := s.todos.UpdateTodo(r.Context(), actor, id, req, upload)
	if err != nil {
		respondWithServiceError(w, err, "update todo")
		return
	}
	if upload != nil {
		s.metrics.observeTodo(updatedTodo)
	}

	respondWithJSON(w, http.StatusOK, updatedTodo)
}

func (s *Server) deleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "todo")
	if !ok {
		return
	}
	actor, _ := auth.UserFromContext(r.Context())

	if err := s.todos.DeleteTodo(r.Context(), actor, id); err != nil {
		respondWithServiceError(w, err, "delete todo")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == multipartContent
}

// todoForm is a parsed multipart todo submission.
type todoForm struct {
	form   *multipart.Form
	file   multipart.File
	upload *thumbnail.Upload
}

func (s *Server) parseTodoForm(w http.ResponseWriter, r *http.Request) (*todoForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithServiceError(w, err, "parse form")
			return nil, false
		}
		respondWithError(w, http.StatusBadRequest, "Request body is not a valid multipart form")
		return nil, false
	}

	tf := &todoForm{form: r.MultipartForm}
	file, header, err := r.FormFile(imageField)
	switch {
	case err == nil:
		tf.file = file
		tf.upload = &thumbnail.Upload{Filename: header.Filename, Body: file}
	case errors.Is(err, http.ErrMissingFile):
		// no image attached
	default:
		respondWithError(w, http.StatusBadRequest, "Could not read the uploaded image")
		return nil, false
	}
	return tf, true
}

func (f *todoForm) close() {
	if f.file != nil {
		f.file.Close()
	}
	f.form.RemoveAll()
}

func (f *todoForm) value(key string) (string, bool) {
	v, ok := f.form.Value[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func (f *todoForm) applyCreate(req *service.CreateTodoRequest) error {
	var update service.UpdateTodoRequest
	if err := f.applyUpdate(&update); err != nil {
		return err
	}
	if update.Title != nil {
		req.Title = *update.Title
	}
	if update.Description != nil {
		req.Description = *update.Description
	}
	if update.StartDate != nil {
		req.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		req.EndDate = *update.EndDate
	}
	if update.IsCompleted != nil {
		req.IsCompleted = *update.IsCompleted
	}
	return nil
}

// applyUpdate copies the submitted fields into req. Fields missing from the
// form stay nil.
func (f *todoForm) applyUpdate(req *service.UpdateTodoRequest) error {
	verr := &domain.ValidationError{}
	if v, ok := f.value("title"); ok {
		req.Title = &v
	}
	if v, ok := f.value("description"); ok {
		req.Description = &v
	}
	for _, field := range []struct {
		key string
		dst **domain.Date
	}{
		{"start_date", &req.StartDate},
		{"end_date", &req.EndDate},
	} {
		v, ok := f.value(field.key)
		if !ok {
			continue
		}
		d, err := domain.ParseDate(v)
		if err != nil {
			verr.Add(field.key, "enter a valid date")
			continue
		}
		*field.dst = &d
	}
	if v, ok := f.value("is_completed"); ok {
		b, err := parseFormBool(v)
		if err != nil {
			verr.Add("is_completed", err.Error())
		} else {
			req.IsCompleted = &b
		}
	}
	return verr.OrNil()
}

// parseFormBool accepts the values an HTML checkbox or a client may send.
func parseFormBool(v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "yes":
		return true, nil
	case "", "off", "no":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%q is not a boolean", v)
	}
	return b, nil
}
