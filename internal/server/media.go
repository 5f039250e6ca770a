package server

import (
	"errors"
	"io"
	"io/fs"
	"log"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Tomlord1122/todo-homework/internal/storage"
)

// mediaHandler serves stored blobs below the media URL.
func (s *Server) mediaHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")

	rc, err := s.store.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, storage.ErrInvalidName) {
			http.NotFound(w, r)
			return
		}
		log.Printf("Error opening media %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, path.Base(name), time.Time{}, rs)
		return
	}
	_, _ = io.Copy(w, rc)
}
