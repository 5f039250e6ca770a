// Package service holds the business rules between the HTTP handlers and the
// repositories.
package service

import (
	"errors"
	"time"

	"github.com/Tomlord1122/todo-homework/internal/repository"
)

var (
	// ErrInvalidToken is returned for every verification link that cannot be
	// used: malformed, tampered with or expired.
	ErrInvalidToken = errors.New("invalid or expired verification link")

	// ErrInvalidCredentials is returned for unknown emails, wrong passwords and
	// accounts that are not active yet.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const timeFormat = time.RFC3339

// PageResponse is a page of DTOs with its position in the result set.
type PageResponse[T any] struct {
	Results     []T   `json:"results"`
	Page        int   `json:"page"`
	NumPages    int   `json:"num_pages"`
	Count       int64 `json:"count"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

func mapPage[E, T any](p *repository.Page[E], convert func(*E) T) PageResponse[T] {
	out := PageResponse[T]{
		Results:     make([]T, 0, len(p.Items)),
		Page:        p.Number,
		NumPages:    p.NumPages,
		Count:       p.Count,
		HasNext:     p.HasNext(),
		HasPrevious: p.HasPrevious(),
	}
	for i := range p.Items {
		out.Results = append(out.Results, convert(&p.Items[i]))
	}
	return out
}
