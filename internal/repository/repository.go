// Package repository stores the domain entities with gorm.
package repository

import (
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/Tomlord1122/todo-homework/internal/domain"
)

// newestFirst orders by creation time, breaking ties by id.
const newestFirst = "created_at DESC, id DESC"

// Scope narrows a query. Scopes are applied in order with gorm's Scopes.
type Scope = func(*gorm.DB) *gorm.DB

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items    []T   `json:"results"`
	Number   int   `json:"page"`
	NumPages int   `json:"num_pages"`
	Count    int64 `json:"count"`
}

func (p *Page[T]) HasNext() bool     { return p.Number < p.NumPages }
func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }

// PageNumber resolves a raw page parameter the lenient way: anything that is
// not an integer yields the first page and anything out of range yields the
// last page.
func PageNumber(raw string, count int64, size int) int {
	numPages := NumPages(count, size)
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	if n < 1 || n > numPages {
		return numPages
	}
	return n
}

// NumPages is never less than one, so an empty result still has a first page.
func NumPages(count int64, size int) int {
	if count <= 0 || size <= 0 {
		return 1
	}
	return int((count + int64(size) - 1) / int64(size))
}

// paginate counts the rows matched by query and loads the requested page in
// the given order, preloading the named associations for the page only.
func paginate[T any](query *gorm.DB, size int, raw, order string, preload ...string) (*Page[T], error) {
	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, err
	}

	page := &Page[T]{
		Number:   PageNumber(raw, count, size),
		NumPages: NumPages(count, size),
		Count:    count,
		Items:    []T{},
	}
	if count == 0 {
		return page, nil
	}
	find := query.Session(&gorm.Session{})
	for _, name := range preload {
		find = find.Preload(name)
	}
	err := find.Order(order).
		Offset((page.Number - 1) * size).
		Limit(size).
		Find(&page.Items).Error
	if err != nil {
		return nil, err
	}
	return page, nil
}

// notFound maps gorm's missing row error onto the domain error.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// likePattern builds a case-insensitive substring pattern, escaping LIKE
// wildcards in s.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
