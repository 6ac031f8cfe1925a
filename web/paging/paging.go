// Package paging slices list responses into pages with GitHub-style Link navigation
package paging

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Default pagination values
const (
	DefaultPage    = 1   // Default to first page
	DefaultPerPage = 50  // Default pagination size
	MaxPerPage     = 100 // Maximum items per page
)

// Page represents a page number for pagination
type Page uint64

// PerPage represents items per page for pagination
type PerPage uint64

// Pagination validation errors
var (
	ErrPerPageTooLarge = errors.New("per_page exceeds maximum limit")
)

// ParsePage creates a Page from uint64 with default handling
func ParsePage(page uint64) Page {
	// Zero means use default page
	if page == 0 {
		return Page(DefaultPage)
	}

	return Page(page)
}

// ParsePerPage creates a PerPage from uint64 with validation
func ParsePerPage(perPage uint64) (PerPage, error) {
	// Zero means use default per_page
	if perPage == 0 {
		return PerPage(DefaultPerPage), nil
	}

	if perPage > MaxPerPage {
		return 0, fmt.Errorf("%w: must be between 1 and %d", ErrPerPageTooLarge, MaxPerPage)
	}

	return PerPage(perPage), nil
}

// Uint64 returns the underlying uint64 value
func (p Page) Uint64() uint64 {
	return uint64(p)
}

// Uint64 returns the underlying uint64 value
func (pp PerPage) Uint64() uint64 {
	return uint64(pp)
}

// Window is one page of results with navigation metadata
type Window[T any] struct {
	Items   []T
	HasMore bool    // True if there are more pages after this one
	Number  Page    // Current page number
	Size    PerPage // Page size
}

// Helper methods for pagination state
func (w Window[T]) HasNext() bool     { return w.HasMore }
func (w Window[T]) HasPrevious() bool { return w.Number > 1 }

// Slice returns the requested page of items
func Slice[T any](items []T, page Page, size PerPage) Window[T] {
	page = ParsePage(page.Uint64())
	if size == 0 {
		size = DefaultPerPage
	}
	w := Window[T]{Items: []T{}, Number: page, Size: size}

	// compare before multiplying so huge page numbers cannot overflow
	total := uint64(len(items))
	if page.Uint64()-1 > total/size.Uint64() {
		return w
	}

	start := (page.Uint64() - 1) * size.Uint64()
	if start >= total {
		return w
	}

	end := min(start+size.Uint64(), total)
	w.Items = items[start:end]
	w.HasMore = end < total

	return w
}

// Links creates a GitHub-style Link header value for prev/next navigation
func Links[T any](w Window[T], baseURL *url.URL) string {
	var links []string

	// Keep existing query params (like status filter)
	u := *baseURL
	query := u.Query()

	if w.HasPrevious() {
		query.Set("page", fmt.Sprintf("%d", w.Number-1))
		query.Set("per_page", fmt.Sprintf("%d", w.Size))
		u.RawQuery = query.Encode()
		links = append(links, fmt.Sprintf(`<%s>; rel="prev"`, u.String()))
	}

	if w.HasNext() {
		query.Set("page", fmt.Sprintf("%d", w.Number+1))
		query.Set("per_page", fmt.Sprintf("%d", w.Size))
		u.RawQuery = query.Encode()
		links = append(links, fmt.Sprintf(`<%s>; rel="next"`, u.String()))
	}

	// "first" and "last" are omitted: first is always page=1 and prev/next cover navigation.

	return strings.Join(links, ", ")
}
