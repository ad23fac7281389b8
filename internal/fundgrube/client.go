// Package fundgrube provides a client for the MediaMarkt/Saturn Fundgrube
// postings API, abstracted behind interfaces for testability.
package fundgrube

import (
	"context"
	"errors"
	"fmt"
)

// Store identifies one Fundgrube endpoint.
type Store struct {
	Name    string
	BaseURL string
}

// SearchRequest defines the parameters for one postings query.
type SearchRequest struct {
	Text     string
	PriceMax *float64
	Limit    int
	Offset   int
	OrderBy  string // "new"
}

// PostingsPage holds one page of postings.
type PostingsPage struct {
	Postings []Posting
	HasMore  bool
}

// PostingsClient defines the interface for querying Fundgrube postings.
type PostingsClient interface {
	Postings(ctx context.Context, req SearchRequest) (*PostingsPage, error)
}

// StatusError is returned when the endpoint answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fundgrube API error (status %d): %s", e.StatusCode, e.Body)
}

// ParseError is returned when a response body cannot be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "parsing postings response: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
