package domain

import "errors"

var (
	// ErrInvalidQuery signals an empty or missing search query.
	ErrInvalidQuery = errors.New("search query is required")
	// ErrEbookNotFound signals a missing catalog record.
	ErrEbookNotFound = errors.New("ebook not found")
	// ErrSearchUnavailable signals that every search backend failed,
	// including the keyword fallback. No further recovery exists.
	ErrSearchUnavailable = errors.New("search unavailable")
)
