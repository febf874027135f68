package articles

import (
	"errors"

	"github.com/lysyi3m/newsdesk/app/database"
)

var (
	ErrNotFound             = errors.New("article not found")
	ErrNotLive              = errors.New("article is not live")
	ErrUpdateNotFound       = errors.New("update not found")
	ErrNoHeadline           = errors.New("no headline article found")
	ErrNoCategoryHeadline   = errors.New("no category headline found")
	ErrDuplicateSlug        = database.ErrDuplicateSlug
	errMissingArticleFields = &ValidationError{Message: "title, description, content, category and published date are required"}
	errMissingUpdateFields  = &ValidationError{Message: "content title, description and detail are required"}
)

// ValidationError reports input that cannot be stored as given.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
