package models

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrEmptyID is returned when an operation needs a post id and got none.
var ErrEmptyID = errors.New("post id cannot be empty")

// Validate checks the record before the server stores it.
func (p *RemotePost) Validate() error {
	return validate.Struct(p)
}

// ValidateDraft checks a record the server has not assigned an id to yet.
func (p *RemotePost) ValidateDraft() error {
	return validate.StructExcept(p, "ID")
}

// Post projects the raw record onto the client model.
func (p RemotePost) Post() Post {
	return Post{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		ImagePath: p.ImagePath,
	}
}

// ValidateID rejects an empty identifier.
func ValidateID(id string) error {
	if err := validate.Var(id, "required"); err != nil {
		return ErrEmptyID
	}
	return nil
}

// Remote converts a client record to the wire representation.
func (p Post) Remote() RemotePost {
	return RemotePost{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		ImagePath: p.ImagePath,
	}
}
