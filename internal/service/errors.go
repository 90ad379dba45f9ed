package service

import "errors"

var (
	// ErrMemeNotFound is returned when a meme id does not resolve to an active meme.
	ErrMemeNotFound = errors.New("meme not found")
	// ErrEmptyComment is returned for blank comment text.
	ErrEmptyComment = errors.New("comment cannot be empty")
	// ErrTitleRequired is returned when a caption is requested without a title.
	ErrTitleRequired = errors.New("title is required")
	// ErrInvalidImage wraps every rejected upload.
	ErrInvalidImage = errors.New("invalid image")
)
