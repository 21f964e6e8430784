package repository

import "errors"

// Sentinel errors returned by the stores. Controllers map these onto HTTP
// status codes; everything else surfaces as a 500.
var (
	ErrNotFound        = errors.New("document not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrAlreadyLiked    = errors.New("post already liked")
	ErrNotLiked        = errors.New("post not liked")
	ErrUsernameTaken   = errors.New("username already taken")
)
