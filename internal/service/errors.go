package service

import "errors"

var (
	ErrSessionNotFound    = errors.New("take session not found or expired")
	ErrSubmissionInFlight = errors.New("another request is already advancing this session")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrMissingOwner       = errors.New("operator account id is required")
	ErrQuestionRemoved    = errors.New("questions with collected answers cannot be removed")
)
