package services

import "errors"

// Errors shared by the services and the HTTP error mapping.
var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrAlreadySignedUp  = errors.New("student is already signed up for this activity")
)
