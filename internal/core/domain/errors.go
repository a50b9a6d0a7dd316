package domain

import "errors"

var (
	ErrEmailTaken   = errors.New("e-mail already registered")
	ErrUserNotFound = errors.New("user not found")
)
