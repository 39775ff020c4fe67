package domain

import "errors"

var ErrInvalidCredentials = errors.New("invalid username or password")
var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrInvalidInput = errors.New("invalid input")
var ErrSessionNotFound = errors.New("session not found")
var ErrMalformedHash = errors.New("malformed password hash")
var ErrUnknownProvider = errors.New("unknown identity provider")
