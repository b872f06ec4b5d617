package domain

import "errors"

var (
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrRecordNotFound      = errors.New("record not found")
	ErrEditConflict        = errors.New("edit conflict")
	ErrInvalidBasket       = errors.New("basket is empty or its total is not positive")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrProviderUnavailable = errors.New("payment provider is unavailable")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)
