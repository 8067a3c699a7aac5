package service

import "errors"

var (
	ErrNoCredential         = errors.New("no API credential configured")
	ErrProviderNotSupported = errors.New("provider not supported")
	ErrInvalidCredentials   = errors.New("invalid_credentials")
	ErrEmailTaken           = errors.New("email already registered")
	ErrSessionExpired       = errors.New("session_expired")
	ErrSessionNotFound      = errors.New("session_not_found")
	ErrHistoryNotFound      = errors.New("history entry not found")
)
