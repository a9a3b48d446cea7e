// ================== pkg/errors/errors.go =================
package errors

import "errors"

var (
	ErrNotFound     = errors.New("record not found")
	ErrUnauthorized = errors.New("not signed in")
	ErrValidation   = errors.New("validation failed")
	ErrTransition   = errors.New("status transition not allowed")
)
