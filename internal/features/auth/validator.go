package auth

import (
	"fmt"
	"strings"

	apperrors "github.com/communitysafe/crimewatch/pkg/errors"
)

func ValidateLoginRequest(req *LoginRequest) error {
	req.Email = strings.TrimSpace(req.Email)

	if req.Email == "" {
		return fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	}
	if !strings.Contains(req.Email, "@") {
		return fmt.Errorf("%w: email is invalid", apperrors.ErrValidation)
	}
	if req.Password == "" {
		return fmt.Errorf("%w: password is required", apperrors.ErrValidation)
	}
	return nil
}

func ValidateRegisterRequest(req *RegisterRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if req.Email == "" {
		return fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	}
	if !strings.Contains(req.Email, "@") {
		return fmt.Errorf("%w: email is invalid", apperrors.ErrValidation)
	}
	if len(req.Password) < 6 {
		return fmt.Errorf("%w: password should be at least 6 characters", apperrors.ErrValidation)
	}
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}
	return nil
}
