package tips

import (
	"fmt"
	"strings"

	apperrors "github.com/communitysafe/crimewatch/pkg/errors"
)

func ValidateSubmitRequest(req *SubmitRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.TrimSpace(req.Category)
	req.Location = strings.TrimSpace(req.Location)

	if req.Title == "" {
		return fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if req.Description == "" {
		return fmt.Errorf("%w: description is required", apperrors.ErrValidation)
	}
	if req.Category == "" {
		return fmt.Errorf("%w: category is required", apperrors.ErrValidation)
	}
	return nil
}

func ValidateCommentMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message is required", apperrors.ErrValidation)
	}
	return message, nil
}
