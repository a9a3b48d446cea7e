package crimereports

import (
	"fmt"
	"strings"

	apperrors "github.com/communitysafe/crimewatch/pkg/errors"
)

func ValidateSubmitRequest(req *SubmitRequest) error {
	req.Headline = strings.TrimSpace(req.Headline)
	req.Description = strings.TrimSpace(req.Description)
	req.Location = strings.TrimSpace(req.Location)
	req.CrimeType = strings.TrimSpace(req.CrimeType)
	req.SuspectDescription = strings.TrimSpace(req.SuspectDescription)

	if req.Headline == "" {
		return fmt.Errorf("%w: headline is required", apperrors.ErrValidation)
	}
	if req.Description == "" {
		return fmt.Errorf("%w: description is required", apperrors.ErrValidation)
	}
	if req.Location == "" {
		return fmt.Errorf("%w: location is required", apperrors.ErrValidation)
	}
	if req.CrimeType == "" {
		return fmt.Errorf("%w: crime type is required", apperrors.ErrValidation)
	}
	return nil
}

func ValidateUpdateMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message is required", apperrors.ErrValidation)
	}
	return message, nil
}
