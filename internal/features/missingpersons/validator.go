package missingpersons

import (
	"fmt"
	"strings"

	apperrors "github.com/communitysafe/crimewatch/pkg/errors"
)

func ValidateSubmitRequest(req *SubmitRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.LastSeenLocation = strings.TrimSpace(req.LastSeenLocation)
	req.LastSeenDate = strings.TrimSpace(req.LastSeenDate)
	req.ContactInfo = strings.TrimSpace(req.ContactInfo)

	if req.Name == "" {
		return fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}
	if req.Age < 0 || req.Age > 150 {
		return fmt.Errorf("%w: age must be between 0 and 150", apperrors.ErrValidation)
	}
	if req.Description == "" {
		return fmt.Errorf("%w: description is required", apperrors.ErrValidation)
	}
	if req.LastSeenLocation == "" {
		return fmt.Errorf("%w: last seen location is required", apperrors.ErrValidation)
	}
	if req.ContactInfo == "" {
		return fmt.Errorf("%w: contact info is required", apperrors.ErrValidation)
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
