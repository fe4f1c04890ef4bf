package service

import (
	"storefront-service/internal/apperror"
	"storefront-service/internal/validation"
)

type trackingInput struct {
	TestName  string `json:"testName" validate:"notblank"`
	Variant   string `json:"variant" validate:"notblank"`
	SessionID string `json:"sessionId" validate:"notblank"`
}

func requireSession(sessionID string) error {
	return validation.Var("sessionId", sessionID, "notblank")
}

func requireTrackingFields(testName, variant, sessionID string) error {
	if err := validation.Struct(trackingInput{TestName: testName, Variant: variant, SessionID: sessionID}); err != nil {
		return apperror.Validation("", "Missing required fields")
	}
	return nil
}
