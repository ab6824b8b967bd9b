package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIError_ErrorFormat(t *testing.T) {
	err := NewEmailTakenError()

	want := fmt.Sprintf("[%s] %s", err.Code, err.Message)
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAPIError_SurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("service failed: %w", NewUnauthorizedError())

	var apiErr *APIError
	if !errors.As(wrapped, &apiErr) {
		t.Fatal("expected errors.As to unwrap APIError")
	}
	if apiErr.Code != ErrCodeUnauthorized {
		t.Errorf("Code = %q, want %q", apiErr.Code, ErrCodeUnauthorized)
	}
}

func TestAuthFailedError_DoesNotLeakAccountExistence(t *testing.T) {
	err := NewAuthFailedError()

	// 未知メールとパスワード誤りで同一メッセージになること
	if err.Code != ErrCodeAuthFailed {
		t.Errorf("Code = %q", err.Code)
	}
	if err.Message == "" || err.Action == "" {
		t.Error("message and action must be set for UI display")
	}
}
