package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrUnauthorized", ErrUnauthorized, "unauthorized"},
		{"ErrTokenExpired", ErrTokenExpired, "token expired"},
		{"ErrTokenInvalid", ErrTokenInvalid, "token invalid"},
		{"ErrNotIndexed", ErrNotIndexed, "project not indexed"},
		{"ErrIndexingInProgress", ErrIndexingInProgress, "indexing already in progress"},
		{"ErrComponentNotFound", ErrComponentNotFound, "component not found"},
		{"ErrElementNotFound", ErrElementNotFound, "element not found"},
		{"ErrElementNotVisible", ErrElementNotVisible, "element not visible"},
		{"ErrResourceInaccessible", ErrResourceInaccessible, "resource inaccessible"},
		{"ErrAutomationUnavailable", ErrAutomationUnavailable, "page automation unavailable"},
		{"ErrTimeout", ErrTimeout, "page automation timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrTokenExpired,
		ErrTokenInvalid,
		ErrNotIndexed,
		ErrIndexingInProgress,
		ErrComponentNotFound,
		ErrElementNotFound,
		ErrElementNotVisible,
		ErrResourceInaccessible,
		ErrAutomationUnavailable,
		ErrTimeout,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestComponentNotFoundError(t *testing.T) {
	err := &ComponentNotFoundError{Ref: "Missing", Available: []string{"Button", "Card"}}

	if !errors.Is(err, ErrComponentNotFound) {
		t.Error("expected ComponentNotFoundError to match ErrComponentNotFound")
	}
	if !strings.Contains(err.Error(), "Button, Card") {
		t.Errorf("expected available names in message, got %q", err.Error())
	}

	wrapped := fmt.Errorf("find similar: %w", err)
	var target *ComponentNotFoundError
	if !errors.As(wrapped, &target) {
		t.Fatal("expected errors.As to find ComponentNotFoundError")
	}
	if len(target.Available) != 2 {
		t.Errorf("expected 2 available names, got %d", len(target.Available))
	}
}

func TestComponentNotFoundError_EmptyIndex(t *testing.T) {
	err := &ComponentNotFoundError{Ref: "Missing"}
	if !strings.Contains(err.Error(), "no components") {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
