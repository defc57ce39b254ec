package application

import (
	"fmt"
	"strings"

	"docsort/internal/domain"
)

// ValidateRequired checks if a string field is non-empty (after trimming
// whitespace). Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", fieldName),
		}
	}
	return nil
}

// ValidateCategory checks that value names a known document category.
func ValidateCategory(fieldName, value string) error {
	if !domain.ValidCategory(strings.ToLower(value)) {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("unknown category %q (valid: %s)", value, strings.Join(domain.Categories(), ", ")),
		}
	}
	return nil
}

// ValidateOperationType checks that value names a known snapshot operation.
func ValidateOperationType(fieldName, value string) error {
	if value == "" {
		return nil
	}
	if _, err := domain.ParseOperationType(value); err != nil {
		return &ValidationError{Field: fieldName, Message: err.Error()}
	}
	return nil
}
