package database

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned by mutations addressing a row that does not exist.
	// Queries report absence as a nil result instead.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidReference marks an id that does not point at an existing row
	ErrInvalidReference = errors.New("invalid reference")
	// ErrInvalidValue marks a value outside its enumerated set
	ErrInvalidValue = errors.New("invalid value")
)

// FieldError ties ErrInvalidReference or ErrInvalidValue to the offending input field
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func invalidReference(field string) error {
	return &FieldError{Field: field, Err: ErrInvalidReference}
}

func invalidValue(field string) error {
	return &FieldError{Field: field, Err: ErrInvalidValue}
}

// requireExisting fails with an invalid reference error unless every id
// exists in the table of model.
func requireExisting(tx *gorm.DB, model interface{}, field string, ids ...uuid.UUID) error {
	unique := uniqueIDs(ids)
	if len(unique) == 0 {
		return nil
	}

	var count int64
	if err := tx.Model(model).Where("id IN ?", unique).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(unique)) {
		return invalidReference(field)
	}
	return nil
}

// uniqueIDs drops duplicates while keeping first-seen order
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}
