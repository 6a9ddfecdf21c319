package domain

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidPayload indicates a step output that fails structural validation.
var ErrInvalidPayload = errors.New("invalid payload")

var validate = validator.New()

// Validate checks the struct tags of v (a payload, file metadata or slice
// element) and wraps the first failure in ErrInvalidPayload.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			ve := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidPayload, ve.Namespace(), ve.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// ValidateEach validates every element of items.
func ValidateEach[T any](items []T) error {
	for i := range items {
		if err := Validate(&items[i]); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}
