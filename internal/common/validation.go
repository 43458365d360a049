package common

import (
	"errors"

	validator "github.com/go-playground/validator/v10"
)

// ValidationDetails flattens validator errors into a field -> failed tag map
// suitable for the error payload details.
func ValidationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Namespace()] = fe.Tag()
	}
	return details
}
