package handler

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// formatValidationErrors flattens validator errors into field -> reason
// pairs for the error response body.
func formatValidationErrors(err error) []map[string]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}

	out := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, map[string]string{
			"field":  fe.Field(),
			"reason": fmt.Sprintf("failed on %q", fe.Tag()),
		})
	}
	return out
}
