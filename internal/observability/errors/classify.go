// Package errors turns errors into low-cardinality metric tags.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
)

// Classify returns a short tag for err: the lowercased AppError code when
// there is one, "timeout" or "canceled" for context errors, and otherwise the
// innermost concrete type name.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if ae, ok := apperrors.As(err); ok {
		return strings.ToLower(string(ae.Code))
	}
	switch {
	case goerrors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case goerrors.Is(err, context.Canceled):
		return "canceled"
	}

	for {
		inner := goerrors.Unwrap(err)
		if inner == nil {
			break
		}
		err = inner
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	name := strings.ReplaceAll(strings.ToLower(t.String()), ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
