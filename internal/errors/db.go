package errors

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// "Key (email)=(a@b.c) already exists."
	reDetailKey = regexp.MustCompile(`Key \(([^)]+)\)=`)
	// "... is still referenced from table "memberships"."
	reStillReferenced = regexp.MustCompile(`is still referenced from table "?([^"]+)"?`)
	// "... is not present in table "workspaces"."
	reNotPresent = regexp.MustCompile(`is not present in table "?([^"]+)"?`)
)

// entityNames maps tables to the names clients see in error messages.
var entityNames = map[string]string{
	"users":          "User",
	"accounts":       "Account",
	"workspaces":     "Workspace",
	"roles":          "Role",
	"memberships":    "Membership",
	"bookmarks":      "Bookmark",
	"payment_events": "Payment Event",
}

// sqlFunctions are expression-index prefixes that never name a column.
var sqlFunctions = map[string]bool{
	"lower": true, "upper": true, "trim": true, "md5": true, "coalesce": true,
}

// MapDBError converts driver errors into AppErrors:
//
//	pgx.ErrNoRows          NOT_FOUND
//	unique violation       CONFLICT (Field names the column when known)
//	FK, NOT NULL, CHECK    VALIDATION
//	context deadline       TIMEOUT
//	context cancel         CANCELED
//	other Postgres errors  INTERNAL
//
// Anything else is returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &AppError{Code: ErrCodeTimeout, Message: "Request timed out. Please try again.", Cause: err}
	case errors.Is(err, context.Canceled):
		return &AppError{Code: ErrCodeCanceled, Message: "Request was canceled.", Cause: err}
	case errors.Is(err, pgx.ErrNoRows):
		return &AppError{Code: ErrCodeNotFound, Message: "Resource not found", Cause: err}
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		return &AppError{
			Code:    ErrCodeConflict,
			Message: "This value already exists.",
			Field:   uniqueField(pgErr),
			Cause:   pgErr,
		}
	case pgerrcode.ForeignKeyViolation:
		return &AppError{Code: ErrCodeValidation, Message: foreignKeyMessage(pgErr), Cause: pgErr}
	case pgerrcode.NotNullViolation:
		msg := "Required field is missing."
		if pgErr.ColumnName != "" {
			msg = "This field is required."
		}
		return &AppError{Code: ErrCodeValidation, Message: msg, Field: pgErr.ColumnName, Cause: pgErr}
	case pgerrcode.CheckViolation:
		msg := "Invalid data."
		if pgErr.ColumnName != "" {
			msg = "This field has an invalid value."
		}
		return &AppError{Code: ErrCodeValidation, Message: msg, Field: pgErr.ColumnName, Cause: pgErr}
	default:
		return &AppError{Code: ErrCodeInternal, Message: "A database error occurred.", Cause: pgErr}
	}
}

// uniqueField names the violating column from, in order, the column
// metadata, the Detail text, or a "<table>_<column>_key" constraint name.
func uniqueField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := reDetailKey.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return m[1]
	}
	return fieldFromConstraint(pgErr.ConstraintName)
}

// fieldFromConstraint returns "" for multi-column and expression constraints.
func fieldFromConstraint(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) != 3 || sqlFunctions[strings.ToLower(parts[1])] {
		return ""
	}
	return parts[1]
}

func foreignKeyMessage(pgErr *pgconn.PgError) string {
	if m := reStillReferenced.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return "Cannot delete because this item is in use by " + entityName(m[1]) + "."
	}
	if m := reNotPresent.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return "The referenced " + entityName(m[1]) + " does not exist."
	}
	if pgErr.TableName != "" {
		return "Cannot complete operation on " + entityName(pgErr.TableName) + " because a referenced record is missing or in use."
	}
	return "A referenced record does not exist or is in use."
}

func entityName(table string) string {
	table = strings.ToLower(strings.TrimSpace(table))
	if name, ok := entityNames[table]; ok {
		return name
	}
	words := strings.Fields(strings.ReplaceAll(table, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
