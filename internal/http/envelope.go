package httpx

import (
	"net/http"

	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
)

// Result is what a handler returns on success. A zero Status means 200.
// A non-empty Redirect sends 302 to that location instead of an envelope.
type Result struct {
	Status   int
	Data     any
	Message  string
	Redirect string
}

// OK wraps data in a 200 result.
func OK(data any) Result { return Result{Status: http.StatusOK, Data: data} }

// Created wraps data in a 201 result.
func Created(data any) Result { return Result{Status: http.StatusCreated, Data: data} }

// Message is a 200 result that carries only a message.
func Message(msg string) Result { return Result{Status: http.StatusOK, Message: msg} }

// Redirect is a 302 to location.
func Redirect(location string) Result { return Result{Status: http.StatusFound, Redirect: location} }

type successEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
}

func writeResult(w http.ResponseWriter, r *http.Request, res Result) {
	if res.Redirect != "" {
		http.Redirect(w, r, res.Redirect, http.StatusFound)
		return
	}
	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}
	WriteJSON(w, status, successEnvelope{Success: true, Data: res.Data, Message: res.Message})
}

// genericMessages replaces messages of codes that must not leak details.
var genericMessages = map[apperrors.ErrorCode]string{
	apperrors.ErrCodeInternal:         "internal server error",
	apperrors.ErrCodeTimeout:          "internal server error",
	apperrors.ErrCodeCanceled:         "internal server error",
	apperrors.ErrCodeSignatureInvalid: "invalid signature",
}

// writeAppError renders an AppError envelope. Non-public messages are
// replaced with a generic one.
func writeAppError(w http.ResponseWriter, ae *apperrors.AppError) {
	msg := ae.Message
	if !ae.Code.Public() {
		msg = genericMessages[ae.Code]
		if msg == "" {
			msg = "internal server error"
		}
	}
	code := string(ae.Code)
	if code == string(apperrors.ErrCodeTimeout) || code == string(apperrors.ErrCodeCanceled) {
		code = string(apperrors.ErrCodeInternal)
	}
	WriteJSON(w, ae.Code.HTTPStatus(), errorEnvelope{Error: msg, Code: code, Field: ae.Field})
}

// writeInternal renders the generic 500 envelope.
func writeInternal(w http.ResponseWriter) {
	writeAppError(w, apperrors.Internal("internal server error"))
}
