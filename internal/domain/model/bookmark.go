package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

const maxQuestionIDLen = 64

// Bookmark marks a question for later review by one account inside one workspace.
type Bookmark struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	WorkspaceID string    `json:"workspace_id"`
	QuestionID  string    `json:"question_id"`
	Note        string    `json:"note,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateBookmarkRequest is the body of a bookmark creation.
type CreateBookmarkRequest struct {
	AccountID   string `json:"-"`
	WorkspaceID string `json:"-"`
	QuestionID  string `json:"questionId"`
	Note        string `json:"note,omitempty"`
}

// Normalize trims user-supplied fields.
func (r *CreateBookmarkRequest) Normalize() {
	r.QuestionID = strings.TrimSpace(r.QuestionID)
	r.Note = strings.TrimSpace(r.Note)
}

// Validate performs basic validation on CreateBookmarkRequest.
func (r *CreateBookmarkRequest) Validate() error {
	if r.AccountID == "" || r.WorkspaceID == "" {
		return errors.New("account and workspace are required")
	}
	if r.QuestionID == "" {
		return errors.New("questionId is required")
	}
	if utf8.RuneCountInString(r.QuestionID) > maxQuestionIDLen {
		return errors.New("questionId is too long")
	}
	return nil
}
