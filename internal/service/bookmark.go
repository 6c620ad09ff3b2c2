package service

import (
	"context"
	"fmt"
	"log/slog"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
	"github.com/indevian-dev/stuwin-api/internal/ports"
)

// BookmarkServiceOptions groups dependencies for BookmarkService.
type BookmarkServiceOptions struct {
	Repo   ports.BookmarkRepository
	Logger *slog.Logger
}

// BookmarkService manages question bookmarks. Every operation is scoped to
// the calling account and its active workspace.
type BookmarkService struct {
	repo   ports.BookmarkRepository
	logger *slog.Logger
}

// NewBookmarkService constructs a BookmarkService.
func NewBookmarkService(opts BookmarkServiceOptions) *BookmarkService {
	if opts.Repo == nil {
		panic("BookmarkRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BookmarkService{repo: opts.Repo, logger: logger.With("component", "bookmarks")}
}

// Create bookmarks a question. The owner and workspace always come from ac,
// never from the request body.
func (s *BookmarkService) Create(ctx context.Context, ac *domainauth.Context, req model.CreateBookmarkRequest) (*model.Bookmark, error) {
	if err := requireWorkspace(ac, req.WorkspaceID, domainauth.PermBookmarksWrite); err != nil {
		return nil, err
	}
	req.AccountID = ac.AccountID()
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	b, err := s.repo.Create(ctx, req)
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, apperrors.Conflict("question is already bookmarked")
		}
		if _, ok := apperrors.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("create bookmark: %w", err)
	}
	return b, nil
}

// List pages through the caller's bookmarks in workspaceID.
func (s *BookmarkService) List(ctx context.Context, ac *domainauth.Context, workspaceID string, limit, offset int) ([]model.Bookmark, error) {
	if err := requireWorkspace(ac, workspaceID, domainauth.PermBookmarksRead); err != nil {
		return nil, err
	}
	if limit < 0 || offset < 0 {
		return nil, apperrors.Validation("limit and offset must not be negative")
	}
	out, err := s.repo.List(ctx, ac.AccountID(), workspaceID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return out, nil
}

// Delete removes one of the caller's bookmarks.
func (s *BookmarkService) Delete(ctx context.Context, ac *domainauth.Context, workspaceID, id string) error {
	if err := requireWorkspace(ac, workspaceID, domainauth.PermBookmarksWrite); err != nil {
		return err
	}
	ok, err := s.repo.Delete(ctx, ac.AccountID(), workspaceID, id)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if !ok {
		return apperrors.NotFound("bookmark not found")
	}
	return nil
}
