package httpx

import (
	"net/http"

	"github.com/indevian-dev/stuwin-api/internal/domain/model"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func listWorkspaces(rc *RequestContext, r *http.Request) (Result, error) {
	items, err := rc.Modules.Workspaces.List(r.Context())
	if err != nil {
		return Result{}, err
	}
	if items == nil {
		items = []model.WorkspaceMembership{}
	}
	return OK(items), nil
}

func getWorkspace(rc *RequestContext, r *http.Request) (Result, error) {
	ws, err := rc.Modules.Workspaces.Get(r.Context(), rc.WorkspaceID())
	if err != nil {
		return Result{}, err
	}
	return OK(ws), nil
}

func addMember(rc *RequestContext, r *http.Request) (Result, error) {
	var req model.AddMemberRequest
	if err := DecodeJSON(r.Body, &req); err != nil {
		return Result{}, err
	}
	req.WorkspaceID = rc.WorkspaceID()
	m, err := rc.Modules.Workspaces.AddMember(r.Context(), req)
	if err != nil {
		return Result{}, err
	}
	return Created(m), nil
}

func listBookmarks(rc *RequestContext, r *http.Request) (Result, error) {
	limit, offset := ParseLimitOffset(r, defaultPageSize, maxPageSize)
	items, err := rc.Modules.Bookmarks.List(r.Context(), rc.WorkspaceID(), limit, offset)
	if err != nil {
		return Result{}, err
	}
	if items == nil {
		items = []model.Bookmark{}
	}
	return OK(items), nil
}

func createBookmark(rc *RequestContext, r *http.Request) (Result, error) {
	var req model.CreateBookmarkRequest
	if err := DecodeJSON(r.Body, &req); err != nil {
		return Result{}, err
	}
	req.WorkspaceID = rc.WorkspaceID()
	b, err := rc.Modules.Bookmarks.Create(r.Context(), req)
	if err != nil {
		return Result{}, err
	}
	return Created(b), nil
}

func deleteBookmark(rc *RequestContext, r *http.Request) (Result, error) {
	if err := rc.Modules.Bookmarks.Delete(r.Context(), rc.WorkspaceID(), rc.Param("id")); err != nil {
		return Result{}, err
	}
	return Message("bookmark deleted"), nil
}
