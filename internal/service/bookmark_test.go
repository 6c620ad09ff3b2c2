package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/domain/model"
	apperrors "github.com/indevian-dev/stuwin-api/internal/errors"
	"github.com/indevian-dev/stuwin-api/internal/mocks"
)

func newBookmarkService(t *testing.T) (*BookmarkService, *mocks.MockBookmarkRepository) {
	t.Helper()
	repo := mocks.NewMockBookmarkRepository(gomock.NewController(t))
	return NewBookmarkService(BookmarkServiceOptions{Repo: repo}), repo
}

func TestBookmarkService_Create_OwnerComesFromContext(t *testing.T) {
	svc, repo := newBookmarkService(t)
	ac := memberOf("acct-a", "ws-a", domainauth.PermBookmarksWrite)

	repo.EXPECT().Create(gomock.Any(), model.CreateBookmarkRequest{
		AccountID: "acct-a", WorkspaceID: "ws-a", QuestionID: "q-1", Note: "tricky",
	}).Return(&model.Bookmark{ID: "b-1", AccountID: "acct-a", WorkspaceID: "ws-a", QuestionID: "q-1"}, nil)

	b, err := svc.Create(context.Background(), ac, model.CreateBookmarkRequest{
		AccountID: "acct-someone-else", WorkspaceID: "ws-a", QuestionID: " q-1 ", Note: " tricky ",
	})
	require.NoError(t, err)
	assert.Equal(t, "b-1", b.ID)
}

func TestBookmarkService_Create_Duplicate(t *testing.T) {
	svc, repo := newBookmarkService(t)
	ac := memberOf("acct-a", "ws-a", domainauth.PermBookmarksWrite)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, apperrors.Conflict("unique violation"))

	_, err := svc.Create(context.Background(), ac, model.CreateBookmarkRequest{WorkspaceID: "ws-a", QuestionID: "q-1"})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, 409, apperrors.GetCode(err).HTTPStatus())
}

func TestBookmarkService_CrossTenantIsolation(t *testing.T) {
	svc, _ := newBookmarkService(t)
	// Member of ws-a with full bookmark rights; every call targets ws-b and
	// the repository mock has no expectations, so any call would fail the test.
	ac := memberOf("acct-a", "ws-a", domainauth.PermBookmarksRead, domainauth.PermBookmarksWrite)
	ctx := context.Background()

	_, err := svc.Create(ctx, ac, model.CreateBookmarkRequest{WorkspaceID: "ws-b", QuestionID: "q-1"})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.List(ctx, ac, "ws-b", 10, 0)
	assert.True(t, apperrors.IsNotFound(err))

	assert.True(t, apperrors.IsNotFound(svc.Delete(ctx, ac, "ws-b", "b-1")))
}

func TestBookmarkService_PermissionChecks(t *testing.T) {
	svc, repo := newBookmarkService(t)
	reader := memberOf("acct-a", "ws-a", domainauth.PermBookmarksRead)
	ctx := context.Background()

	repo.EXPECT().List(gomock.Any(), "acct-a", "ws-a", 20, 0).Return([]model.Bookmark{}, nil)
	list, err := svc.List(ctx, reader, "ws-a", 20, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.Create(ctx, reader, model.CreateBookmarkRequest{WorkspaceID: "ws-a", QuestionID: "q-1"})
	assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))

	_, err = svc.List(ctx, reader, "ws-a", -1, 0)
	assert.True(t, apperrors.IsValidation(err))
}

func TestBookmarkService_Delete(t *testing.T) {
	svc, repo := newBookmarkService(t)
	ac := memberOf("acct-a", "ws-a", domainauth.PermBookmarksWrite)
	ctx := context.Background()

	repo.EXPECT().Delete(gomock.Any(), "acct-a", "ws-a", "b-1").Return(true, nil)
	require.NoError(t, svc.Delete(ctx, ac, "ws-a", "b-1"))

	repo.EXPECT().Delete(gomock.Any(), "acct-a", "ws-a", "b-1").Return(false, nil)
	assert.True(t, apperrors.IsNotFound(svc.Delete(ctx, ac, "ws-a", "b-1")))
}
