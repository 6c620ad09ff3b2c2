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

// memberOf builds the context the resolver yields for a member of workspaceID.
func memberOf(accountID, workspaceID string, perms ...domainauth.Permission) *domainauth.Context {
	raw := make([]string, 0, len(perms))
	for _, p := range perms {
		raw = append(raw, string(p))
	}
	set, _ := domainauth.NewPermissionSet(raw)
	return &domainauth.Context{
		User:              &domainauth.User{ID: "user-" + accountID},
		Account:           &domainauth.Account{ID: accountID, EmailVerified: true},
		Session:           &domainauth.Session{ID: "sess-" + accountID, AccountID: accountID},
		ActiveWorkspaceID: workspaceID,
		Permissions:       set,
	}
}

func TestRequireWorkspace(t *testing.T) {
	ac := memberOf("acct-a", "ws-a", domainauth.PermWorkspaceRead)

	assert.NoError(t, requireWorkspace(ac, "ws-a", domainauth.PermWorkspaceRead))
	assert.True(t, apperrors.IsNotFound(requireWorkspace(ac, "ws-b", domainauth.PermWorkspaceRead)))
	assert.True(t, apperrors.IsNotFound(requireWorkspace(ac, "", domainauth.PermWorkspaceRead)))
	assert.Equal(t, apperrors.ErrCodeForbidden,
		apperrors.GetCode(requireWorkspace(ac, "ws-a", domainauth.PermMembersManage)))
	assert.True(t, apperrors.IsUnauthorized(requireWorkspace(nil, "ws-a", domainauth.PermWorkspaceRead)))
}

func TestWorkspaceService_List(t *testing.T) {
	ctrl := gomock.NewController(t)
	memberships := mocks.NewMockMembershipRepository(ctrl)
	svc := NewWorkspaceService(WorkspaceServiceOptions{
		Workspaces:  mocks.NewMockWorkspaceRepository(ctrl),
		Memberships: memberships,
	})

	want := []model.WorkspaceMembership{{Workspace: model.Workspace{ID: "ws-a", Name: "Home"}}}
	memberships.EXPECT().ListForAccount(gomock.Any(), "acct-a").Return(want, nil)

	got, err := svc.List(context.Background(), memberOf("acct-a", ""))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = svc.List(context.Background(), nil)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestWorkspaceService_Get_CrossTenant(t *testing.T) {
	ctrl := gomock.NewController(t)
	workspaces := mocks.NewMockWorkspaceRepository(ctrl)
	svc := NewWorkspaceService(WorkspaceServiceOptions{
		Workspaces:  workspaces,
		Memberships: mocks.NewMockMembershipRepository(ctrl),
	})

	workspaces.EXPECT().GetByID(gomock.Any(), "ws-a").
		Return(&model.Workspace{ID: "ws-a", Type: model.WorkspaceStudent}, nil)

	ws, err := svc.Get(context.Background(), memberOf("acct-a", "ws-a", domainauth.PermWorkspaceRead), "ws-a")
	require.NoError(t, err)
	assert.Equal(t, "ws-a", ws.ID)

	// A member of ws-a asking for ws-b never reaches the repository.
	_, err = svc.Get(context.Background(), memberOf("acct-a", "ws-a", domainauth.PermWorkspaceRead), "ws-b")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestWorkspaceService_AddMember(t *testing.T) {
	ctrl := gomock.NewController(t)
	memberships := mocks.NewMockMembershipRepository(ctrl)
	svc := NewWorkspaceService(WorkspaceServiceOptions{
		Workspaces:  mocks.NewMockWorkspaceRepository(ctrl),
		Memberships: memberships,
	})
	admin := memberOf("acct-a", "ws-a", domainauth.PermMembersManage)

	req := model.AddMemberRequest{WorkspaceID: "ws-a", AccountID: "acct-b", RoleID: "role-1"}
	memberships.EXPECT().Add(gomock.Any(), req).Return(&model.Membership{
		ID: "m-1", AccountID: "acct-b", WorkspaceID: "ws-a", Role: model.Role{ID: "role-1", Name: "member"},
	}, nil)

	m, err := svc.AddMember(context.Background(), admin, req)
	require.NoError(t, err)
	assert.Equal(t, "acct-b", m.AccountID)

	t.Run("role from another workspace type", func(t *testing.T) {
		bad := model.AddMemberRequest{WorkspaceID: "ws-a", AccountID: "acct-b", RoleID: "role-x"}
		memberships.EXPECT().Add(gomock.Any(), bad).Return(nil, apperrors.ValidationField("roleId", "role does not apply"))

		_, err := svc.AddMember(context.Background(), admin, bad)
		assert.Equal(t, "roleId", apperrors.GetField(err))
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := svc.AddMember(context.Background(), admin, model.AddMemberRequest{WorkspaceID: "ws-a"})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("plain member cannot add", func(t *testing.T) {
		_, err := svc.AddMember(context.Background(), memberOf("acct-c", "ws-a", domainauth.PermWorkspaceRead), req)
		assert.Equal(t, apperrors.ErrCodeForbidden, apperrors.GetCode(err))
	})
}
