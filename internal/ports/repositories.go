package ports

import (
	"context"

	domainauth "github.com/indevian-dev/stuwin-api/internal/domain/auth"
	"github.com/indevian-dev/stuwin-api/internal/domain/model"
)

// AccountRecord is an account joined with its owning user.
type AccountRecord struct {
	Account domainauth.Account
	User    domainauth.User
}

// CreateAccountInput creates a user and its account in one transaction.
type CreateAccountInput struct {
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	// EmailVerified is set for accounts created from a verified SSO identity.
	EmailVerified bool
}

// AccountRepository loads and creates accounts. Missing rows are NotFound errors.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*AccountRecord, error)
	GetByEmail(ctx context.Context, email string) (*AccountRecord, error)
	Create(ctx context.Context, in CreateAccountInput) (*AccountRecord, error)
}

// MembershipRepository resolves an account's workspace roles.
type MembershipRepository interface {
	// GetForAccount returns nil, nil when the account has no membership in workspaceID.
	GetForAccount(ctx context.Context, accountID, workspaceID string) (*model.Membership, error)
	ListForAccount(ctx context.Context, accountID string) ([]model.WorkspaceMembership, error)
	Add(ctx context.Context, req model.AddMemberRequest) (*model.Membership, error)
}

// WorkspaceRepository loads workspaces.
type WorkspaceRepository interface {
	GetByID(ctx context.Context, id string) (*model.Workspace, error)
}

// BookmarkRepository stores bookmarks. Create returns a Conflict error when
// the (account, workspace, question) triple already exists.
type BookmarkRepository interface {
	Create(ctx context.Context, req model.CreateBookmarkRequest) (*model.Bookmark, error)
	List(ctx context.Context, accountID, workspaceID string, limit, offset int) ([]model.Bookmark, error)
	Delete(ctx context.Context, accountID, workspaceID, id string) (bool, error)
}

// PaymentEventRepository stores provider callbacks idempotently.
type PaymentEventRepository interface {
	// Insert reports false when an event with the same provider id exists.
	Insert(ctx context.Context, ev model.PaymentEvent) (bool, error)
}
