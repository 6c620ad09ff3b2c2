package auth

// Context is the request-scoped authorization context built by the session
// resolver. It is read-only once constructed.
type Context struct {
	User    *User
	Account *Account
	Session *Session

	// ActiveWorkspaceID is set only when the account holds a membership in the
	// workspace named by the request path.
	ActiveWorkspaceID string
	Permissions       PermissionSet

	TwoFactorVerified bool
}

// AccountID returns the account id or "" for a nil or partial context.
func (c *Context) AccountID() string {
	if c == nil || c.Account == nil {
		return ""
	}
	return c.Account.ID
}

// complete reports whether the context carries the fields the gate relies on.
func (c *Context) complete() bool {
	return c != nil && c.Account != nil && c.Session != nil && c.Account.ID != "" && c.Session.ID != ""
}

// ServiceScheme identifies how a trusted system caller authenticated.
type ServiceScheme string

const (
	SchemeQueueSignature   ServiceScheme = "queue_signature"
	SchemePaymentSignature ServiceScheme = "payment_signature"
	SchemeAPIKey           ServiceScheme = "api_key"
)

// ServiceAccount is the principal for webhook and internal API-key callers.
// It is deliberately not a User: downstream code branches on its presence.
type ServiceAccount struct {
	Name   string
	Scheme ServiceScheme
}

// Principal is the caller a request runs on behalf of: a logged-in user
// (*Context) or a trusted system caller (*ServiceAccount).
type Principal interface {
	principal()
}

func (*Context) principal()        {}
func (*ServiceAccount) principal() {}
