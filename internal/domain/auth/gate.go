package auth

// DenyCode is the machine-readable reason for a denied request.
type DenyCode string

const (
	DenyUnauthorized      DenyCode = "UNAUTHORIZED"
	DenyTwoFactorRequired DenyCode = "TWO_FACTOR_REQUIRED"
	DenyEmailNotVerified  DenyCode = "EMAIL_NOT_VERIFIED"
	DenyPhoneNotVerified  DenyCode = "PHONE_NOT_VERIFIED"
	DenyForbidden         DenyCode = "FORBIDDEN"
)

// Requirements are the auth preconditions an endpoint declares.
type Requirements struct {
	AuthRequired          bool
	Permission            Permission
	RequiresTwoFactor     bool
	NeedEmailVerification bool
	NeedPhoneVerification bool
}

// needsContext reports whether any requirement implies a logged-in caller.
func (r Requirements) needsContext() bool {
	return r.AuthRequired || r.RequiresTwoFactor || r.NeedEmailVerification ||
		r.NeedPhoneVerification || r.Permission != ""
}

// Decision is the outcome of Authorize.
type Decision struct {
	Allowed bool
	Code    DenyCode
	Reason  string
}

// Allow is the single allowing decision.
var Allow = Decision{Allowed: true}

func deny(code DenyCode, reason string) Decision {
	return Decision{Code: code, Reason: reason}
}

// Authorize evaluates req against ac. Rules run in a fixed order and the first
// failure wins; the two-factor check always precedes the permission check.
func Authorize(req Requirements, ac *Context) Decision {
	if !req.needsContext() {
		return Allow
	}
	if !ac.complete() {
		return deny(DenyUnauthorized, "authentication required")
	}
	if ac.Account.Suspended {
		return deny(DenyForbidden, "account suspended")
	}
	if req.RequiresTwoFactor && !ac.TwoFactorVerified {
		return deny(DenyTwoFactorRequired, "two-factor verification required")
	}
	if req.NeedEmailVerification && !ac.Account.EmailVerified {
		return deny(DenyEmailNotVerified, "email address not verified")
	}
	if req.NeedPhoneVerification && !ac.Account.PhoneVerified {
		return deny(DenyPhoneNotVerified, "phone number not verified")
	}
	if req.Permission != "" {
		switch {
		case !req.Permission.Valid():
			return deny(DenyForbidden, "unknown permission")
		case ac.ActiveWorkspaceID == "":
			return deny(DenyForbidden, "no membership in workspace")
		case !ac.Permissions.Has(req.Permission):
			return deny(DenyForbidden, "missing permission")
		}
	}
	return Allow
}
