package auth

import (
	"fmt"
	"sort"
)

// Permission is a capability granted by a workspace role.
// The wire and storage form is the string value.
type Permission string

const (
	PermWorkspaceRead   Permission = "workspace.read"
	PermWorkspaceUpdate Permission = "workspace.update"
	PermMembersRead     Permission = "members.read"
	PermMembersManage   Permission = "members.manage"
	PermBookmarksRead   Permission = "bookmarks.read"
	PermBookmarksWrite  Permission = "bookmarks.write"
	PermQuestionsRead   Permission = "questions.read"
	PermQuestionsWrite  Permission = "questions.write"
	PermQuizzesTake     Permission = "quizzes.take"
	PermQuizzesManage   Permission = "quizzes.manage"
	PermPaymentsManage  Permission = "payments.manage"
	PermSupportRead     Permission = "support.read"
	PermSupportWrite    Permission = "support.write"
)

var knownPermissions = map[Permission]struct{}{
	PermWorkspaceRead:   {},
	PermWorkspaceUpdate: {},
	PermMembersRead:     {},
	PermMembersManage:   {},
	PermBookmarksRead:   {},
	PermBookmarksWrite:  {},
	PermQuestionsRead:   {},
	PermQuestionsWrite:  {},
	PermQuizzesTake:     {},
	PermQuizzesManage:   {},
	PermPaymentsManage:  {},
	PermSupportRead:     {},
	PermSupportWrite:    {},
}

// Valid reports whether p is a member of the closed permission set.
func (p Permission) Valid() bool {
	_, ok := knownPermissions[p]
	return ok
}

// ParsePermission validates a wire string.
func ParsePermission(s string) (Permission, error) {
	p := Permission(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown permission %q", s)
	}
	return p, nil
}

// PermissionSet is an immutable-by-convention set of permissions.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from raw strings. Unknown values are returned
// separately so callers can log them; they never enter the set.
func NewPermissionSet(raw []string) (PermissionSet, []string) {
	set := make(PermissionSet, len(raw))
	var unknown []string
	for _, s := range raw {
		p, err := ParsePermission(s)
		if err != nil {
			unknown = append(unknown, s)
			continue
		}
		set[p] = struct{}{}
	}
	return set, unknown
}

// Has reports whether p is in the set. A nil set has nothing.
func (s PermissionSet) Has(p Permission) bool {
	if s == nil {
		return false
	}
	_, ok := s[p]
	return ok
}

// Strings returns the sorted wire form.
func (s PermissionSet) Strings() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}
