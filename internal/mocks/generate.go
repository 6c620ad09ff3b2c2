// Package mocks provides gomock mocks for the repository ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	accounts := mocks.NewMockAccountRepository(ctrl)
//	accounts.EXPECT().GetByEmail(gomock.Any(), "a@example.com").Return(rec, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=account_repository_mock.go github.com/indevian-dev/stuwin-api/internal/ports AccountRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=membership_repository_mock.go github.com/indevian-dev/stuwin-api/internal/ports MembershipRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=workspace_repository_mock.go github.com/indevian-dev/stuwin-api/internal/ports WorkspaceRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=bookmark_repository_mock.go github.com/indevian-dev/stuwin-api/internal/ports BookmarkRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=payment_event_repository_mock.go github.com/indevian-dev/stuwin-api/internal/ports PaymentEventRepository
