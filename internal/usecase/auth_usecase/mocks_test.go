package auth_test

import (
	"context"
	"time"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"github.com/stretchr/testify/mock"
)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

type RefreshTokenRepoMock struct{ mock.Mock }

func (m *RefreshTokenRepoMock) Create(ctx context.Context, token *model.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *RefreshTokenRepoMock) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	rt, _ := args.Get(0).(*model.RefreshToken)
	return rt, args.Error(1)
}

func (m *RefreshTokenRepoMock) MarkUsed(ctx context.Context, tokenID string, usedAt time.Time) error {
	return m.Called(ctx, tokenID, usedAt).Error(0)
}

func (m *RefreshTokenRepoMock) DeleteAllByUserID(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *RefreshTokenRepoMock) DeleteByID(ctx context.Context, tokenID string) error {
	return m.Called(ctx, tokenID).Error(0)
}

type CustomerRepoMock struct {
	repo.CustomerRepository
	mock.Mock
}

func (m *CustomerRepoMock) Create(ctx context.Context, profile *model.CustomerProfile) error {
	return m.Called(ctx, profile).Error(0)
}

type AuditRepoMock struct {
	repo.AuditLogRepository
	mock.Mock
}

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	return m.Called(ctx, log).Error(0)
}

// 認証で使うrepoだけを返す（他は未実装のまま）
type txRepos struct {
	repo.TxRepos
	users     *UserRepoMock
	customers *CustomerRepoMock
	audit     *AuditRepoMock
}

func (r *txRepos) Users() repo.UserRepository         { return r.users }
func (r *txRepos) Customers() repo.CustomerRepository { return r.customers }
func (r *txRepos) AuditLogs() repo.AuditLogRepository { return r.audit }

type TxManagerMock struct {
	repos *txRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.repos)
}

type ValidatorMock struct{ mock.Mock }

func (m *ValidatorMock) ValidateRegister(ctx context.Context, email, password string) error {
	return m.Called(ctx, email, password).Error(0)
}

func (m *ValidatorMock) ValidateLogin(ctx context.Context, email, password string) error {
	return m.Called(ctx, email, password).Error(0)
}

type IssuerMock struct{ mock.Mock }

func (m *IssuerMock) Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (string, time.Time, error) {
	args := m.Called(userID, role, tokenVersion, now)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

type HasherMock struct{ mock.Mock }

func (m *HasherMock) Hash(plain string) (string, error) {
	args := m.Called(plain)
	return args.String(0), args.Error(1)
}

type VerifierMock struct{ mock.Mock }

func (m *VerifierMock) Verify(plain, hashed string) bool {
	return m.Called(plain, hashed).Bool(0)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fixedID struct{ id string }

func (g fixedID) NewID() string { return g.id }
