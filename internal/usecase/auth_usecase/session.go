package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"
	"menswear/internal/usecase"
)

// ログイン後のトークン操作（refresh / logout / me / 強制ログアウト）
type SessionUsecase struct {
	tx         repo.TransactionManager
	userRepo   repo.UserRepository
	rtRepo     repo.RefreshTokenRepository
	issuer     AccessTokenIssuer
	idGen      IDGenerator
	clock      Clock
	refreshTTL time.Duration
}

func NewSessionUsecase(
	tx repo.TransactionManager,
	userRepo repo.UserRepository,
	rtRepo repo.RefreshTokenRepository,
	issuer AccessTokenIssuer,
	idGen IDGenerator,
	clock Clock,
	refreshTTL time.Duration,
) *SessionUsecase {
	return &SessionUsecase{
		tx:         tx,
		userRepo:   userRepo,
		rtRepo:     rtRepo,
		issuer:     issuer,
		idGen:      idGen,
		clock:      clock,
		refreshTTL: refreshTTL,
	}
}

type RefreshInput struct {
	PlainRefreshToken string
	UserAgent         string
}

type RefreshOutput struct {
	Token JwtAccessToken `json:"token"`
}

type ForceLogoutOutput struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

func errDB() error {
	return usecase.NewHTTPError(http.StatusInternalServerError, "db error")
}

// 使用済みトークンの再利用・UA不一致は全トークン失効
func (u *SessionUsecase) securityIncident(ctx context.Context, userID int64) error {
	if err := u.rtRepo.DeleteAllByUserID(ctx, userID); err != nil {
		return errDB()
	}
	return usecase.NewHTTPError(http.StatusUnauthorized, "security incident")
}

// リフレッシュトークンのローテーション
func (u *SessionUsecase) Refresh(ctx context.Context, in RefreshInput) (RefreshOutput, LoginSideEffect, error) {
	if in.PlainRefreshToken == "" {
		return RefreshOutput{}, LoginSideEffect{}, usecase.NewHTTPError(http.StatusUnauthorized, "refresh token required")
	}

	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(in.PlainRefreshToken))
	if errors.Is(err, repo.ErrRefreshTokenNotFound) {
		return RefreshOutput{}, LoginSideEffect{}, usecase.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if err != nil {
		return RefreshOutput{}, LoginSideEffect{}, errDB()
	}

	if rt.UsedAt != nil || rt.RevokedAt != nil || rt.UserAgent != in.UserAgent {
		return RefreshOutput{}, LoginSideEffect{}, u.securityIncident(ctx, rt.UserID)
	}

	now := u.clock.Now()
	if !now.Before(rt.ExpiresAt) {
		if err := u.rtRepo.DeleteByID(ctx, rt.ID); err != nil && !errors.Is(err, repo.ErrRefreshTokenNotFound) {
			return RefreshOutput{}, LoginSideEffect{}, errDB()
		}
		return RefreshOutput{}, LoginSideEffect{}, usecase.NewHTTPError(http.StatusUnauthorized, "refresh token expired")
	}

	user, err := u.userRepo.FindByID(ctx, rt.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return RefreshOutput{}, LoginSideEffect{}, usecase.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}
	if err != nil {
		return RefreshOutput{}, LoginSideEffect{}, errDB()
	}
	if !user.IsActive {
		if err := u.rtRepo.DeleteAllByUserID(ctx, user.ID); err != nil {
			return RefreshOutput{}, LoginSideEffect{}, errDB()
		}
		return RefreshOutput{}, LoginSideEffect{}, usecase.NewHTTPError(http.StatusForbidden, "user is inactive")
	}

	// 同時リクエストで先に使われていたら再利用扱い
	if err := u.rtRepo.MarkUsed(ctx, rt.ID, now); err != nil {
		if errors.Is(err, repo.ErrRefreshTokenNotFound) {
			return RefreshOutput{}, LoginSideEffect{}, u.securityIncident(ctx, rt.UserID)
		}
		return RefreshOutput{}, LoginSideEffect{}, errDB()
	}

	token, side, err := issueTokenPair(ctx, u.rtRepo, u.issuer, u.idGen, u.refreshTTL, user, in.UserAgent, now)
	if err != nil {
		return RefreshOutput{}, LoginSideEffect{}, err
	}
	return RefreshOutput{Token: token}, side, nil
}

// トークンが無い・見つからない場合も成功扱い
func (u *SessionUsecase) Logout(ctx context.Context, plainRefreshToken string) error {
	if plainRefreshToken == "" {
		return nil
	}
	rt, err := u.rtRepo.FindByTokenHash(ctx, hashToken(plainRefreshToken))
	if errors.Is(err, repo.ErrRefreshTokenNotFound) {
		return nil
	}
	if err != nil {
		return errDB()
	}
	if err := u.rtRepo.DeleteByID(ctx, rt.ID); err != nil && !errors.Is(err, repo.ErrRefreshTokenNotFound) {
		return errDB()
	}
	return nil
}

func (u *SessionUsecase) Me(ctx context.Context, userID int64) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, usecase.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	user, err := u.userRepo.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return UserDTO{}, usecase.NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return UserDTO{}, errDB()
	}
	return toUserDTO(user), nil
}

// token_versionを上げて既存のアクセストークンを無効化する
func (u *SessionUsecase) ForceLogout(ctx context.Context, actorUserID, targetUserID int64) (ForceLogoutOutput, error) {
	if actorUserID <= 0 {
		return ForceLogoutOutput{}, usecase.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if targetUserID <= 0 {
		return ForceLogoutOutput{}, usecase.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out ForceLogoutOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Users().FindByID(ctx, targetUserID)
		if errors.Is(err, repo.ErrNotFound) {
			return usecase.NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return errDB()
		}

		if err := r.Users().IncrementTokenVersion(ctx, targetUserID); err != nil {
			return errDB()
		}
		out = ForceLogoutOutput{UserID: targetUserID, NewTokenVersion: before.TokenVersion + 1}

		beforeJSON, _ := json.Marshal(map[string]int{"token_version": before.TokenVersion})
		afterJSON, _ := json.Marshal(map[string]int{"token_version": out.NewTokenVersion})
		err = r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionForceLogout,
			ResourceType: model.AuditResourceUser,
			ResourceID:   targetUserID,
			BeforeJSON:   string(beforeJSON),
			AfterJSON:    string(afterJSON),
			CreatedAt:    u.clock.Now(),
		})
		if err != nil {
			return errDB()
		}
		return nil
	})
	if err != nil {
		return ForceLogoutOutput{}, err
	}

	if err := u.rtRepo.DeleteAllByUserID(ctx, targetUserID); err != nil {
		return ForceLogoutOutput{}, errDB()
	}
	return out, nil
}
