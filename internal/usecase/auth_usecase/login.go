package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"
	"menswear/internal/usecase"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
}

// handlerがJSONにして返す
type LoginOutput struct {
	User  UserDTO        `json:"user"`
	Token JwtAccessToken `json:"token"`
}

// handlerがCookieに詰めるために必要な値
type LoginSideEffect struct {
	PlainRefreshToken string
	RefreshExpiresAt  time.Time
}

type LoginUsecase struct {
	userRepo   repo.UserRepository
	rtRepo     repo.RefreshTokenRepository
	validator  Validator
	verifier   PasswordVerifier
	issuer     AccessTokenIssuer
	idGen      IDGenerator
	clock      Clock
	refreshTTL time.Duration
}

func NewLoginUsecase(
	userRepo repo.UserRepository,
	rtRepo repo.RefreshTokenRepository,
	validator Validator,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	idGen IDGenerator,
	clock Clock,
	refreshTTL time.Duration,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo:   userRepo,
		rtRepo:     rtRepo,
		validator:  validator,
		verifier:   verifier,
		issuer:     issuer,
		idGen:      idGen,
		clock:      clock,
		refreshTTL: refreshTTL,
	}
}

func errInvalidCredentials() error {
	return usecase.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, LoginSideEffect, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := u.validator.ValidateLogin(ctx, email, in.Password); err != nil {
		return LoginOutput{}, LoginSideEffect{}, err
	}

	user, err := u.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return LoginOutput{}, LoginSideEffect{}, errInvalidCredentials()
	}
	if err != nil {
		return LoginOutput{}, LoginSideEffect{}, usecase.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//パスワード照合を先に行い、停止中かどうかを漏らさない
	if !u.verifier.Verify(in.Password, user.PasswordHash) {
		return LoginOutput{}, LoginSideEffect{}, errInvalidCredentials()
	}
	if !user.IsActive {
		return LoginOutput{}, LoginSideEffect{}, usecase.NewHTTPError(http.StatusForbidden, "user is inactive")
	}

	now := u.clock.Now()
	token, side, err := issueTokenPair(ctx, u.rtRepo, u.issuer, u.idGen, u.refreshTTL, user, in.UserAgent, now)
	if err != nil {
		return LoginOutput{}, LoginSideEffect{}, err
	}

	//最終ログイン時刻更新
	user.LastLoginAt = &now
	if err := u.userRepo.Update(ctx, user); err != nil {
		return LoginOutput{}, LoginSideEffect{}, usecase.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return LoginOutput{User: toUserDTO(user), Token: token}, side, nil
}

// アクセストークンとリフレッシュトークンを発行する
func issueTokenPair(
	ctx context.Context,
	rtRepo repo.RefreshTokenRepository,
	issuer AccessTokenIssuer,
	idGen IDGenerator,
	refreshTTL time.Duration,
	user *model.User,
	userAgent string,
	now time.Time,
) (JwtAccessToken, LoginSideEffect, error) {
	accessToken, accessExp, err := issuer.Issue(user.ID, user.Role, user.TokenVersion, now)
	if err != nil {
		return JwtAccessToken{}, LoginSideEffect{}, usecase.NewHTTPError(http.StatusInternalServerError, "token error")
	}

	plain, hash, err := newRandomTokenAndHash()
	if err != nil {
		return JwtAccessToken{}, LoginSideEffect{}, usecase.NewHTTPError(http.StatusInternalServerError, "token error")
	}

	rt := &model.RefreshToken{
		ID:        idGen.NewID(),
		UserID:    user.ID,
		TokenHash: hash,
		UserAgent: userAgent,
		ExpiresAt: now.Add(refreshTTL),
	}
	if err := rtRepo.Create(ctx, rt); err != nil {
		return JwtAccessToken{}, LoginSideEffect{}, usecase.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return JwtAccessToken{
			AccessToken:  accessToken,
			ExpiresIn:    int(accessExp.Sub(now).Seconds()),
			TokenVersion: user.TokenVersion,
		}, LoginSideEffect{
			PlainRefreshToken: plain,
			RefreshExpiresAt:  rt.ExpiresAt,
		}, nil
}
