package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"
	"menswear/internal/usecase"
)

// 会員登録の入力
type RegisterUserInput struct {
	Email    string
	Password string
}

// 会員登録の出力
type RegisterUserOutput struct {
	User UserDTO `json:"user"`
}

// RegisterUserUsecaseは会員登録の処理。
type RegisterUserUsecase struct {
	tx        repo.TransactionManager
	validator Validator
	hasher    PasswordHasher
}

// DI
func NewRegisterUserUsecase(
	tx repo.TransactionManager,
	validator Validator,
	hasher PasswordHasher,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{tx: tx, validator: validator, hasher: hasher}
}

// ユーザーと空の顧客プロフィールを同じtxで作る
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (RegisterUserOutput, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := u.validator.ValidateRegister(ctx, email, in.Password); err != nil {
		return RegisterUserOutput{}, err
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return RegisterUserOutput{}, usecase.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashed,
		Role:         model.RoleUser,
		IsActive:     true,
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// email重複
		if _, err := r.Users().FindByEmail(ctx, email); err == nil {
			return usecase.NewHTTPError(http.StatusConflict, "email already exists")
		} else if !errors.Is(err, repo.ErrNotFound) {
			return usecase.NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Users().Create(ctx, user); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return usecase.NewHTTPError(http.StatusConflict, "email already exists")
			}
			return usecase.NewHTTPError(http.StatusInternalServerError, "db error")
		}

		profile := &model.CustomerProfile{UserID: user.ID, Tier: model.TierBronze}
		if err := r.Customers().Create(ctx, profile); err != nil {
			return usecase.NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return RegisterUserOutput{}, err
	}

	return RegisterUserOutput{User: toUserDTO(user)}, nil
}
