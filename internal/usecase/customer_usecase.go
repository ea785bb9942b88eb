package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"menswear/internal/domain/model"
	repo "menswear/internal/repository"

	"gorm.io/datatypes"
)

type CustomerUsecase struct {
	customers repo.CustomerRepository
	users     repo.UserRepository
}

func NewCustomerUsecase(customers repo.CustomerRepository, users repo.UserRepository) *CustomerUsecase {
	return &CustomerUsecase{customers: customers, users: users}
}

type ProfileInput struct {
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	Phone       string            `json:"phone"`
	SizeProfile model.SizeProfile `json:"size_profile"`
}

type CustomerDetail struct {
	UserID   int64                 `json:"user_id"`
	Email    string                `json:"email"`
	Role     model.Role            `json:"role"`
	IsActive bool                  `json:"is_active"`
	Profile  model.CustomerProfile `json:"profile"`
}

type CustomerListOutput struct {
	Items []repo.CustomerRow `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

func validateSizeProfile(sp model.SizeProfile) error {
	for _, v := range []float64{sp.Chest, sp.Waist, sp.Inseam, sp.Neck, sp.Sleeve, sp.Shoe} {
		if v < 0 || v > 100 {
			return NewHTTPError(http.StatusBadRequest, "invalid size_profile")
		}
	}
	switch sp.Fit {
	case "", "slim", "classic", "relaxed":
	default:
		return NewHTTPError(http.StatusBadRequest, "fit must be slim, classic or relaxed")
	}
	return nil
}

// プロフィールが無い既存ユーザーは空で作る
func (u *CustomerUsecase) GetMyProfile(ctx context.Context, userID int64) (model.CustomerProfile, error) {
	if userID <= 0 {
		return model.CustomerProfile{}, errUnauthorized()
	}

	p, err := u.customers.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		p = model.CustomerProfile{UserID: userID, Tier: model.TierBronze}
		if err := u.customers.Create(ctx, &p); err != nil {
			return model.CustomerProfile{}, errDB()
		}
		return p, nil
	}
	if err != nil {
		return model.CustomerProfile{}, errDB()
	}
	return p, nil
}

func (u *CustomerUsecase) UpdateMyProfile(ctx context.Context, userID int64, in ProfileInput) (model.CustomerProfile, error) {
	p, err := u.GetMyProfile(ctx, userID)
	if err != nil {
		return model.CustomerProfile{}, err
	}

	in.SizeProfile.Fit = strings.ToLower(strings.TrimSpace(in.SizeProfile.Fit))
	if err := validateSizeProfile(in.SizeProfile); err != nil {
		return model.CustomerProfile{}, err
	}
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	phone := strings.TrimSpace(in.Phone)
	if len(first) > 100 || len(last) > 100 || len(phone) > 30 {
		return model.CustomerProfile{}, NewHTTPError(http.StatusBadRequest, "field too long")
	}

	p.FirstName = first
	p.LastName = last
	p.Phone = phone
	p.SizeProfile = datatypes.NewJSONType(in.SizeProfile)

	if err := u.customers.Update(ctx, p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.CustomerProfile{}, errNotFound()
		}
		return model.CustomerProfile{}, errDB()
	}
	return p, nil
}

func (u *CustomerUsecase) AdminList(ctx context.Context, page, limit int, q string, tier string) (CustomerListOutput, error) {
	if err := validatePaging(page, limit, ""); err != nil {
		return CustomerListOutput{}, err
	}
	if len(q) > 100 {
		return CustomerListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}

	f := repo.CustomerListFilter{Page: page, Limit: limit, Q: strings.TrimSpace(q)}
	if tier != "" {
		t, ok := model.ParseTier(strings.ToUpper(strings.TrimSpace(tier)))
		if !ok {
			return CustomerListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid tier")
		}
		f.Tier = &t
	}

	rows, total, err := u.customers.List(ctx, f)
	if err != nil {
		return CustomerListOutput{}, errDB()
	}
	if rows == nil {
		rows = []repo.CustomerRow{}
	}
	return CustomerListOutput{Items: rows, Total: total, Page: page, Limit: limit}, nil
}

func (u *CustomerUsecase) AdminGet(ctx context.Context, userID int64) (CustomerDetail, error) {
	if userID <= 0 {
		return CustomerDetail{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CustomerDetail{}, errNotFound()
	}
	if err != nil {
		return CustomerDetail{}, errDB()
	}

	p, err := u.customers.FindByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		p = model.CustomerProfile{UserID: userID, Tier: model.TierBronze}
	} else if err != nil {
		return CustomerDetail{}, errDB()
	}

	return CustomerDetail{
		UserID:   user.ID,
		Email:    user.Email,
		Role:     user.Role,
		IsActive: user.IsActive,
		Profile:  p,
	}, nil
}
