package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"menswear/internal/domain/model"
	"menswear/internal/repository"
)

const defaultCountry = "US"

type AddressDTO struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Name       string    `json:"name"`
	Line1      string    `json:"line1"`
	Line2      string    `json:"line2"`
	City       string    `json:"city"`
	State      string    `json:"state"`
	PostalCode string    `json:"postal_code"`
	Country    string    `json:"country"`
	Phone      string    `json:"phone"`
	IsDefault  bool      `json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// POST/PUT /me/addresses の本文
type AddressRequest struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

// 前後空白を落とし、州と国は大文字に揃える
func (r AddressRequest) normalize() (AddressRequest, error) {
	for _, f := range []*string{&r.Name, &r.Line1, &r.Line2, &r.City, &r.PostalCode, &r.Phone} {
		*f = strings.TrimSpace(*f)
	}
	r.State = strings.ToUpper(strings.TrimSpace(r.State))
	r.Country = strings.ToUpper(strings.TrimSpace(r.Country))
	if r.Country == "" {
		r.Country = defaultCountry
	}

	switch {
	case r.Name == "" || r.Line1 == "" || r.City == "" || r.State == "" || r.PostalCode == "":
		return r, NewHTTPError(http.StatusBadRequest, "name, line1, city, state and postal_code are required")
	case len(r.Country) != 2:
		return r, NewHTTPError(http.StatusBadRequest, "country must be ISO 3166-1 alpha-2")
	case len(r.PostalCode) > 20 || len(r.Phone) > 30:
		return r, NewHTTPError(http.StatusBadRequest, "invalid postal_code or phone")
	}
	return r, nil
}

func (r AddressRequest) toModel() model.Address {
	return model.Address{
		Name:       r.Name,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
		Phone:      r.Phone,
	}
}

// AddressUsecase は配送先住所の管理です。
// 住所は所有者だけが触れ、既定住所はユーザーごとに1件です。
type AddressUsecase struct {
	addresses repository.AddressRepository
	now       func() time.Time
}

func NewAddressUsecase(addresses repository.AddressRepository) *AddressUsecase {
	return &AddressUsecase{addresses: addresses, now: time.Now}
}

func (u *AddressUsecase) List(ctx context.Context, userID int64) ([]AddressDTO, error) {
	if userID <= 0 {
		return nil, errUnauthorized()
	}

	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errDB()
	}
	out := make([]AddressDTO, len(list))
	for i, a := range list {
		out[i] = addressDTO(a)
	}
	return out, nil
}

func (u *AddressUsecase) Create(ctx context.Context, userID int64, req AddressRequest) (AddressDTO, error) {
	if userID <= 0 {
		return AddressDTO{}, errUnauthorized()
	}
	req, err := req.normalize()
	if err != nil {
		return AddressDTO{}, err
	}

	a := req.toModel()
	a.UserID = userID
	a.CreatedAt = u.now()
	a.UpdatedAt = a.CreatedAt

	created, err := u.addresses.Create(ctx, a)
	if err != nil {
		return AddressDTO{}, errDB()
	}
	return addressDTO(created), nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID int64, addressID int64, req AddressRequest) error {
	if err := u.checkOwner(ctx, userID, addressID); err != nil {
		return err
	}
	req, err := req.normalize()
	if err != nil {
		return err
	}

	a := req.toModel()
	a.ID = addressID
	a.UpdatedAt = u.now()
	if err := u.addresses.Update(ctx, a); err != nil {
		return notFoundOrDB(err)
	}
	return nil
}

// 注文から参照されている住所はFKで消せない
func (u *AddressUsecase) Delete(ctx context.Context, userID int64, addressID int64) error {
	if err := u.checkOwner(ctx, userID, addressID); err != nil {
		return err
	}

	err := u.addresses.Delete(ctx, addressID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return errNotFound()
	default:
		return NewHTTPError(http.StatusConflict, "address in use")
	}
}

func (u *AddressUsecase) SetDefault(ctx context.Context, userID int64, addressID int64) error {
	if err := u.checkOwner(ctx, userID, addressID); err != nil {
		return err
	}
	if err := u.addresses.SetDefault(ctx, userID, addressID); err != nil {
		return notFoundOrDB(err)
	}
	return nil
}

// 無ければ404、他人の住所は403
func (u *AddressUsecase) checkOwner(ctx context.Context, userID, addressID int64) error {
	if err := requireUserAndID(userID, addressID); err != nil {
		return err
	}

	owned, err := u.addresses.IsOwnedByUser(ctx, addressID, userID)
	if err != nil {
		return notFoundOrDB(err)
	}
	if !owned {
		return NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return nil
}

func addressDTO(a model.Address) AddressDTO {
	return AddressDTO{
		ID:         a.ID,
		UserID:     a.UserID,
		Name:       a.Name,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
		IsDefault:  a.IsDefault,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}
