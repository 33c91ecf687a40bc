package models

import (
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// Источник данных ответа
const (
	SourceRemote = "remote"
	SourceCache  = "cache"
)

// CreateUserRequest запрос на создание профиля
// ID берется из токена, в теле не передается
type CreateUserRequest struct {
	ID              string  `json:"-"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	PhoneNumber     *string `json:"phoneNumber,omitempty"`
	ProfileImageURL *string `json:"profileImageUrl,omitempty"`
}

// UpdateUserRequest частичное обновление профиля: nil поля не меняются
type UpdateUserRequest struct {
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty"`
	PhoneNumber     *string `json:"phoneNumber,omitempty"`
	ProfileImageURL *string `json:"profileImageUrl,omitempty"`
}

// UserResponse ответ с профилем
type UserResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	PhoneNumber       *string   `json:"phoneNumber,omitempty"`
	ProfileImageURL   *string   `json:"profileImageUrl,omitempty"`
	FavoriteLocations []string  `json:"favoriteLocations"`
	BookingHistory    []string  `json:"bookingHistory"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
	Source            string    `json:"source,omitempty"`
}

// FromDomainUser конвертирует domain модель в DTO
func FromDomainUser(u *domain.User, source string) *UserResponse {
	if u == nil {
		return nil
	}

	return &UserResponse{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		PhoneNumber:       u.PhoneNumber,
		ProfileImageURL:   u.ProfileImageURL,
		FavoriteLocations: nonNil(u.FavoriteLocations),
		BookingHistory:    nonNil(u.BookingHistory),
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
		Source:            source,
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
