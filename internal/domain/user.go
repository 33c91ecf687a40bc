package domain

import "time"

// User профиль пользователя; ID выдается провайдером аутентификации
type User struct {
	ID                string
	Name              string
	Email             string
	PhoneNumber       *string
	ProfileImageURL   *string
	FavoriteLocations []string
	BookingHistory    []string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
