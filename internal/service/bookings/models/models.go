package models

import (
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

// Источник данных ответа
const (
	SourceRemote = "remote" // основное хранилище
	SourceCache  = "cache"  // локальная реплика, основное хранилище недоступно
)

// Request модели

// GetUserBookingsRequest запрос на получение бронирований пользователя
type GetUserBookingsRequest struct {
	UserID string  `json:"userId"`
	Status *string `json:"status,omitempty"` // Фильтр по статусу (опционально)
	Window *string `json:"window,omitempty"` // upcoming, current, past (опционально)
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID              string `json:"id"`
	UserID          string `json:"userId"`
	ParkingAreaID   string `json:"parkingAreaId"`
	ParkingAreaName string `json:"parkingAreaName"`
	ParkingSpotID   string `json:"parkingSpotId"`
	SpotNumber      string `json:"spotNumber"`

	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	DurationHours int       `json:"durationHours"`
	DurationMins  int       `json:"durationMinutes"`
	TotalCost     float64   `json:"totalCost"`

	PaymentMethod *string `json:"paymentMethod,omitempty"`
	PaymentID     *string `json:"paymentId,omitempty"`
	IsPaid        bool    `json:"isPaid"`

	Status           string `json:"status"`
	VehicleNumber    string `json:"vehicleNumber"`
	ConfirmationCode string `json:"confirmationCode"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Source string `json:"source,omitempty"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Source   string            `json:"source"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	hours, minutes := b.Range().DurationParts()

	return &BookingResponse{
		ID:               b.ID,
		UserID:           b.UserID,
		ParkingAreaID:    b.ParkingAreaID,
		ParkingAreaName:  b.ParkingAreaName,
		ParkingSpotID:    b.ParkingSpotID,
		SpotNumber:       b.SpotNumber,
		StartTime:        b.StartTime,
		EndTime:          b.EndTime,
		DurationHours:    hours,
		DurationMins:     minutes,
		TotalCost:        b.TotalCost,
		PaymentMethod:    b.PaymentMethod,
		PaymentID:        b.PaymentID,
		IsPaid:           b.IsPaid,
		Status:           string(b.Status),
		VehicleNumber:    b.VehicleNumber,
		ConfirmationCode: b.ConfirmationCode,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking, source string) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
		Source:   source,
	}

	for _, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings = append(resp.Bookings, *bookingResp)
		}
	}

	return resp
}
