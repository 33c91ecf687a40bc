package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when a booking cannot move to the requested status
var ErrInvalidTransition = errors.New("domain: invalid booking status transition")

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusActive    BookingStatus = "ACTIVE"
	StatusCompleted BookingStatus = "COMPLETED"
	StatusCancelled BookingStatus = "CANCELLED"
	StatusExpired   BookingStatus = "EXPIRED"
)

// validTransitions allowed status changes; terminal statuses have no exits
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusActive, StatusCancelled},
	StatusConfirmed: {StatusActive, StatusCancelled},
	StatusActive:    {StatusCompleted, StatusExpired, StatusCancelled},
}

// NonTerminalStatuses statuses that still hold a spot
var NonTerminalStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusActive,
}

// IsValid reports whether s is a known status
func (s BookingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusActive, StatusCompleted, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// IsTerminal returns true for COMPLETED, CANCELLED and EXPIRED
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusExpired
}

// CanTransitionTo reports whether the state machine allows s -> next
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseBookingStatus converts an external value into a BookingStatus
func ParseBookingStatus(v string) (BookingStatus, error) {
	s := BookingStatus(v)
	if !s.IsValid() {
		return "", fmt.Errorf("domain: unknown booking status %q", v)
	}
	return s, nil
}

// Booking represents a reservation of one parking spot for a time range
type Booking struct {
	ID     string
	UserID string

	// Denormalized area and spot data for history
	ParkingAreaID   string
	ParkingAreaName string
	ParkingSpotID   string
	SpotNumber      string

	StartTime time.Time
	EndTime   time.Time
	TotalCost float64

	PaymentMethod *string
	PaymentID     *string
	IsPaid        bool

	Status           BookingStatus
	VehicleNumber    string
	ConfirmationCode string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Transition moves the booking to next, enforcing the state machine
func (b *Booking) Transition(next BookingStatus) error {
	if !b.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, next)
	}
	b.Status = next
	return nil
}

// IsActive returns true while the booking holds its spot
func (b *Booking) IsActive() bool {
	return !b.Status.IsTerminal()
}

// CanBeCancelled returns true if the booking is non-terminal and its end time has not passed
func (b *Booking) CanBeCancelled(now time.Time) bool {
	return !b.Status.IsTerminal() && now.Before(b.EndTime)
}

// CanBeExtended returns true only for ACTIVE bookings
func (b *Booking) CanBeExtended() bool {
	return b.Status == StatusActive
}

// Range returns the booked time range
func (b *Booking) Range() TimeRange {
	return TimeRange{Start: b.StartTime, End: b.EndTime}
}

// BookingWindow selects bookings relative to the current time
type BookingWindow string

const (
	WindowAll      BookingWindow = ""
	WindowUpcoming BookingWindow = "upcoming"
	WindowCurrent  BookingWindow = "current"
	WindowPast     BookingWindow = "past"
)

// ParseBookingWindow converts a query parameter into a BookingWindow
func ParseBookingWindow(v string) (BookingWindow, error) {
	switch w := BookingWindow(v); w {
	case WindowAll, WindowUpcoming, WindowCurrent, WindowPast:
		return w, nil
	}
	return "", fmt.Errorf("domain: unknown booking window %q", v)
}

// BookingFilter фильтр бронирований пользователя
type BookingFilter struct {
	UserID string
	Status *BookingStatus // опционально
	Window BookingWindow  // upcoming: start >= now ASC, current: start <= now <= end, past: end < now DESC
	Now    time.Time
}
