package cache

import (
	"time"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
)

type bookingEntity struct {
	ID               string    `gorm:"primaryKey;type:varchar(64)"`
	UserID           string    `gorm:"type:varchar(128);index;not null"`
	ParkingAreaID    string    `gorm:"type:varchar(64);not null"`
	ParkingAreaName  string    `gorm:"type:varchar(255)"`
	ParkingSpotID    string    `gorm:"type:varchar(64);not null"`
	SpotNumber       string    `gorm:"type:varchar(32)"`
	StartTime        time.Time `gorm:"not null"`
	EndTime          time.Time `gorm:"not null"`
	TotalCost        float64
	PaymentMethod    *string `gorm:"type:varchar(32)"`
	PaymentID        *string `gorm:"type:varchar(128)"`
	IsPaid           bool
	Status           string `gorm:"type:varchar(16);index"`
	VehicleNumber    string `gorm:"type:varchar(32)"`
	ConfirmationCode string `gorm:"type:varchar(8)"`
	CreatedAt        time.Time
	UpdatedAt        time.Time `gorm:"autoUpdateTime:false"`
	Synced           bool
}

func (bookingEntity) TableName() string { return "cached_bookings" }

func (e bookingEntity) version() time.Time { return e.UpdatedAt }

type areaEntity struct {
	ID                  string  `gorm:"primaryKey;type:varchar(64)"`
	Name                string  `gorm:"type:varchar(255)"`
	Address             string  `gorm:"type:varchar(255)"`
	Latitude            float64 `gorm:"index:idx_cached_area_location"`
	Longitude           float64 `gorm:"index:idx_cached_area_location"`
	TotalSpots          int
	AvailableSpots      int
	ImageURL            *string `gorm:"type:varchar(512)"`
	HourlyRate          float64
	OperatingHours      string   `gorm:"type:varchar(128)"`
	Amenities           []string `gorm:"serializer:json;type:text"`
	HasCoveredParking   bool
	HasDisabledAccess   bool
	HasElectricCharging bool
	Rating              float64
	NumberOfRatings     int
	LastUpdated         time.Time
}

func (areaEntity) TableName() string { return "cached_parking_areas" }

func (e areaEntity) version() time.Time { return e.LastUpdated }

type spotEntity struct {
	ID               string `gorm:"primaryKey;type:varchar(64)"`
	ParkingAreaID    string `gorm:"type:varchar(64);index;not null"`
	SpotNumber       string `gorm:"type:varchar(32)"`
	Floor            int
	Section          string `gorm:"type:varchar(32)"`
	Available        bool
	Reserved         bool
	Handicapped      bool
	ElectricCharging bool
	PositionX        int
	PositionY        int
	Type             string `gorm:"type:varchar(32)"`
	LastUpdated      time.Time
}

func (spotEntity) TableName() string { return "cached_parking_spots" }

func (e spotEntity) version() time.Time { return e.LastUpdated }

type userEntity struct {
	ID                string   `gorm:"primaryKey;type:varchar(128)"`
	Name              string   `gorm:"type:varchar(255)"`
	Email             string   `gorm:"type:varchar(255)"`
	PhoneNumber       *string  `gorm:"type:varchar(32)"`
	ProfileImageURL   *string  `gorm:"type:varchar(512)"`
	FavoriteLocations []string `gorm:"serializer:json;type:text"`
	BookingHistory    []string `gorm:"serializer:json;type:text"`
	CreatedAt         time.Time
	UpdatedAt         time.Time `gorm:"autoUpdateTime:false"`
}

func (userEntity) TableName() string { return "cached_users" }

func (e userEntity) version() time.Time { return e.UpdatedAt }

func newBookingEntity(b *domain.Booking) bookingEntity {
	return bookingEntity{
		ID:               b.ID,
		UserID:           b.UserID,
		ParkingAreaID:    b.ParkingAreaID,
		ParkingAreaName:  b.ParkingAreaName,
		ParkingSpotID:    b.ParkingSpotID,
		SpotNumber:       b.SpotNumber,
		StartTime:        b.StartTime.UTC(),
		EndTime:          b.EndTime.UTC(),
		TotalCost:        b.TotalCost,
		PaymentMethod:    cloneString(b.PaymentMethod),
		PaymentID:        cloneString(b.PaymentID),
		IsPaid:           b.IsPaid,
		Status:           string(b.Status),
		VehicleNumber:    b.VehicleNumber,
		ConfirmationCode: b.ConfirmationCode,
		CreatedAt:        b.CreatedAt.UTC(),
		UpdatedAt:        b.UpdatedAt.UTC(),
		Synced:           true,
	}
}

func (e *bookingEntity) toDomain() *domain.Booking {
	return &domain.Booking{
		ID:               e.ID,
		UserID:           e.UserID,
		ParkingAreaID:    e.ParkingAreaID,
		ParkingAreaName:  e.ParkingAreaName,
		ParkingSpotID:    e.ParkingSpotID,
		SpotNumber:       e.SpotNumber,
		StartTime:        e.StartTime,
		EndTime:          e.EndTime,
		TotalCost:        e.TotalCost,
		PaymentMethod:    e.PaymentMethod,
		PaymentID:        e.PaymentID,
		IsPaid:           e.IsPaid,
		Status:           domain.BookingStatus(e.Status),
		VehicleNumber:    e.VehicleNumber,
		ConfirmationCode: e.ConfirmationCode,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func newAreaEntity(a *domain.ParkingArea) areaEntity {
	return areaEntity{
		ID:                  a.ID,
		Name:                a.Name,
		Address:             a.Address,
		Latitude:            a.Latitude,
		Longitude:           a.Longitude,
		TotalSpots:          a.TotalSpots,
		AvailableSpots:      a.AvailableSpots,
		ImageURL:            cloneString(a.ImageURL),
		HourlyRate:          a.HourlyRate,
		OperatingHours:      a.OperatingHours,
		Amenities:           append([]string(nil), a.Amenities...),
		HasCoveredParking:   a.HasCoveredParking,
		HasDisabledAccess:   a.HasDisabledAccess,
		HasElectricCharging: a.HasElectricCharging,
		Rating:              a.Rating,
		NumberOfRatings:     a.NumberOfRatings,
		LastUpdated:         a.LastUpdated.UTC(),
	}
}

func (e *areaEntity) toDomain() *domain.ParkingArea {
	return &domain.ParkingArea{
		ID:                  e.ID,
		Name:                e.Name,
		Address:             e.Address,
		Latitude:            e.Latitude,
		Longitude:           e.Longitude,
		TotalSpots:          e.TotalSpots,
		AvailableSpots:      e.AvailableSpots,
		ImageURL:            e.ImageURL,
		HourlyRate:          e.HourlyRate,
		OperatingHours:      e.OperatingHours,
		Amenities:           e.Amenities,
		HasCoveredParking:   e.HasCoveredParking,
		HasDisabledAccess:   e.HasDisabledAccess,
		HasElectricCharging: e.HasElectricCharging,
		Rating:              e.Rating,
		NumberOfRatings:     e.NumberOfRatings,
		LastUpdated:         e.LastUpdated,
	}
}

func newSpotEntity(s *domain.ParkingSpot) spotEntity {
	return spotEntity{
		ID:               s.ID,
		ParkingAreaID:    s.ParkingAreaID,
		SpotNumber:       s.SpotNumber,
		Floor:            s.Floor,
		Section:          s.Section,
		Available:        s.Available,
		Reserved:         s.Reserved,
		Handicapped:      s.Handicapped,
		ElectricCharging: s.ElectricCharging,
		PositionX:        s.PositionX,
		PositionY:        s.PositionY,
		Type:             s.Type,
		LastUpdated:      s.LastUpdated.UTC(),
	}
}

func (e *spotEntity) toDomain() *domain.ParkingSpot {
	return &domain.ParkingSpot{
		ID:               e.ID,
		ParkingAreaID:    e.ParkingAreaID,
		SpotNumber:       e.SpotNumber,
		Floor:            e.Floor,
		Section:          e.Section,
		Available:        e.Available,
		Reserved:         e.Reserved,
		Handicapped:      e.Handicapped,
		ElectricCharging: e.ElectricCharging,
		PositionX:        e.PositionX,
		PositionY:        e.PositionY,
		Type:             e.Type,
		LastUpdated:      e.LastUpdated,
	}
}

func newUserEntity(u *domain.User) userEntity {
	return userEntity{
		ID:                u.ID,
		Name:              u.Name,
		Email:             u.Email,
		PhoneNumber:       cloneString(u.PhoneNumber),
		ProfileImageURL:   cloneString(u.ProfileImageURL),
		FavoriteLocations: append([]string(nil), u.FavoriteLocations...),
		BookingHistory:    append([]string(nil), u.BookingHistory...),
		CreatedAt:         u.CreatedAt.UTC(),
		UpdatedAt:         u.UpdatedAt.UTC(),
	}
}

func (e *userEntity) toDomain() *domain.User {
	return &domain.User{
		ID:                e.ID,
		Name:              e.Name,
		Email:             e.Email,
		PhoneNumber:       e.PhoneNumber,
		ProfileImageURL:   e.ProfileImageURL,
		FavoriteLocations: e.FavoriteLocations,
		BookingHistory:    e.BookingHistory,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
