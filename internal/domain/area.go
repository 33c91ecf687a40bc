package domain

import (
	"math"
	"time"
)

// ParkingArea парковка с денормализованным счетчиком свободных мест
type ParkingArea struct {
	ID                  string
	Name                string
	Address             string
	Latitude            float64
	Longitude           float64
	TotalSpots          int
	AvailableSpots      int
	ImageURL            *string
	HourlyRate          float64
	OperatingHours      string
	Amenities           []string
	HasCoveredParking   bool
	HasDisabledAccess   bool
	HasElectricCharging bool
	Rating              float64
	NumberOfRatings     int
	LastUpdated         time.Time

	// Favorite накладывается сервисом для конкретного пользователя, в хранилище не пишется
	Favorite bool
}

// ClampAvailable приводит значение к диапазону 0..TotalSpots
func (a *ParkingArea) ClampAvailable(v int) int {
	if v < 0 {
		return 0
	}
	if v > a.TotalSpots {
		return a.TotalSpots
	}
	return v
}

// DistanceSquared квадрат расстояния в градусах до точки
func (a *ParkingArea) DistanceSquared(lat, lng float64) float64 {
	dLat := a.Latitude - lat
	dLng := a.Longitude - lng
	return dLat*dLat + dLng*dLng
}

// NearbyFilter параметры поиска парковок рядом
type NearbyFilter struct {
	Latitude      float64
	Longitude     float64
	RadiusKm      float64
	MaxHourlyRate *float64
	NeedsEV       bool
	NeedsDisabled bool
}

// HasConstraints true, если задан хотя бы один фильтр кроме радиуса
// В этом случае в выдачу попадают только парковки со свободными местами
func (f NearbyFilter) HasConstraints() bool {
	return f.MaxHourlyRate != nil || f.NeedsEV || f.NeedsDisabled
}

// RadiusSquared квадрат радиуса в градусах
func (f NearbyFilter) RadiusSquared() float64 {
	deg := f.RadiusKm / KmPerDegree
	return deg * deg
}

// Normalize подставляет радиус по умолчанию и ограничивает максимальный
func (f NearbyFilter) Normalize() NearbyFilter {
	if f.RadiusKm <= 0 || math.IsNaN(f.RadiusKm) {
		f.RadiusKm = DefaultSearchRadiusKm
	}
	if f.RadiusKm > MaxSearchRadiusKm {
		f.RadiusKm = MaxSearchRadiusKm
	}
	return f
}

// Matches проверяет парковку на соответствие фильтру
func (f NearbyFilter) Matches(a *ParkingArea) bool {
	if a.DistanceSquared(f.Latitude, f.Longitude) > f.RadiusSquared() {
		return false
	}
	if !f.HasConstraints() {
		return true
	}
	if a.AvailableSpots <= 0 {
		return false
	}
	if f.MaxHourlyRate != nil && a.HourlyRate > *f.MaxHourlyRate {
		return false
	}
	if f.NeedsEV && !a.HasElectricCharging {
		return false
	}
	if f.NeedsDisabled && !a.HasDisabledAccess {
		return false
	}
	return true
}

// AreaPatch частичное изменение парковки; nil поле не меняется
// Счетчики мест сюда не входят: их меняют только бронирования и добавление/удаление мест
type AreaPatch struct {
	Name                *string
	Address             *string
	Latitude            *float64
	Longitude           *float64
	ImageURL            *string
	HourlyRate          *float64
	OperatingHours      *string
	Amenities           *[]string
	HasCoveredParking   *bool
	HasDisabledAccess   *bool
	HasElectricCharging *bool
}

// IsEmpty true, если патч ничего не меняет
func (p AreaPatch) IsEmpty() bool {
	return p.Name == nil && p.Address == nil && p.Latitude == nil && p.Longitude == nil &&
		p.ImageURL == nil && p.HourlyRate == nil && p.OperatingHours == nil && p.Amenities == nil &&
		p.HasCoveredParking == nil && p.HasDisabledAccess == nil && p.HasElectricCharging == nil
}

// IsValidRating оценка от MinRating до MaxRating включительно
func IsValidRating(score float64) bool {
	return !math.IsNaN(score) && score >= MinRating && score <= MaxRating
}
