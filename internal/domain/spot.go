package domain

import (
	"strings"
	"time"
)

// SpotFeedRoot корень пути живой ленты доступности мест
const SpotFeedRoot = "parking_spots"

// Типы мест
const (
	SpotTypeRegular     = "REGULAR"
	SpotTypeHandicapped = "HANDICAPPED"
	SpotTypeElectric    = "EV"
	SpotTypeReserved    = "RESERVED"
)

// IsValidSpotType проверяет тип места
func IsValidSpotType(t string) bool {
	switch t {
	case SpotTypeRegular, SpotTypeHandicapped, SpotTypeElectric, SpotTypeReserved:
		return true
	}
	return false
}

// ParkingSpot место на парковке
type ParkingSpot struct {
	ID               string
	ParkingAreaID    string
	SpotNumber       string
	Floor            int
	Section          string
	Available        bool
	Reserved         bool
	Handicapped      bool
	ElectricCharging bool
	PositionX        int
	PositionY        int
	Type             string
	LastUpdated      time.Time
}

// SpotEvent изменение доступности места, рассылаемое подписчикам
type SpotEvent struct {
	ParkingAreaID string    `json:"parkingAreaId"`
	ParkingSpotID string    `json:"parkingSpotId"`
	Available     bool      `json:"available"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Path возвращает путь места в живой ленте
func (e SpotEvent) Path() string {
	return SpotPath(e.ParkingAreaID, e.ParkingSpotID)
}

// SpotPath собирает путь parking_spots/{areaId}/{spotId}
// Пустой spotID дает путь всей парковки
func SpotPath(areaID, spotID string) string {
	parts := []string{SpotFeedRoot, areaID}
	if spotID != "" {
		parts = append(parts, spotID)
	}
	return strings.Join(parts, "/")
}

// CountAvailable считает свободные места в наборе
func CountAvailable(spots []*ParkingSpot) int {
	n := 0
	for _, s := range spots {
		if s.Available {
			n++
		}
	}
	return n
}

// SpotPatch частичное изменение описания места; nil поле не меняется
// Доступность места меняет только леджер бронирований
type SpotPatch struct {
	SpotNumber       *string
	Floor            *int
	Section          *string
	Reserved         *bool
	Handicapped      *bool
	ElectricCharging *bool
	PositionX        *int
	PositionY        *int
	Type             *string
}

// IsEmpty true, если патч ничего не меняет
func (p SpotPatch) IsEmpty() bool {
	return p.SpotNumber == nil && p.Floor == nil && p.Section == nil && p.Reserved == nil &&
		p.Handicapped == nil && p.ElectricCharging == nil && p.PositionX == nil && p.PositionY == nil &&
		p.Type == nil
}
