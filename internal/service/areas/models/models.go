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

// Request модели

// NearbyRequest поиск парковок рядом с точкой
type NearbyRequest struct {
	UserID        string   `json:"-"` // для отметки избранного, может быть пустым
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	RadiusKm      float64  `json:"radiusKm"`
	MaxHourlyRate *float64 `json:"maxHourlyRate,omitempty"`
	NeedsEV       bool     `json:"needsEv"`
	NeedsDisabled bool     `json:"needsDisabled"`
}

// ToDomainFilter конвертирует запрос в domain фильтр
func (r *NearbyRequest) ToDomainFilter() domain.NearbyFilter {
	return domain.NearbyFilter{
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		RadiusKm:      r.RadiusKm,
		MaxHourlyRate: r.MaxHourlyRate,
		NeedsEV:       r.NeedsEV,
		NeedsDisabled: r.NeedsDisabled,
	}.Normalize()
}

// CreateSpotRequest место в запросе на создание парковки
type CreateSpotRequest struct {
	SpotNumber       string `json:"spotNumber"`
	Floor            int    `json:"floor"`
	Section          string `json:"section"`
	Available        *bool  `json:"available,omitempty"` // только true: место создается свободным
	Reserved         bool   `json:"reserved"`
	Handicapped      bool   `json:"handicapped"`
	ElectricCharging bool   `json:"electricCharging"`
	PositionX        int    `json:"positionX"`
	PositionY        int    `json:"positionY"`
	Type             string `json:"type"` // по умолчанию REGULAR
}

// CreateAreaRequest запрос на создание парковки вместе с местами
type CreateAreaRequest struct {
	Name                string              `json:"name"`
	Address             string              `json:"address"`
	Latitude            float64             `json:"latitude"`
	Longitude           float64             `json:"longitude"`
	ImageURL            *string             `json:"imageUrl,omitempty"`
	HourlyRate          float64             `json:"hourlyRate"`
	OperatingHours      string              `json:"operatingHours"`
	Amenities           []string            `json:"amenities"`
	HasCoveredParking   bool                `json:"hasCoveredParking"`
	HasDisabledAccess   bool                `json:"hasDisabledAccess"`
	HasElectricCharging bool                `json:"hasElectricCharging"`
	Spots               []CreateSpotRequest `json:"spots"`
}

// SearchRequest текстовый поиск по названию и адресу
type SearchRequest struct {
	UserID string `json:"-"`
	Query  string `json:"q"`
	Limit  int    `json:"limit"` // 0 - размер по умолчанию
}

// RateRequest оценка парковки
type RateRequest struct {
	Rating float64 `json:"rating"`
}

// UpdateAreaRequest частичное изменение парковки; отсутствующие поля не меняются
type UpdateAreaRequest struct {
	Name                *string   `json:"name,omitempty"`
	Address             *string   `json:"address,omitempty"`
	Latitude            *float64  `json:"latitude,omitempty"`
	Longitude           *float64  `json:"longitude,omitempty"`
	ImageURL            *string   `json:"imageUrl,omitempty"`
	HourlyRate          *float64  `json:"hourlyRate,omitempty"`
	OperatingHours      *string   `json:"operatingHours,omitempty"`
	Amenities           *[]string `json:"amenities,omitempty"`
	HasCoveredParking   *bool     `json:"hasCoveredParking,omitempty"`
	HasDisabledAccess   *bool     `json:"hasDisabledAccess,omitempty"`
	HasElectricCharging *bool     `json:"hasElectricCharging,omitempty"`
}

// ToDomainPatch конвертирует запрос в domain патч
func (r *UpdateAreaRequest) ToDomainPatch() domain.AreaPatch {
	return domain.AreaPatch{
		Name:                r.Name,
		Address:             r.Address,
		Latitude:            r.Latitude,
		Longitude:           r.Longitude,
		ImageURL:            r.ImageURL,
		HourlyRate:          r.HourlyRate,
		OperatingHours:      r.OperatingHours,
		Amenities:           r.Amenities,
		HasCoveredParking:   r.HasCoveredParking,
		HasDisabledAccess:   r.HasDisabledAccess,
		HasElectricCharging: r.HasElectricCharging,
	}
}

// UpdateSpotRequest частичное изменение места
// Доступность не редактируется: ее меняют только бронирования
type UpdateSpotRequest struct {
	SpotNumber       *string `json:"spotNumber,omitempty"`
	Floor            *int    `json:"floor,omitempty"`
	Section          *string `json:"section,omitempty"`
	Reserved         *bool   `json:"reserved,omitempty"`
	Handicapped      *bool   `json:"handicapped,omitempty"`
	ElectricCharging *bool   `json:"electricCharging,omitempty"`
	PositionX        *int    `json:"positionX,omitempty"`
	PositionY        *int    `json:"positionY,omitempty"`
	Type             *string `json:"type,omitempty"`
}

// ToDomainPatch конвертирует запрос в domain патч
func (r *UpdateSpotRequest) ToDomainPatch() domain.SpotPatch {
	return domain.SpotPatch{
		SpotNumber:       r.SpotNumber,
		Floor:            r.Floor,
		Section:          r.Section,
		Reserved:         r.Reserved,
		Handicapped:      r.Handicapped,
		ElectricCharging: r.ElectricCharging,
		PositionX:        r.PositionX,
		PositionY:        r.PositionY,
		Type:             r.Type,
	}
}

// Response модели

// AreaResponse ответ с данными парковки
type AreaResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Address             string    `json:"address"`
	Latitude            float64   `json:"latitude"`
	Longitude           float64   `json:"longitude"`
	TotalSpots          int       `json:"totalSpots"`
	AvailableSpots      int       `json:"availableSpots"`
	ImageURL            *string   `json:"imageUrl,omitempty"`
	HourlyRate          float64   `json:"hourlyRate"`
	OperatingHours      string    `json:"operatingHours"`
	Amenities           []string  `json:"amenities"`
	HasCoveredParking   bool      `json:"hasCoveredParking"`
	HasDisabledAccess   bool      `json:"hasDisabledAccess"`
	HasElectricCharging bool      `json:"hasElectricCharging"`
	Rating              float64   `json:"rating"`
	NumberOfRatings     int       `json:"numberOfRatings"`
	LastUpdated         time.Time `json:"lastUpdated"`
	Favorite            bool      `json:"favorite"`
	Source              string    `json:"source,omitempty"`
}

// AreaListResponse ответ со списком парковок
type AreaListResponse struct {
	Areas  []AreaResponse `json:"areas"`
	Source string         `json:"source"`
}

// SpotResponse ответ с данными места
type SpotResponse struct {
	ID               string    `json:"id"`
	ParkingAreaID    string    `json:"parkingAreaId"`
	SpotNumber       string    `json:"spotNumber"`
	Floor            int       `json:"floor"`
	Section          string    `json:"section"`
	Available        bool      `json:"available"`
	Reserved         bool      `json:"reserved"`
	Handicapped      bool      `json:"handicapped"`
	ElectricCharging bool      `json:"electricCharging"`
	PositionX        int       `json:"positionX"`
	PositionY        int       `json:"positionY"`
	Type             string    `json:"type"`
	LastUpdated      time.Time `json:"lastUpdated"`
}

// SpotListResponse места парковки
type SpotListResponse struct {
	ParkingAreaID  string         `json:"parkingAreaId"`
	AvailableSpots int            `json:"availableSpots"`
	Spots          []SpotResponse `json:"spots"`
	Source         string         `json:"source"`
}

// QuoteResponse предварительный расчет стоимости
type QuoteResponse struct {
	ParkingAreaID string    `json:"parkingAreaId"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	DurationHours float64   `json:"durationHours"`
	Hours         int       `json:"hours"`
	Minutes       int       `json:"minutes"`
	HourlyRate    float64   `json:"hourlyRate"`
	TotalCost     float64   `json:"totalCost"`
}

// RatingResponse итог оценок парковки после новой оценки
type RatingResponse struct {
	ParkingAreaID   string  `json:"parkingAreaId"`
	Rating          float64 `json:"rating"`
	NumberOfRatings int     `json:"numberOfRatings"`
}

// FavoritesResponse избранные парковки пользователя
type FavoritesResponse struct {
	UserID  string   `json:"userId"`
	AreaIDs []string `json:"areaIds"`
}

// Методы конвертации

// FromDomainArea конвертирует domain модель в DTO
func FromDomainArea(a *domain.ParkingArea) *AreaResponse {
	if a == nil {
		return nil
	}

	amenities := a.Amenities
	if amenities == nil {
		amenities = []string{}
	}

	return &AreaResponse{
		ID:                  a.ID,
		Name:                a.Name,
		Address:             a.Address,
		Latitude:            a.Latitude,
		Longitude:           a.Longitude,
		TotalSpots:          a.TotalSpots,
		AvailableSpots:      a.AvailableSpots,
		ImageURL:            a.ImageURL,
		HourlyRate:          a.HourlyRate,
		OperatingHours:      a.OperatingHours,
		Amenities:           amenities,
		HasCoveredParking:   a.HasCoveredParking,
		HasDisabledAccess:   a.HasDisabledAccess,
		HasElectricCharging: a.HasElectricCharging,
		Rating:              a.Rating,
		NumberOfRatings:     a.NumberOfRatings,
		LastUpdated:         a.LastUpdated,
		Favorite:            a.Favorite,
	}
}

// FromDomainAreaList конвертирует список парковок в DTO
func FromDomainAreaList(areas []*domain.ParkingArea, source string) *AreaListResponse {
	resp := &AreaListResponse{
		Areas:  make([]AreaResponse, 0, len(areas)),
		Source: source,
	}
	for _, a := range areas {
		resp.Areas = append(resp.Areas, *FromDomainArea(a))
	}
	return resp
}

// FromDomainSpot конвертирует место в DTO
func FromDomainSpot(s *domain.ParkingSpot) SpotResponse {
	return SpotResponse{
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
		LastUpdated:      s.LastUpdated,
	}
}

// FromDomainSpotList конвертирует места парковки в DTO
func FromDomainSpotList(areaID string, spots []*domain.ParkingSpot, source string) *SpotListResponse {
	resp := &SpotListResponse{
		ParkingAreaID:  areaID,
		AvailableSpots: domain.CountAvailable(spots),
		Spots:          make([]SpotResponse, 0, len(spots)),
		Source:         source,
	}
	for _, s := range spots {
		resp.Spots = append(resp.Spots, FromDomainSpot(s))
	}
	return resp
}
