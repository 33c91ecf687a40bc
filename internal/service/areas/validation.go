package areas

import (
	"fmt"
	"math"
	"strings"

	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
)

func validateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude must be within [-90, 90]", ErrInvalidInput)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude must be within [-180, 180]", ErrInvalidInput)
	}
	return nil
}

func validateNearbyRequest(req *models.NearbyRequest) error {
	if err := validateCoordinates(req.Latitude, req.Longitude); err != nil {
		return err
	}
	if req.RadiusKm < 0 {
		return fmt.Errorf("%w: radiusKm must not be negative", ErrInvalidInput)
	}
	if req.MaxHourlyRate != nil && *req.MaxHourlyRate < 0 {
		return fmt.Errorf("%w: maxHourlyRate must not be negative", ErrInvalidInput)
	}
	return nil
}

// validateCreateAreaRequest проверяет парковку и уникальность номеров мест
func validateCreateAreaRequest(req *models.CreateAreaRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(name) > domain.MaxNameLength {
		return fmt.Errorf("%w: name is longer than %d", ErrInvalidInput, domain.MaxNameLength)
	}

	if err := validateCoordinates(req.Latitude, req.Longitude); err != nil {
		return err
	}

	if req.HourlyRate < 0 || math.IsNaN(req.HourlyRate) {
		return fmt.Errorf("%w: hourlyRate must not be negative", ErrInvalidInput)
	}

	if len(req.Spots) == 0 {
		return fmt.Errorf("%w: at least one spot is required", ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(req.Spots))
	for i := range req.Spots {
		if err := validateSpotRequest(fmt.Sprintf("spots[%d]", i), &req.Spots[i]); err != nil {
			return err
		}

		number := strings.TrimSpace(req.Spots[i].SpotNumber)
		if _, dup := seen[number]; dup {
			return fmt.Errorf("%w: duplicate spot number %q", ErrInvalidInput, number)
		}
		seen[number] = struct{}{}
	}

	return nil
}

// validateSpotRequest проверяет новое место
// Место создается свободным: занять его может только бронирование, иначе счетчик и леджер разойдутся
func validateSpotRequest(field string, s *models.CreateSpotRequest) error {
	if strings.TrimSpace(s.SpotNumber) == "" {
		return fmt.Errorf("%w: %s.spotNumber is required", ErrInvalidInput, field)
	}
	if s.Type != "" && !domain.IsValidSpotType(s.Type) {
		return fmt.Errorf("%w: %s.type %q is unknown", ErrInvalidInput, field, s.Type)
	}
	if s.Available != nil && !*s.Available {
		return fmt.Errorf("%w: %s cannot be created occupied", ErrInvalidInput, field)
	}
	return nil
}

// validateSearchRequest проверяет запрос и возвращает размер выдачи
func validateSearchRequest(req *models.SearchRequest) (int, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return 0, fmt.Errorf("%w: q is required", ErrInvalidInput)
	}
	if len(query) > domain.MaxNameLength {
		return 0, fmt.Errorf("%w: q is longer than %d", ErrInvalidInput, domain.MaxNameLength)
	}

	switch {
	case req.Limit < 0:
		return 0, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	case req.Limit == 0:
		return domain.DefaultTextSearchSize, nil
	case req.Limit > domain.MaxTextSearchSize:
		return domain.MaxTextSearchSize, nil
	}
	return req.Limit, nil
}

func validateAreaPatch(patch domain.AreaPatch) error {
	if patch.IsEmpty() {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		if len(name) > domain.MaxNameLength {
			return fmt.Errorf("%w: name is longer than %d", ErrInvalidInput, domain.MaxNameLength)
		}
	}

	if patch.Latitude != nil || patch.Longitude != nil {
		lat, lng := 0.0, 0.0
		if patch.Latitude != nil {
			lat = *patch.Latitude
		}
		if patch.Longitude != nil {
			lng = *patch.Longitude
		}
		if err := validateCoordinates(lat, lng); err != nil {
			return err
		}
	}

	if patch.HourlyRate != nil && (*patch.HourlyRate < 0 || math.IsNaN(*patch.HourlyRate)) {
		return fmt.Errorf("%w: hourlyRate must not be negative", ErrInvalidInput)
	}

	return nil
}

func validateSpotPatch(patch domain.SpotPatch) error {
	if patch.IsEmpty() {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if patch.SpotNumber != nil && strings.TrimSpace(*patch.SpotNumber) == "" {
		return fmt.Errorf("%w: spotNumber must not be empty", ErrInvalidInput)
	}
	if patch.Type != nil && !domain.IsValidSpotType(*patch.Type) {
		return fmt.Errorf("%w: type %q is unknown", ErrInvalidInput, *patch.Type)
	}
	return nil
}
