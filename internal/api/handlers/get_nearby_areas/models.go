package get_nearby_areas

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
)

var errMissingCoordinates = errors.New("lat and lng are required")

// parseQuery собирает запрос поиска из query параметров
// ?lat=&lng=&radiusKm=&maxHourlyRate=&ev=true&disabled=true
func parseQuery(q url.Values, userID string) (*models.NearbyRequest, error) {
	if q.Get("lat") == "" || q.Get("lng") == "" {
		return nil, errMissingCoordinates
	}

	req := &models.NearbyRequest{UserID: userID}
	var err error

	if req.Latitude, err = strconv.ParseFloat(q.Get("lat"), 64); err != nil {
		return nil, err
	}
	if req.Longitude, err = strconv.ParseFloat(q.Get("lng"), 64); err != nil {
		return nil, err
	}
	if v := q.Get("radiusKm"); v != "" {
		if req.RadiusKm, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, err
		}
	}
	if v := q.Get("maxHourlyRate"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		req.MaxHourlyRate = &rate
	}
	if v := q.Get("ev"); v != "" {
		if req.NeedsEV, err = strconv.ParseBool(v); err != nil {
			return nil, err
		}
	}
	if v := q.Get("disabled"); v != "" {
		if req.NeedsDisabled, err = strconv.ParseBool(v); err != nil {
			return nil, err
		}
	}

	return req, nil
}
