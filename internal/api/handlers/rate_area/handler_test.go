package rate_area

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/m04kA/SMC-ParkingService/internal/service/areas"
	"github.com/m04kA/SMC-ParkingService/internal/service/areas/models"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

type serviceMock struct{ mock.Mock }

func (m *serviceMock) RateArea(ctx context.Context, areaID string, req *models.RateRequest) (*models.RatingResponse, error) {
	args := m.Called(ctx, areaID, req)
	resp, _ := args.Get(0).(*models.RatingResponse)
	return resp, args.Error(1)
}

func call(s AreaService, body string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/areas/{areaId}/ratings", NewHandler(s, logger.Nop{}).Handle).Methods(http.MethodPost)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/areas/area-1/ratings", strings.NewReader(body)))
	return rec
}

func TestHandle(t *testing.T) {
	s := &serviceMock{}
	s.On("RateArea", mock.Anything, "area-1", &models.RateRequest{Rating: 4}).
		Return(&models.RatingResponse{ParkingAreaID: "area-1", Rating: 4.2, NumberOfRatings: 5}, nil)

	rec := call(s, `{"rating":4}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"numberOfRatings":5`)
	s.AssertExpectations(t)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := map[error]int{
		areas.ErrInvalidInput: http.StatusBadRequest,
		areas.ErrAreaNotFound: http.StatusNotFound,
		areas.ErrInternal:     http.StatusInternalServerError,
	}

	for err, status := range tests {
		s := &serviceMock{}
		s.On("RateArea", mock.Anything, "area-1", mock.Anything).Return(nil, err)
		assert.Equal(t, status, call(s, `{"rating":9}`).Code, err.Error())
	}

	assert.Equal(t, http.StatusBadRequest, call(&serviceMock{}, `not json`).Code)
}
