package create_booking

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/ledger"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

type ledgerMock struct{ mock.Mock }

func (m *ledgerMock) CreateBooking(ctx context.Context, req *ledger.CreateBookingRequest) (*domain.Booking, error) {
	args := m.Called(ctx, req)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

const validBody = `{"parkingAreaId":"area-1","parkingSpotId":"A1",` +
	`"startTime":"2026-03-10T10:00:00Z","endTime":"2026-03-10T12:00:00Z","vehicleNumber":"AB123"}`

func call(h *Handler, userID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestHandle_Created(t *testing.T) {
	l := &ledgerMock{}
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	l.On("CreateBooking", mock.Anything, mock.MatchedBy(func(r *ledger.CreateBookingRequest) bool {
		return r.UserID == "uid-1" && r.ParkingSpotID == "A1" && r.StartTime.Equal(start)
	})).Return(&domain.Booking{
		ID: "b-1", UserID: "uid-1", ParkingAreaID: "area-1", ParkingSpotID: "A1",
		StartTime: start, EndTime: start.Add(2 * time.Hour), TotalCost: 5, Status: domain.StatusConfirmed,
	}, nil)

	rec := call(NewHandler(l, logger.Nop{}), "uid-1", validBody)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"b-1"`)
	assert.Contains(t, rec.Body.String(), `"status":"CONFIRMED"`)
	l.AssertExpectations(t)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid", fmt.Errorf("%w: vehicle", ledger.ErrInvalidInput), http.StatusBadRequest},
		{"area", ledger.ErrAreaNotFound, http.StatusNotFound},
		{"spot", ledger.ErrSpotNotFound, http.StatusNotFound},
		{"user", ledger.ErrUserNotFound, http.StatusNotFound},
		{"taken", ledger.ErrSpotNotAvailable, http.StatusConflict},
		{"internal", fmt.Errorf("%w: boom", ledger.ErrInternal), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &ledgerMock{}
			l.On("CreateBooking", mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := call(NewHandler(l, logger.Nop{}), "uid-1", validBody)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandle_BadRequests(t *testing.T) {
	l := &ledgerMock{}
	h := NewHandler(l, logger.Nop{})

	assert.Equal(t, http.StatusUnauthorized, call(h, "", validBody).Code)
	assert.Equal(t, http.StatusBadRequest, call(h, "uid-1", `{"parkingAreaId":`).Code)
	assert.Equal(t, http.StatusBadRequest, call(h, "uid-1", `{"unknown":1}`).Code)
	assert.Equal(t, http.StatusBadRequest,
		call(h, "uid-1", strings.Replace(validBody, "2026-03-10T10:00:00Z", "10:00", 1)).Code)

	l.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}
