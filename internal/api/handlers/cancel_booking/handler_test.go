package cancel_booking

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/domain"
	"github.com/m04kA/SMC-ParkingService/internal/service/ledger"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

type ledgerMock struct{ mock.Mock }

func (m *ledgerMock) CancelBooking(ctx context.Context, req *ledger.CancelBookingRequest) (*domain.Booking, error) {
	args := m.Called(ctx, req)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func call(l Ledger, body string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	r.HandleFunc("/bookings/{bookingId}/cancel", NewHandler(l, logger.Nop{}).Handle).Methods(http.MethodPatch)

	req := httptest.NewRequest(http.MethodPatch, "/bookings/b-1/cancel", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), "uid-1"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandle_EmptyBody(t *testing.T) {
	l := &ledgerMock{}
	l.On("CancelBooking", mock.Anything, &ledger.CancelBookingRequest{BookingID: "b-1", UserID: "uid-1"}).
		Return(&domain.Booking{ID: "b-1", UserID: "uid-1", Status: domain.StatusCancelled}, nil)

	rec := call(l, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"CANCELLED"`)
	l.AssertExpectations(t)
}

func TestHandle_LocationPassedThrough(t *testing.T) {
	l := &ledgerMock{}
	l.On("CancelBooking", mock.Anything, &ledger.CancelBookingRequest{
		BookingID: "b-1", UserID: "uid-1", ParkingAreaID: "area-1", ParkingSpotID: "A1",
	}).Return(nil, ledger.ErrInvalidInput)

	rec := call(l, `{"parkingAreaId":"area-1","parkingSpotId":"A1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	l.AssertExpectations(t)
}

func TestHandle_ErrorMapping(t *testing.T) {
	tests := map[error]int{
		ledger.ErrBookingNotFound:   http.StatusNotFound,
		ledger.ErrAccessDenied:      http.StatusForbidden,
		ledger.ErrCannotCancel:      http.StatusConflict,
		ledger.ErrInvalidTransition: http.StatusConflict,
		ledger.ErrInternal:          http.StatusInternalServerError,
	}

	for err, status := range tests {
		l := &ledgerMock{}
		l.On("CancelBooking", mock.Anything, mock.Anything).Return(nil, err)
		assert.Equal(t, status, call(l, "").Code, err.Error())
	}
}
