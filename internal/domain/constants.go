package domain

import "time"

// Booking policy constants
const (
	MinBookingDuration = time.Hour        // end <= start is clamped to start + 1h
	ExpiryGracePeriod  = 15 * time.Minute // ACTIVE booking expires this long after its end time
)

// Search constants
const (
	DefaultSearchRadiusKm = 5.0
	MaxSearchRadiusKm     = 15.0
	KmPerDegree           = 111.32
	DefaultTextSearchSize = 50
	MaxTextSearchSize     = 100
)

// Rating bounds
const (
	MinRating = 1.0
	MaxRating = 5.0
)

// Validation constants
const (
	MaxVehicleNumberLength = 20
	MaxNameLength          = 100
)

// Payment methods
const (
	PaymentCreditCard = "CREDIT_CARD"
	PaymentDebitCard  = "DEBIT_CARD"
	PaymentPayPal     = "PAYPAL"
	PaymentGooglePay  = "GOOGLE_PAY"
	PaymentWallet     = "WALLET"
)

// PaymentMethods список поддерживаемых способов оплаты
var PaymentMethods = []string{
	PaymentCreditCard,
	PaymentDebitCard,
	PaymentPayPal,
	PaymentGooglePay,
	PaymentWallet,
}

// IsValidPaymentMethod проверяет способ оплаты
func IsValidPaymentMethod(m string) bool {
	for _, pm := range PaymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}
