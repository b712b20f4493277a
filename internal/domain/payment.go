package domain

import "time"

type Currency string

const (
	CurrencyZAR Currency = "ZAR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
)

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyZAR, CurrencyUSD, CurrencyEUR, CurrencyGBP:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusVerified  PaymentStatus = "VERIFIED"
	PaymentStatusSubmitted PaymentStatus = "SUBMITTED"

	// Settlement states. Nothing in this service moves a payment into them.
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusVerified, PaymentStatusSubmitted,
		PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCancelled:
		return true
	}
	return false
}

// Rank orders the lifecycle states; status may only ever increase.
// Settlement states share the rank after SUBMITTED.
func (s PaymentStatus) Rank() int {
	switch s {
	case PaymentStatusPending:
		return 0
	case PaymentStatusVerified:
		return 1
	case PaymentStatusSubmitted:
		return 2
	case PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCancelled:
		return 3
	}
	return -1
}

type Payment struct {
	ID                 int64
	CustomerID         int64
	AmountMinorUnits   int64
	Currency           Currency
	DestinationAccount string
	SwiftCode          string
	BeneficiaryName    string
	PurposeText        string
	Status             PaymentStatus
	VerifiedBy         *int64
	VerifiedAt         *time.Time
	SubmittedBy        *int64
	SubmittedAt        *time.Time
	SwiftReference     *string
	CreatedAt          time.Time
}

// AccountLast4 returns the trailing four characters of the destination
// account, for masked display.
func (p *Payment) AccountLast4() string {
	if len(p.DestinationAccount) <= 4 {
		return p.DestinationAccount
	}
	return p.DestinationAccount[len(p.DestinationAccount)-4:]
}
