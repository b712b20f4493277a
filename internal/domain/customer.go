package domain

// CustomerProfile is the payer as seen by the ordering-customer field of an
// outgoing message. Profiles are owned by the identity service; this module
// only reads them.
type CustomerProfile struct {
	CustomerID   int64
	FullName     string
	AccountLast4 string
}
