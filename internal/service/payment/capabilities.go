package payment

import (
	"fmt"

	"github.com/josh-kwaku/swift-payment-portal/internal/auth"
	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
)

type Capability string

const (
	CapCreate  Capability = "payments:create"
	CapRead    Capability = "payments:read"
	CapReadAny Capability = "payments:read_any"
	CapList    Capability = "payments:list"
	CapVerify  Capability = "payments:verify"
	CapSubmit  Capability = "payments:submit"
	CapAudit   Capability = "payments:audit"
)

type capabilitySet map[Capability]struct{}

func newCapabilitySet(caps ...Capability) capabilitySet {
	s := make(capabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

func (s capabilitySet) has(c Capability) bool {
	_, ok := s[c]
	return ok
}

var roleCapabilities = map[auth.Role]capabilitySet{
	auth.RoleCustomer: newCapabilitySet(CapCreate, CapRead),
	auth.RoleEmployee: newCapabilitySet(CapRead, CapReadAny, CapList, CapVerify, CapSubmit, CapAudit),
}

type operation string

const (
	opCreatePayment  operation = "CreatePayment"
	opGetPayment     operation = "GetPayment"
	opListByStatus   operation = "ListPaymentsByStatus"
	opVerifyPayment  operation = "VerifyPayment"
	opSubmitPayment  operation = "SubmitPayment"
	opPaymentHistory operation = "PaymentHistory"
)

// methodTable is the single place that decides who may call what.
var methodTable = map[operation]Capability{
	opCreatePayment:  CapCreate,
	opGetPayment:     CapRead,
	opListByStatus:   CapList,
	opVerifyPayment:  CapVerify,
	opSubmitPayment:  CapSubmit,
	opPaymentHistory: CapAudit,
}

// Can reports whether the role holds capability c.
func Can(role auth.Role, c Capability) bool {
	return roleCapabilities[role].has(c)
}

func authorize(caller auth.Principal, op operation) error {
	required, ok := methodTable[op]
	if !ok {
		return fmt.Errorf("authorize %s: no capability registered: %w", op, domain.ErrForbidden)
	}
	if caller.ID <= 0 || !Can(caller.Role, required) {
		return fmt.Errorf("authorize %s: role %q lacks %s: %w", op, caller.Role, required, domain.ErrForbidden)
	}
	return nil
}
