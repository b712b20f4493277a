package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/josh-kwaku/swift-payment-portal/internal/auth"
	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
)

func TestAuthorize(t *testing.T) {
	customer := auth.Principal{ID: 5, Role: auth.RoleCustomer}
	employee := auth.Principal{ID: 9, Role: auth.RoleEmployee}

	tests := []struct {
		caller  auth.Principal
		op      operation
		allowed bool
	}{
		{customer, opCreatePayment, true},
		{customer, opGetPayment, true},
		{customer, opListByStatus, false},
		{customer, opVerifyPayment, false},
		{customer, opSubmitPayment, false},
		{customer, opPaymentHistory, false},
		{employee, opCreatePayment, false},
		{employee, opGetPayment, true},
		{employee, opListByStatus, true},
		{employee, opVerifyPayment, true},
		{employee, opSubmitPayment, true},
		{employee, opPaymentHistory, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.caller.Role)+"/"+string(tt.op), func(t *testing.T) {
			err := authorize(tt.caller, tt.op)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrForbidden)
			}
		})
	}
}

func TestAuthorize_RejectsAnonymousAndUnknown(t *testing.T) {
	assert.ErrorIs(t, authorize(auth.Principal{}, opGetPayment), domain.ErrForbidden)
	assert.ErrorIs(t, authorize(auth.Principal{ID: 1, Role: "admin"}, opGetPayment), domain.ErrForbidden)
	assert.ErrorIs(t, authorize(auth.Principal{ID: 1, Role: auth.RoleEmployee}, "Refund"), domain.ErrForbidden)
}

func TestMethodTableCoversEveryOperation(t *testing.T) {
	for _, op := range []operation{
		opCreatePayment, opGetPayment, opListByStatus,
		opVerifyPayment, opSubmitPayment, opPaymentHistory,
	} {
		_, ok := methodTable[op]
		assert.True(t, ok, "operation %s has no capability", op)
	}
}

func TestCan_ReadAnyIsEmployeeOnly(t *testing.T) {
	assert.True(t, Can(auth.RoleEmployee, CapReadAny))
	assert.False(t, Can(auth.RoleCustomer, CapReadAny))
}
