package auth

import "context"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleEmployee Role = "employee"
)

func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleEmployee
}

// Principal is the authenticated caller. ID is a customer ID for customers
// and a staff ID for employees.
type Principal struct {
	ID   int64
	Role Role
}

type principalKey struct{}

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
