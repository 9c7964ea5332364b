package domain

// Role classifies what an account may do. The set is closed: every switch on
// Role handles all three values plus an invalid default.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleCustomer   Role = "customer"
	RoleStoreOwner Role = "store_owner"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleCustomer, RoleStoreOwner:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts an external string to a Role, reporting whether it is
// one of the known values.
func ParseRole(s string) (Role, bool) {
	role := Role(s)
	return role, role.IsValid()
}
