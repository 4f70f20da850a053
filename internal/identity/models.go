package identity

import "time"

// User is a marketplace identity. Records are immutable after creation except
// the Active flag; admins are ordinary user records with RoleAdmin, not a
// magic id.
type User struct {
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Email   string `json:"email" db:"email"`
	Role    Role   `json:"role" db:"role"`
	Company string `json:"company,omitempty" db:"company"`
	Phone   string `json:"phone,omitempty" db:"phone"`
	Active  bool   `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleBuyer, RoleSeller, RoleAdmin:
		return true
	default:
		return false
	}
}
