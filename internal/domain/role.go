package domain

import "database/sql/driver"

// Role identifica o papel de um usuário no escritório.
type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleAttorney  Role = "Attorney"
	RoleAssistant Role = "Assistant"
)

// IsValid valida se o valor de Role é conhecido.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleAttorney, RoleAssistant:
		return true
	}
	return false
}

func (r *Role) Scan(src interface{}) error {
	return scanEnum(r, src, RoleAttorney, "Role")
}

func (r Role) Value() (driver.Value, error) {
	return enumValue(r, "Role")
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (p Principal) IsAdmin() bool     { return p.Role == RoleAdmin }
func (p Principal) IsAttorney() bool  { return p.Role == RoleAttorney }
func (p Principal) IsAssistant() bool { return p.Role == RoleAssistant }
