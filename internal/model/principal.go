package model

// Principal is the authenticated caller of the admin API.
type Principal struct {
	UserID int64    `json:"user_id"`
	Name   string   `json:"name"`
	Roles  []string `json:"roles"`
}

const RoleAdmin = "freight.admin"

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (p Principal) IsAdmin() bool { return p.HasRole(RoleAdmin) }
