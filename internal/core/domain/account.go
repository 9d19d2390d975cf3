package domain

import "time"

// Role defines account permission level
type Role string

const (
	RoleAdmin  Role = "admin"  // Manage sign-in configurations
	RoleMember Role = "member" // Regular signed-in account
)

// Account is a local account row an external identity is linked to by email.
// Primary and administrative accounts live in separate realms.
type Account struct {
	ID              string     `json:"id"`
	Surface         Surface    `json:"surface"`
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	Name            string     `json:"name"`
	GivenName       string     `json:"given_name,omitempty"`
	FamilyName      string     `json:"family_name,omitempty"`
	PasswordHash    string     `json:"-"` // Never serialize
	Role            Role       `json:"role"`
	Groups          []string   `json:"groups,omitempty"`
	StorageLocation int64      `json:"storage_location"`
	Disabled        bool       `json:"disabled"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
}

// AccountSummary provides a safe view of account data (no password hash)
type AccountSummary struct {
	ID          string     `json:"id"`
	Surface     Surface    `json:"surface"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        Role       `json:"role"`
	Groups      []string   `json:"groups,omitempty"`
	Disabled    bool       `json:"disabled"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// ToSummary converts an Account to AccountSummary
func (a *Account) ToSummary() *AccountSummary {
	return &AccountSummary{
		ID:          a.ID,
		Surface:     a.Surface,
		Email:       a.Email,
		Name:        a.Name,
		Role:        a.Role,
		Groups:      a.Groups,
		Disabled:    a.Disabled,
		LastLoginAt: a.LastLoginAt,
	}
}

// IsAdmin checks if the account has admin privileges
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// CanSignIn reports whether the account may establish a session on surface.
func (a *Account) CanSignIn(surface Surface) bool {
	if a.Disabled || a.Surface != surface {
		return false
	}
	if surface == SurfaceAdministrative {
		return a.IsAdmin()
	}
	return true
}
