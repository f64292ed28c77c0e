package model

import "time"

// Role is the authorization level carried in session claims.
type Role int

const (
	RoleUser Role = iota
	RoleAdmin
)

func (r Role) String() string {
	if r == RoleAdmin {
		return "admin"
	}
	return "user"
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	PwdHash   string    `json:"-"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionUser is the minimal claim set embedded in both token kinds.
// Salt is stamped only at issuance so repeated signing of otherwise
// identical claims yields distinct tokens; it is dropped on read.
type SessionUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Salt  int64  `json:"salt,omitempty"`
}

// Session projects a stored user to its canonical claim set.
func (u User) Session() SessionUser {
	return SessionUser{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}
