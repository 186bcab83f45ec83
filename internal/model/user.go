package model

// Roles as reported by the server. The role shapes which projects and users
// are visible but never changes the reconciliation rules.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

// User is an account on the time-tracking server.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role"`
	ManagerID *int   `json:"manager,omitempty"`
	IsStaff   bool   `json:"is_staff"`
	IsSuper   bool   `json:"is_superuser"`
}

// CanManage reports whether u may view or edit entries belonging to other
// users (admins everywhere, managers for their managed users).
func (u *User) CanManage() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager || u.IsStaff || u.IsSuper
}

// Session is the locally persisted login state: the token pair from
// /api/auth/login/ plus the identity claims the server returns with it.
type Session struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// LoggedIn reports whether the session holds a usable token pair.
func (s *Session) LoggedIn() bool {
	return s != nil && s.Access != "" && s.Refresh != ""
}
