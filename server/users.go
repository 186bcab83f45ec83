package server

import (
	"database/sql"
	"net/http"

	"github.com/existflow/timegrid/internal/model"
	"github.com/labstack/echo/v4"
)

type userRow struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	ManagerID *int   `json:"manager"`
	IsStaff   bool   `json:"is_staff"`
	IsSuper   bool   `json:"is_superuser"`
}

func scanUser(scan func(...interface{}) error) (userRow, error) {
	var u userRow
	var manager sql.NullInt64
	err := scan(&u.ID, &u.Username, &u.Email, &u.Role, &manager)
	if manager.Valid {
		id := int(manager.Int64)
		u.ManagerID = &id
	}
	u.IsStaff = u.Role != model.RoleUser
	u.IsSuper = u.Role == model.RoleAdmin
	return u, err
}

// handleMe returns the caller's own profile.
func (s *Server) handleMe(c echo.Context) error {
	row := s.db.QueryRow(
		s.bind("SELECT id, username, email, role, manager_id FROM users WHERE id = ?"),
		callerID(c))
	u, err := scanUser(row.Scan)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
	}
	return c.JSON(http.StatusOK, u)
}

// handleListUsers returns the users visible to the caller: all for admins,
// self plus managed users for managers, self otherwise.
func (s *Server) handleListUsers(c echo.Context) error {
	caller := callerID(c)

	query := "SELECT id, username, email, role, manager_id FROM users ORDER BY id"
	args := []interface{}{}
	switch callerRole(c) {
	case model.RoleAdmin:
	case model.RoleManager:
		query = `SELECT id, username, email, role, manager_id FROM users
			WHERE id = ? OR manager_id = ? ORDER BY id`
		args = []interface{}{caller, caller}
	default:
		query = "SELECT id, username, email, role, manager_id FROM users WHERE id = ?"
		args = []interface{}{caller}
	}

	rows, err := s.db.Query(s.bind(query), args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "database error"})
	}
	defer rows.Close()

	users := []userRow{}
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "database error"})
		}
		users = append(users, u)
	}
	return c.JSON(http.StatusOK, users)
}
