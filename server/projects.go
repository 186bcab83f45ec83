package server

import (
	"net/http"

	"github.com/existflow/timegrid/internal/model"
	"github.com/labstack/echo/v4"
)

type projectRow struct {
	ID          int    `json:"id"`
	Name        string `json:"nom"`
	Description string `json:"description"`
	ManagerID   int    `json:"manager"`
	Users       []int  `json:"users"`
}

// handleListProjects returns the projects visible to the caller: everything
// for admins, managed or assigned projects for managers, assigned projects
// for users.
func (s *Server) handleListProjects(c echo.Context) error {
	caller := callerID(c)

	query := `SELECT id, nom, description, manager_id FROM projets ORDER BY id`
	args := []interface{}{}
	switch callerRole(c) {
	case model.RoleAdmin:
	case model.RoleManager:
		query = `SELECT DISTINCT p.id, p.nom, p.description, p.manager_id
			FROM projets p LEFT JOIN projet_users pu ON pu.projet_id = p.id
			WHERE p.manager_id = ? OR pu.user_id = ? ORDER BY p.id`
		args = []interface{}{caller, caller}
	default:
		query = `SELECT p.id, p.nom, p.description, p.manager_id
			FROM projets p JOIN projet_users pu ON pu.projet_id = p.id
			WHERE pu.user_id = ? ORDER BY p.id`
		args = []interface{}{caller}
	}

	rows, err := s.db.Query(s.bind(query), args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "database error"})
	}
	defer rows.Close()

	projects := []projectRow{}
	for rows.Next() {
		var p projectRow
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ManagerID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "database error"})
		}
		p.Users = s.projectUsers(p.ID)
		projects = append(projects, p)
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *Server) projectUsers(projectID int) []int {
	users := []int{}
	rows, err := s.db.Query(
		s.bind("SELECT user_id FROM projet_users WHERE projet_id = ? ORDER BY user_id"), projectID)
	if err != nil {
		return users
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		if rows.Scan(&id) == nil {
			users = append(users, id)
		}
	}
	return users
}

// handleCreateProject creates a project (staff only) and optionally assigns
// users to it.
func (s *Server) handleCreateProject(c echo.Context) error {
	role := callerRole(c)
	if role != model.RoleAdmin && role != model.RoleManager {
		return c.JSON(http.StatusForbidden, echo.Map{
			"detail": "Only managers and admins can create projects"})
	}

	var req projectRow
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"nom": []string{"this field is required"}})
	}
	if req.ManagerID == 0 || role == model.RoleManager {
		req.ManagerID = callerID(c)
	}

	var id int
	if s.driver == "postgres" {
		err := s.db.QueryRow(
			s.bind("INSERT INTO projets (nom, description, manager_id) VALUES (?, ?, ?) RETURNING id"),
			req.Name, req.Description, req.ManagerID).Scan(&id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "database error"})
		}
	} else {
		res, err := s.db.Exec(
			s.bind("INSERT INTO projets (nom, description, manager_id) VALUES (?, ?, ?)"),
			req.Name, req.Description, req.ManagerID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "database error"})
		}
		last, _ := res.LastInsertId()
		id = int(last)
	}

	for _, uid := range req.Users {
		s.db.Exec(s.bind("INSERT INTO projet_users (projet_id, user_id) VALUES (?, ?)"), id, uid)
	}

	req.ID = id
	if req.Users == nil {
		req.Users = []int{}
	}
	return c.JSON(http.StatusCreated, req)
}
