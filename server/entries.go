package server

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/existflow/timegrid/internal/model"
	"github.com/labstack/echo/v4"
)

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

type entryRow struct {
	ID          int     `json:"id"`
	UserID      int     `json:"user"`
	ProjectID   int     `json:"projet"`
	Date        string  `json:"date"`
	Amount      float64 `json:"temps"`
	Description string  `json:"description"`
}

// canActFor applies the backend's role rules: admins act for anyone,
// managers for themselves and their managed users, users only for
// themselves.
func (s *Server) canActFor(c echo.Context, targetUser int) bool {
	caller := callerID(c)
	switch callerRole(c) {
	case model.RoleAdmin:
		return true
	case model.RoleManager:
		if targetUser == caller {
			return true
		}
		var managed int
		err := s.db.QueryRow(
			s.bind("SELECT COUNT(*) FROM users WHERE id = ? AND manager_id = ?"),
			targetUser, caller).Scan(&managed)
		return err == nil && managed > 0
	default:
		return targetUser == caller
	}
}

// dayTotal sums a user's recorded amounts for one date, excluding one entry
// id (0 excludes nothing).
func (s *Server) dayTotal(userID int, date string, excludeEntry int) (float64, error) {
	var total float64
	err := s.db.QueryRow(
		s.bind(`SELECT COALESCE(SUM(temps), 0) FROM saisie_temps
			WHERE user_id = ? AND date = ? AND id != ?`),
		userID, date, excludeEntry).Scan(&total)
	return total, err
}

// validateAmount re-checks the client's pre-checks server-side, answering in
// the body shapes the client knows how to extract.
func (s *Server) validateAmount(c echo.Context, userID int, date string, amount float64, excludeEntry int) error {
	if !model.ValidAmount(amount) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"temps": []string{"only 0, 0.5 and 1 are allowed"}})
	}
	total, err := s.dayTotal(userID, date, excludeEntry)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "database error"})
	}
	if total+amount > model.DayCapacity+1e-6 {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"non_field_errors": []string{fmt.Sprintf(
				"total time for %s would be %.1f, at most %.1f allowed", date, total+amount, model.DayCapacity)}})
	}
	return nil
}

func (s *Server) handleCreateEntry(c echo.Context) error {
	var req entryRow
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid request"})
	}
	if req.UserID == 0 {
		req.UserID = callerID(c)
	}
	if !s.canActFor(c, req.UserID) {
		return c.JSON(http.StatusForbidden, echo.Map{
			"detail": "You can only create your own time entries"})
	}
	if req.Date == "" || req.ProjectID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "date and projet are required"})
	}
	if err := s.validateAmount(c, req.UserID, req.Date, req.Amount, 0); err != nil {
		return err
	}

	var id int
	if s.driver == "postgres" {
		err := s.db.QueryRow(
			s.bind(`INSERT INTO saisie_temps (user_id, projet_id, date, temps, description)
				VALUES (?, ?, ?, ?, ?) RETURNING id`),
			req.UserID, req.ProjectID, req.Date, req.Amount, req.Description).Scan(&id)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "database error"})
		}
	} else {
		res, err := s.db.Exec(
			s.bind(`INSERT INTO saisie_temps (user_id, projet_id, date, temps, description)
				VALUES (?, ?, ?, ?, ?)`),
			req.UserID, req.ProjectID, req.Date, req.Amount, req.Description)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "database error"})
		}
		last, _ := res.LastInsertId()
		id = int(last)
	}

	req.ID = id
	return c.JSON(http.StatusCreated, req)
}

func (s *Server) getEntry(id int) (entryRow, error) {
	var e entryRow
	err := s.db.QueryRow(
		s.bind(`SELECT id, user_id, projet_id, date, temps, description
			FROM saisie_temps WHERE id = ?`), id).
		Scan(&e.ID, &e.UserID, &e.ProjectID, &e.Date, &e.Amount, &e.Description)
	return e, err
}

func (s *Server) handleUpdateEntry(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
	}
	entry, err := s.getEntry(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
	}
	if !s.canActFor(c, entry.UserID) {
		return c.JSON(http.StatusForbidden, echo.Map{
			"detail": "You can only update your own time entries"})
	}

	var patch struct {
		Amount      *float64 `json:"temps"`
		Description *string  `json:"description"`
	}
	if err := c.Bind(&patch); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid request"})
	}

	if patch.Amount != nil {
		if err := s.validateAmount(c, entry.UserID, entry.Date, *patch.Amount, entry.ID); err != nil {
			return err
		}
		entry.Amount = *patch.Amount
	}
	if patch.Description != nil {
		entry.Description = *patch.Description
	}

	_, err = s.db.Exec(
		s.bind("UPDATE saisie_temps SET temps = ?, description = ? WHERE id = ?"),
		entry.Amount, entry.Description, entry.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "database error"})
	}
	return c.JSON(http.StatusOK, entry)
}

func (s *Server) handleDeleteEntry(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
	}
	entry, err := s.getEntry(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
	}
	if !s.canActFor(c, entry.UserID) {
		return c.JSON(http.StatusForbidden, echo.Map{
			"detail": "You can only delete your own time entries"})
	}

	if _, err := s.db.Exec(s.bind("DELETE FROM saisie_temps WHERE id = ?"), id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleMonthlyEntries(c echo.Context) error {
	userID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
	}
	month := c.Param("month")
	if !monthPattern.MatchString(month) {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "month must be YYYY-MM"})
	}
	if !s.canActFor(c, userID) {
		return c.JSON(http.StatusForbidden, echo.Map{
			"detail": "You can only view your own time entries"})
	}

	rows, err := s.db.Query(
		s.bind(`SELECT id, user_id, projet_id, date, temps, description
			FROM saisie_temps WHERE user_id = ? AND date LIKE ? ORDER BY date, projet_id`),
		userID, month+"-%")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "database error"})
	}
	defer rows.Close()

	entries := []entryRow{}
	for rows.Next() {
		var e entryRow
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.Date, &e.Amount, &e.Description); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "database error"})
		}
		entries = append(entries, e)
	}
	return c.JSON(http.StatusOK, entries)
}
