package server

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTTL  = 30 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

type tokenClaims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Kind     string `json:"kind"` // "access" or "refresh"
	jwt.RegisteredClaims
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// seedAdmin creates the initial admin account when the users table is
// empty. Password comes from TIMEGRID_ADMIN_PASSWORD, default "admin".
func (s *Server) seedAdmin() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("TIMEGRID_ADMIN_PASSWORD")
	if password == "" {
		password = "admin"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		s.bind("INSERT INTO users (username, password_hash, role) VALUES (?, ?, 'admin')"),
		"admin", string(hash))
	return err
}

func (s *Server) issueToken(userID int, username, role, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *Server) parseToken(raw, kind string) (*tokenClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*tokenClaims)
	if !ok || claims.Kind != kind {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// handleLogin checks credentials and returns the simplejwt-style pair plus
// identity fields, matching what the client persists in its session.
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid request"})
	}

	var (
		id   int
		hash string
		role string
	)
	err := s.db.QueryRow(
		s.bind("SELECT id, password_hash, role FROM users WHERE username = ?"),
		req.Username).Scan(&id, &hash, &role)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"detail": "No active account found with the given credentials"})
	}

	access, err := s.issueToken(id, req.Username, role, "access", accessTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "token error"})
	}
	refresh, err := s.issueToken(id, req.Username, role, "refresh", refreshTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "token error"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access":       access,
		"refresh":      refresh,
		"id":           id,
		"username":     req.Username,
		"role":         role,
		"is_staff":     role != "user",
		"is_superuser": role == "admin",
	})
}

// handleRefresh exchanges a refresh token for a new access token.
func (s *Server) handleRefresh(c echo.Context) error {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"detail": "invalid request"})
	}

	claims, err := s.parseToken(req.Refresh, "refresh")
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Token is invalid or expired"})
	}

	access, err := s.issueToken(claims.UserID, claims.Username, claims.Role, "access", accessTTL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": "token error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"access": access})
}

// authMiddleware validates the bearer access token and stashes the caller's
// identity in the request context.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if auth == "" || token == auth {
			return c.JSON(http.StatusUnauthorized, echo.Map{
				"detail": "Authentication credentials were not provided."})
		}

		claims, err := s.parseToken(token, "access")
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"detail": "Token is invalid or expired"})
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		return next(c)
	}
}

func callerID(c echo.Context) int { id, _ := c.Get("user_id").(int); return id }

func callerRole(c echo.Context) string { r, _ := c.Get("role").(string); return r }
