package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/bobmcallan/simvest/internal/common"
	"github.com/bobmcallan/simvest/internal/models"
)

const tokenIssuer = "simvest-server"

// --- JWT helpers ---

// signJWT creates a signed HMAC-SHA256 JWT for the given user.
func signJWT(user *models.User, config *common.AuthConfig) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"jti":      uuid.New().String(),
		"sub":      user.ID,
		"username": user.Username,
		"iss":      tokenIssuer,
		"iat":      now.Unix(),
		"exp":      now.Add(config.GetTokenExpiry()).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.JWTSecret))
}

// validateJWT parses and validates a JWT token string using the given secret.
func validateJWT(tokenString string, secret []byte) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, nil, err
	}
	return token, claims, nil
}

// --- Handlers ---

// handleSignup handles POST /api/auth/signup.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Username  string `json:"username"`
		Password  string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		s.writeAppError(w, r, common.Validationf("Missing username"))
		return
	}
	if req.Password == "" {
		s.writeAppError(w, r, common.Validationf("Missing password"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			s.writeAppError(w, r, common.Validationf("Password is too long"))
			return
		}
		s.writeAppError(w, r, fmt.Errorf("hash password: %w", err))
		return
	}

	user := &models.User{
		ID:           uuid.New().String(),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Username:     username,
		PasswordHash: string(hash),
		RealizedPnL:  decimal.Zero,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.app.Storage.UserStore().CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, common.ErrDuplicate) {
			s.writeAppError(w, r, common.Conflictf("Username already exists"))
			return
		}
		s.writeAppError(w, r, fmt.Errorf("create user: %w", err))
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User signed up")
	WriteJSON(w, http.StatusOK, map[string]string{"username": user.Username})
}

// handleLogin handles POST /api/auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	invalid := common.Unauthorizedf("Invalid username or password")

	user, err := s.app.Storage.UserStore().GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.writeAppError(w, r, invalid)
			return
		}
		s.writeAppError(w, r, fmt.Errorf("lookup user: %w", err))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.writeAppError(w, r, invalid)
		return
	}

	token, err := signJWT(user, &s.app.Config.Auth)
	if err != nil {
		s.writeAppError(w, r, fmt.Errorf("sign token: %w", err))
		return
	}

	s.logger.Debug().Str("user_id", user.ID).Msg("User logged in")
	WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}
