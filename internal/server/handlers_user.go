package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bobmcallan/simvest/internal/common"
)

// handleUser handles GET /api/user.
func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	user, err := s.app.Storage.UserStore().GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.writeAppError(w, r, common.Unauthorizedf("User no longer exists."))
			return
		}
		s.writeAppError(w, r, fmt.Errorf("load user: %w", err))
		return
	}

	WriteJSON(w, http.StatusOK, user.Profile())
}
