package server

import (
	"net/http"

	"obraflow/pkg/types"
)

// handleHome is the role router: every signed-in principal lands here
// and gets sent to the view that matches their role.
func (s *Service) handleHome(w http.ResponseWriter, r *http.Request) {

	principal, err := s.principalFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	switch principal.Role {
	case types.RoleField:
		http.Redirect(w, r, "/field", http.StatusSeeOther)
	case types.RoleOffice:
		http.Redirect(w, r, "/office", http.StatusSeeOther)
	default:
		// RequireAuth filters unknown roles already; this is the backstop.
		s.cookies.Clear(w)
		http.Redirect(w, r, "/login?error="+unknownRoleMessage, http.StatusSeeOther)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
