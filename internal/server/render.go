package server

import (
	"net/http"

	"obraflow/pkg/types"
)

func (s *Service) renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) error {
	navbar := types.NavbarData{}
	if principal, err := s.principalFromContext(r.Context()); err == nil {
		navbar = types.NavbarData{
			IsAuthenticated: true,
			UserID:          principal.UID,
			UserEmail:       principal.Email,
			Role:            principal.Role,
		}
	}

	if setter, ok := data.(types.NavbarDataSetter); ok {
		setter.SetNavbarData(navbar)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return s.templates.ExecuteTemplate(w, templateName, data)
}
