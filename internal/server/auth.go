package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"obraflow/internal"
	"obraflow/internal/auth"
	"obraflow/pkg/types"
)

var unknownRoleMessage = url.QueryEscape("Your account role is not recognized. Contact an administrator.")

func (s *Service) handleGetLogin(w http.ResponseWriter, r *http.Request) {

	if _, err := s.cookies.Read(r); err == nil {
		s.logger.Info("user is already logged in, redirecting to role router")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{
			Title:  "Sign In",
			Notice: r.URL.Query().Get("notice"),
			Error:  r.URL.Query().Get("error"),
		},
	}

	if err := s.renderTemplate(w, r, "page.login", data); err != nil {
		s.logger.WithError(err).Error("failed to render login page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "Sign In"},
		Email:        email,
	}

	session, err := s.authClient.Login(r.Context(), email, password)
	if err != nil {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			data.Error = authErr.Message
		} else {
			data.Error = "Unable to sign in right now. Please try again."
		}

		if renderErr := s.renderTemplate(w, r, "page.login", data); renderErr != nil {
			s.logger.WithError(renderErr).Error("failed to render login page with error")
			s.internalServerError(w)
		}
		return
	}

	if err := s.cookies.Issue(w, session.AccessToken, int(session.ExpiresInSec)); err != nil {
		s.logger.WithError(err).Error("failed to encrypt access token")
		data.Error = "Unable to sign in right now. Please try again."
		if renderErr := s.renderTemplate(w, r, "page.login", data); renderErr != nil {
			s.logger.WithError(renderErr).Error("failed to render login page with error")
			s.internalServerError(w)
		}
		return
	}

	// Check to see if this login attempt was the result of an unauthed redirect
	if redirectCookie, err := r.Cookie(internal.COOKIE_REDIRECT_NAME); err == nil {
		path := redirectCookie.Value
		s.clearRedirectCookie(w)
		http.Redirect(w, r, path, http.StatusSeeOther)
		return
	}

	// The role router picks the view
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Service) handleGetRegister(w http.ResponseWriter, r *http.Request) {

	if _, err := s.cookies.Read(r); err == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := &types.RegisterPageData{
		BasePageData: types.BasePageData{Title: "Create Account"},
	}

	if err := s.renderTemplate(w, r, "page.register", data); err != nil {
		s.logger.WithError(err).Error("failed to render register page")
		s.internalServerError(w)
		return
	}
}

func (s *Service) handlePostRegister(w http.ResponseWriter, r *http.Request) {

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	confirmPassword := r.FormValue("confirm_password")

	data := &types.RegisterPageData{
		BasePageData: types.BasePageData{Title: "Create Account"},
		Name:         name,
		Email:        email,
	}

	data.FieldErrors = auth.ValidateRegisterInput(name, email, password, confirmPassword)
	if len(data.FieldErrors) > 0 {
		s.logger.WithField("field_errors", data.FieldErrors).Info("validation errors during registration")

		data.Error = "Please fix the highlighted fields."
		if err := s.renderTemplate(w, r, "page.register", data); err != nil {
			s.logger.WithError(err).Error("failed to render register page with validation errors")
			s.internalServerError(w)
		}
		return
	}

	if err := s.authClient.Register(r.Context(), name, email, password); err != nil {
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			data.Error = authErr.Message
		} else {
			data.Error = "Unable to create account right now. Please try again."
		}

		if renderErr := s.renderTemplate(w, r, "page.register", data); renderErr != nil {
			s.logger.WithError(renderErr).Error("failed to render register page with error")
			s.internalServerError(w)
		}
		return
	}

	v := url.Values{}
	v.Set("notice", "Account created. Sign in to continue.")
	http.Redirect(w, r, "/login?"+v.Encode(), http.StatusSeeOther)
}

func (s *Service) handlePostLogout(w http.ResponseWriter, r *http.Request) {
	s.cookies.Clear(w)
	http.Redirect(w, r, "/login?notice="+url.QueryEscape("Signed out."), http.StatusSeeOther)
}

func (s *Service) setRedirectCookie(w http.ResponseWriter, path string, age time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_REDIRECT_NAME,
		Value:    path,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(age.Seconds()),
	})
}

func (s *Service) clearRedirectCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_REDIRECT_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
