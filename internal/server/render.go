package server

import (
	"net/http"

	"foodconnect/pkg/types"

	"github.com/gorilla/csrf"
)

func (s *Service) renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) error {
	return s.renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

func (s *Service) renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) error {
	if setter, ok := data.(types.NavbarDataSetter); ok {
		navbar := types.NavbarData{}
		if user := s.currentUser(r.Context()); user != nil {
			navbar = types.NavbarData{
				IsAuthenticated: true,
				UserID:          user.ID,
				UserName:        user.FullName,
				UserEmail:       user.Email,
				IsAdmin:         user.IsAdmin(),
			}
		}

		setter.SetNavbarData(navbar)
		setter.SetFlash(r.URL.Query().Get("notice"), r.URL.Query().Get("error"))
		setter.SetCSRFField(csrf.TemplateField(r))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	return s.templates.ExecuteTemplate(w, templateName, data)
}
