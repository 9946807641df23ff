package server

import (
	"net/http"

	"foodconnect/pkg/types"

	"github.com/gorilla/csrf"
)

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Service) handleNotFound(w http.ResponseWriter, r *http.Request) {
	data := &types.BasePageData{Title: "Page Not Found"}
	if err := s.renderTemplateStatus(w, r, http.StatusNotFound, "page.not-found", data); err != nil {
		s.logger.WithError(err).Error("failed to render not found page")
	}
}

func (s *Service) handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	s.logger.WithError(csrf.FailureReason(r)).WithField("path", r.URL.Path).Warn("rejected request with invalid csrf token")
	http.Error(w, "forbidden - invalid request token", http.StatusForbidden)
}
