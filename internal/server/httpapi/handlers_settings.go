package httpapi

import (
	"net/http"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := s.settings.List(ctx)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]any{"settings": settings})
}

type settingsUpdateRequest struct {
	Settings []settingUpdate `json:"settings" validate:"required,min=1,dive"`
}

type settingUpdate struct {
	Key    string `json:"key" validate:"required,max=100"`
	Value  string `json:"value"`
	Secret bool   `json:"secret"`
}

// handlePutSettings upserts a batch of settings and drops the cached captcha
// configuration so a changed secret or threshold applies immediately.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req settingsUpdateRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	for _, u := range req.Settings {
		if err := s.settings.SetString(ctx, u.Key, u.Value, u.Secret); err != nil {
			s.writeError(ctx, w, err)
			return
		}
	}
	s.captcha.Invalidate()

	s.writeJSON(ctx, w, http.StatusOK, map[string]string{"message": "settings updated"})
}
