package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lakelandsports/cms/internal/common"
	"github.com/lakelandsports/cms/internal/server/models"
)

type contactRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Email        string `json:"email" validate:"required,email"`
	Message      string `json:"message" validate:"required,min=10,max=5000"`
	CaptchaToken string `json:"captchaToken"`
}

// handleContact forwards a contact-form submission to the organization
// inbox. The route carries the tight contact limiter class and a bot check.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req contactRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	if err := s.captcha.Verify(ctx, req.CaptchaToken, "contact"); err != nil {
		s.writeError(ctx, w, err)
		return
	}

	inbox, err := s.settings.GetString(ctx, models.SettingContactInbox)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "contact inbox not configured, dropping submission", "from", req.Email)
			s.writeJSON(ctx, w, http.StatusOK, map[string]string{"message": "thanks, we will be in touch"})
			return
		}
		s.writeError(ctx, w, err)
		return
	}

	body := fmt.Sprintf("From: %s <%s>\n\n%s", req.Name, req.Email, req.Message)
	if err := s.mail.Send(ctx, inbox, "Contact form submission", body); err != nil {
		// The visitor already passed the bot check; do not bounce them for
		// an internal delivery problem.
		s.logger.Error(ctx, "contact mail failed", "error", err)
	}

	s.writeJSON(ctx, w, http.StatusOK, map[string]string{"message": "thanks, we will be in touch"})
}
