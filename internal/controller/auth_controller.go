// internal/controller/auth_controller.go
package controller

import (
	"net/http"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/respond"
	"github.com/unclebandit/medshare-backend/internal/service"
)

type AuthController struct {
	Identity *service.IdentityService
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		respond.Error(w, r, err)
		return
	}

	tok, err := c.Identity.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, tok)
}

// FieldLogin signs a field rep in with the brand-supplied id and email.
func (c *AuthController) FieldLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CampaignID string `json:"campaign_id"`
		FieldRepID string `json:"field_rep_id"`
		Email      string `json:"email"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		respond.Error(w, r, err)
		return
	}
	campaignID, err := uuid.Parse(body.CampaignID)
	if err != nil {
		respond.Error(w, r, appErrors.NewValidation("campaign_id", "must be a UUID"))
		return
	}

	tok, err := c.Identity.FieldRepLogin(r.Context(), campaignID, body.FieldRepID, body.Email)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, tok)
}
