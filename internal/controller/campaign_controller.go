// internal/controller/campaign_controller.go
package controller

import (
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/respond"
	"github.com/unclebandit/medshare-backend/internal/service"
)

// CampaignController serves the publisher's campaign management routes and
// the shared dashboard.
type CampaignController struct {
	CampaignService *service.CampaignService
	FieldRepService *service.FieldRepService
}

func (c *CampaignController) Dashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	campaigns, err := c.CampaignService.Dashboard(r.Context(), p)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if campaigns == nil {
		campaigns = []*model.Campaign{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"campaigns": campaigns})
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var body struct {
		service.CampaignInput
		Systems []model.SystemKind `json:"systems"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		respond.Error(w, r, err)
		return
	}

	res, err := c.CampaignService.CreateCampaign(r.Context(), p, body.CampaignInput, body.Systems)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, res)
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if _, err := c.CampaignService.OwnedCampaign(r.Context(), p, id); err != nil {
		respond.Error(w, r, err)
		return
	}
	res, err := c.CampaignService.CampaignResult(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var body service.CampaignInput
	if err := decodeBody(w, r, &body); err != nil {
		respond.Error(w, r, err)
		return
	}

	campaign, err := c.CampaignService.UpdateContact(r.Context(), p, id, body)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) AddSystem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var body struct {
		Kind model.SystemKind `json:"kind"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		respond.Error(w, r, err)
		return
	}
	if !body.Kind.Valid() {
		respond.Error(w, r, appErrors.NewValidation("kind", "unknown system "+string(body.Kind)))
		return
	}

	sys, err := c.CampaignService.AddSystem(r.Context(), p, id, body.Kind)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, sys)
}

// ConfigureSystem saves the system's settings; "activate": true also moves
// it out of draft.
func (c *CampaignController) ConfigureSystem(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	kind := model.SystemKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		respond.Error(w, r, appErrors.NewValidation("kind", "unknown system "+string(kind)))
		return
	}
	var body struct {
		service.SystemConfig
		Activate bool `json:"activate"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		respond.Error(w, r, err)
		return
	}

	sys, err := c.CampaignService.ConfigureSystem(r.Context(), p, id, kind, body.SystemConfig)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if body.Activate {
		if sys, err = c.CampaignService.Activate(r.Context(), p, id, kind); err != nil {
			respond.Error(w, r, err)
			return
		}
	}
	respond.JSON(w, http.StatusOK, sys)
}

// UploadFieldReps accepts a multipart form with a csv_file part, or the CSV
// as the raw request body.
func (c *CampaignController) UploadFieldReps(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var src io.Reader = r.Body
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		file, _, err := r.FormFile("csv_file")
		if err != nil {
			respond.Error(w, r, appErrors.NewValidation("csv_file", "missing file"))
			return
		}
		defer file.Close()
		src = file
	}

	res, err := c.FieldRepService.ImportFieldReps(r.Context(), p, id, src)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

type activeBody struct {
	IsActive *bool `json:"is_active"`
}

func decodeActive(w http.ResponseWriter, r *http.Request) (bool, error) {
	var body activeBody
	if err := decodeBody(w, r, &body); err != nil {
		return false, err
	}
	if body.IsActive == nil {
		return false, appErrors.NewValidation("is_active", "required")
	}
	return *body.IsActive, nil
}

func (c *CampaignController) PatchFieldRep(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	repID, err := int64Param(r, "repID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	active, err := decodeActive(w, r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	rep, err := c.FieldRepService.SetFieldRepActive(r.Context(), p, repID, active)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rep)
}

func (c *CampaignController) ListCollaterals(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	list, err := c.CampaignService.ListCollaterals(r.Context(), p, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if list == nil {
		list = []*model.Collateral{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"collaterals": list})
}

func (c *CampaignController) AddCollateral(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	var body service.CollateralInput
	if err := decodeBody(w, r, &body); err != nil {
		respond.Error(w, r, err)
		return
	}

	col, err := c.CampaignService.AddCollateral(r.Context(), p, id, body)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, col)
}

func (c *CampaignController) PatchCollateral(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	colID, err := int64Param(r, "collateralID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	active, err := decodeActive(w, r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	col, err := c.CampaignService.SetCollateralActive(r.Context(), p, colID, active)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, col)
}

// PreviewCollateral is public so publishers can share previews with brands.
func (c *CampaignController) PreviewCollateral(w http.ResponseWriter, r *http.Request) {
	colID, err := int64Param(r, "collateralID")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	col, err := c.CampaignService.PreviewCollateral(r.Context(), colID)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, col)
}
