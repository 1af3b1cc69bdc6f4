// internal/controller/brand_controller.go
package controller

import (
	"net/http"

	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/respond"
	"github.com/unclebandit/medshare-backend/internal/service"
)

// BrandController serves the read-only brand manager views.
type BrandController struct {
	CampaignService  *service.CampaignService
	FieldRepService  *service.FieldRepService
	ReportingService *service.ReportingService
}

func (c *BrandController) SearchFieldReps(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	reps, err := c.FieldRepService.SearchFieldReps(r.Context(), id, r.URL.Query().Get("q"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if reps == nil {
		reps = []*model.FieldRep{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"field_reps": reps})
}

func (c *BrandController) Reports(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if _, err := c.CampaignService.CampaignRepo.GetByID(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}
	report, err := c.ReportingService.Report(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if report.Events == nil {
		report.Events = []*model.ReportingEvent{}
	}
	respond.JSON(w, http.StatusOK, report)
}
