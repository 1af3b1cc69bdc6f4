// internal/controller/field_rep_controller.go
package controller

import (
	"net/http"

	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/respond"
	"github.com/unclebandit/medshare-backend/internal/service"
)

type FieldRepController struct {
	FieldRepService *service.FieldRepService
}

func (c *FieldRepController) Doctors(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	doctors, err := c.FieldRepService.DoctorsWithStatus(r.Context(), p)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if doctors == nil {
		doctors = []model.DoctorWithStatus{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"doctors": doctors})
}

func (c *FieldRepController) Collaterals(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	list, err := c.FieldRepService.ActiveCollaterals(r.Context(), p)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	if list == nil {
		list = []*model.Collateral{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"collaterals": list})
}

func (c *FieldRepController) Share(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var body service.ShareInput
	if err := decodeBody(w, r, &body); err != nil {
		respond.Error(w, r, err)
		return
	}

	res, err := c.FieldRepService.ShareFromFieldRep(r.Context(), p, body)
	if err != nil {
		respond.Error(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, res)
}
