package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/unclebandit/medshare-backend/internal/auth"
	"github.com/unclebandit/medshare-backend/internal/cache"
	"github.com/unclebandit/medshare-backend/internal/handler"
	"github.com/unclebandit/medshare-backend/internal/logger"
	"github.com/unclebandit/medshare-backend/internal/middleware"
	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/repository"
	"github.com/unclebandit/medshare-backend/internal/respond"
	"github.com/unclebandit/medshare-backend/internal/service"
)

type RouterConfig struct {
	Services     *service.Services
	Repos        repository.Set
	Tokens       *auth.TokenManager
	Claims       cache.ClaimStore
	SecureCookie bool
}

// NewRouter mounts every HTTP route.
func NewRouter(cfg RouterConfig) *chi.Mux {
	svc := cfg.Services
	authCtl := &AuthController{Identity: svc.Identity}
	campaignCtl := &CampaignController{CampaignService: svc.Campaigns, FieldRepService: svc.FieldReps}
	fieldCtl := &FieldRepController{FieldRepService: svc.FieldReps}
	brandCtl := &BrandController{
		CampaignService:  svc.Campaigns,
		FieldRepService:  svc.FieldReps,
		ReportingService: svc.Reporting,
	}
	shares := &handler.ShareLinkHandler{
		Ledger:       svc.Ledger,
		Doctors:      cfg.Repos.Doctors,
		Collaterals:  cfg.Repos.Collaterals,
		Claims:       cfg.Claims,
		SecureCookie: cfg.SecureCookie,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(logger.RequestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/login", authCtl.Login)
	r.Post("/field/login", authCtl.FieldLogin)
	r.Get("/collaterals/{collateralID}/preview", campaignCtl.PreviewCollateral)

	r.Get("/s/{code}/", shares.Open)
	r.Post("/s/{code}/", shares.Verify)
	r.Get("/s/{code}/landing/", shares.Landing)
	r.Get("/s/{code}/track/", shares.Track)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(cfg.Tokens))

		r.With(middleware.RequireRole(model.RolePublisher, model.RoleBrandManager)).
			Get("/dashboard", campaignCtl.Dashboard)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RolePublisher))
			r.Post("/publisher/campaigns", campaignCtl.CreateCampaign)
			r.Get("/publisher/campaigns/{id}", campaignCtl.GetCampaign)
			r.Put("/publisher/campaigns/{id}", campaignCtl.UpdateCampaign)
			r.Post("/publisher/campaigns/{id}/systems", campaignCtl.AddSystem)
			r.Put("/publisher/campaigns/{id}/systems/{kind}", campaignCtl.ConfigureSystem)
			r.Post("/publisher/campaigns/{id}/field-reps/upload", campaignCtl.UploadFieldReps)
			r.Patch("/publisher/field-reps/{repID}", campaignCtl.PatchFieldRep)
			r.Get("/publisher/campaigns/{id}/collaterals", campaignCtl.ListCollaterals)
			r.Post("/publisher/campaigns/{id}/collaterals", campaignCtl.AddCollateral)
			r.Patch("/publisher/collaterals/{collateralID}", campaignCtl.PatchCollateral)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleFieldRep))
			r.Get("/field/doctors", fieldCtl.Doctors)
			r.Get("/field/collaterals", fieldCtl.Collaterals)
			r.Post("/field/share", fieldCtl.Share)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(model.RoleBrandManager))
			r.Get("/brand/campaigns/{id}/field-reps", brandCtl.SearchFieldReps)
			r.Get("/brand/campaigns/{id}/reports", brandCtl.Reports)
		})
	})

	return r
}
