// Package memstore keeps both stores in process memory. It enforces the
// same uniqueness rules as the Postgres schema and backs tests and the
// `store.driver=memory` mode.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/repository"
)

// Store is the operational store.
type Store struct {
	mu sync.Mutex

	users       map[int64]*model.User
	campaigns   map[uuid.UUID]*model.Campaign
	recruitment map[uuid.UUID]*model.RecruitmentLink
	systems     map[int64]*model.CampaignSystem
	fieldReps   map[int64]*model.FieldRep
	doctors     map[int64]*model.Doctor
	collaterals map[int64]*model.Collateral
	shares      map[int64]*model.ShareInstance
	clicks      map[int64]*model.ShareClick
	events      []*eventRow

	nextID int64
	seq    int64

	// FailNextEvent makes the next event insert fail; used to prove atomicity.
	FailNextEvent error
	// FailDeleteFor makes DeleteEvent fail for the given ids.
	FailDeleteFor map[uuid.UUID]error
}

type eventRow struct {
	seq   int64
	event model.Event
}

func New() *Store {
	return &Store{
		users:       map[int64]*model.User{},
		campaigns:   map[uuid.UUID]*model.Campaign{},
		recruitment: map[uuid.UUID]*model.RecruitmentLink{},
		systems:     map[int64]*model.CampaignSystem{},
		fieldReps:   map[int64]*model.FieldRep{},
		doctors:     map[int64]*model.Doctor{},
		collaterals: map[int64]*model.Collateral{},
		shares:      map[int64]*model.ShareInstance{},
		clicks:      map[int64]*model.ShareClick{},

		FailDeleteFor: map[uuid.UUID]error{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Repositories bound to this store.
func (s *Store) Users() repository.UserRepositoryInterface             { return userRepo{s} }
func (s *Store) Campaigns() repository.CampaignRepositoryInterface     { return campaignRepo{s} }
func (s *Store) FieldReps() repository.FieldRepRepositoryInterface     { return fieldRepRepo{s} }
func (s *Store) Doctors() repository.DoctorRepositoryInterface         { return doctorRepo{s} }
func (s *Store) Collaterals() repository.CollateralRepositoryInterface { return collateralRepo{s} }
func (s *Store) Ledger() repository.LedgerRepositoryInterface          { return ledgerRepo{s} }

// Set pairs the operational repositories with a reporting store.
func (s *Store) Set(reporting repository.ReportingRepositoryInterface) repository.Set {
	return repository.Set{
		Users:       s.Users(),
		Campaigns:   s.Campaigns(),
		FieldReps:   s.FieldReps(),
		Doctors:     s.Doctors(),
		Collaterals: s.Collaterals(),
		Ledger:      s.Ledger(),
		Reporting:   reporting,
	}
}

// ShareCount and EventsFor are inspection helpers for tests.
func (s *Store) ShareCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shares)
}

func (s *Store) EventsFor(shareID int64, kind model.EventType) []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Event{}
	for _, row := range s.events {
		if row.event.ShareInstanceID == shareID && (kind == "" || row.event.Type == kind) {
			out = append(out, row.event)
		}
	}
	return out
}

// BackdateShare rewrites a share's creation time.
func (s *Store) BackdateShare(shareID int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh, ok := s.shares[shareID]; ok {
		sh.CreatedAt = at
	}
}

// ====================== users ======================

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Username == u.Username {
			return appErrors.ErrDuplicate
		}
	}
	u.ID = r.s.id()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, appErrors.NewNotFound("user", username)
}

func (r userRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, appErrors.NewNotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

// fits rejects values wider than their Postgres VARCHAR column.
func fits(column, v string, width int) error {
	if utf8.RuneCountInString(v) > width {
		return errors.Errorf("value too long for %s (max %d)", column, width)
	}
	return nil
}

// ====================== campaigns ======================

type campaignRepo struct{ s *Store }

func (r campaignRepo) Create(_ context.Context, c *model.Campaign, kinds []model.SystemKind) (*model.RecruitmentLink, error) {
	if err := fits("contact_phone", c.ContactPhone, model.MaxPhoneLen); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seen := map[model.SystemKind]bool{}
	for _, k := range kinds {
		if seen[k] {
			return nil, appErrors.ErrDuplicateSystem
		}
		seen[k] = true
	}

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	cp := *c
	r.s.campaigns[c.ID] = &cp

	for _, k := range kinds {
		sys := &model.CampaignSystem{ID: r.s.id(), CampaignID: c.ID, Kind: k, Status: model.SystemDraft}
		r.s.systems[sys.ID] = sys
	}

	link := &model.RecruitmentLink{CampaignID: c.ID, Token: uuid.New()}
	r.s.recruitment[c.ID] = link
	out := *link
	return &out, nil
}

func (r campaignRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (r campaignRepo) ListByOwner(_ context.Context, ownerID int64) ([]*model.Campaign, error) {
	return r.list(func(c *model.Campaign) bool { return c.CreatedBy == ownerID }), nil
}

func (r campaignRepo) ListAll(_ context.Context) ([]*model.Campaign, error) {
	return r.list(func(*model.Campaign) bool { return true }), nil
}

func (r campaignRepo) list(keep func(*model.Campaign) bool) []*model.Campaign {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.Campaign{}
	for _, c := range r.s.campaigns {
		if keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r campaignRepo) UpdateContact(_ context.Context, c *model.Campaign) error {
	if err := fits("contact_phone", c.ContactPhone, model.MaxPhoneLen); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.campaigns[c.ID]
	if !ok {
		return appErrors.NewCampaignNotFound(c.ID)
	}
	owner, created := existing.CreatedBy, existing.CreatedAt
	*existing = *c
	existing.CreatedBy, existing.CreatedAt = owner, created
	return nil
}

func (r campaignRepo) GetRecruitmentLink(_ context.Context, campaignID uuid.UUID) (*model.RecruitmentLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	link, ok := r.s.recruitment[campaignID]
	if !ok {
		return nil, appErrors.NewNotFound("recruitment link", campaignID)
	}
	cp := *link
	return &cp, nil
}

func (r campaignRepo) CreateSystem(_ context.Context, sys *model.CampaignSystem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.campaigns[sys.CampaignID]; !ok {
		return appErrors.NewCampaignNotFound(sys.CampaignID)
	}
	for _, existing := range r.s.systems {
		if existing.CampaignID == sys.CampaignID && existing.Kind == sys.Kind {
			return appErrors.ErrDuplicateSystem
		}
	}
	if sys.Status == "" {
		sys.Status = model.SystemDraft
	}
	sys.ID = r.s.id()
	cp := *sys
	r.s.systems[sys.ID] = &cp
	return nil
}

func (r campaignRepo) GetSystem(_ context.Context, campaignID uuid.UUID, kind model.SystemKind) (*model.CampaignSystem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sys := range r.s.systems {
		if sys.CampaignID == campaignID && sys.Kind == kind {
			cp := *sys
			return &cp, nil
		}
	}
	return nil, appErrors.NewNotFound("campaign system", kind)
}

func (r campaignRepo) ListSystems(_ context.Context, campaignID uuid.UUID) ([]*model.CampaignSystem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.CampaignSystem{}
	for _, sys := range r.s.systems {
		if sys.CampaignID == campaignID {
			cp := *sys
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r campaignRepo) UpdateSystem(_ context.Context, sys *model.CampaignSystem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.systems[sys.ID]
	if !ok {
		return appErrors.NewNotFound("campaign system", sys.ID)
	}
	campaignID, kind := existing.CampaignID, existing.Kind
	*existing = *sys
	existing.CampaignID, existing.Kind = campaignID, kind
	return nil
}

// ====================== field reps ======================

type fieldRepRepo struct{ s *Store }

func (r fieldRepRepo) ImportBatch(_ context.Context, campaignID uuid.UUID, reps []*model.FieldRep) (int, error) {
	for _, rep := range reps {
		if err := fits("brand_rep_id", rep.BrandRepID, model.MaxBrandRepIDLen); err != nil {
			return 0, err
		}
		if err := fits("phone", rep.Phone, model.MaxPhoneLen); err != nil {
			return 0, err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	created := 0
	for _, rep := range reps {
		if existing := r.s.findRep(campaignID, rep.BrandRepID); existing != nil {
			*rep = *existing
			continue
		}
		rep.ID = r.s.id()
		rep.CampaignID = campaignID
		rep.IsActive = true
		cp := *rep
		r.s.fieldReps[rep.ID] = &cp
		created++
	}
	return created, nil
}

func (s *Store) findRep(campaignID uuid.UUID, brandRepID string) *model.FieldRep {
	for _, f := range s.fieldReps {
		if f.CampaignID == campaignID && f.BrandRepID == brandRepID {
			return f
		}
	}
	return nil
}

func (r fieldRepRepo) GetByID(_ context.Context, id int64) (*model.FieldRep, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.fieldReps[id]
	if !ok {
		return nil, appErrors.NewNotFound("field rep", id)
	}
	cp := *f
	return &cp, nil
}

func (r fieldRepRepo) FindActiveForLogin(_ context.Context, campaignID uuid.UUID, brandRepID, email string) (*model.FieldRep, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f := r.s.findRep(campaignID, brandRepID)
	if f == nil || !f.IsActive || !strings.EqualFold(f.Email, email) {
		return nil, appErrors.NewNotFound("field rep", brandRepID)
	}
	cp := *f
	return &cp, nil
}

func (r fieldRepRepo) Search(_ context.Context, campaignID uuid.UUID, q string) ([]*model.FieldRep, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(q))
	out := []*model.FieldRep{}
	for _, f := range r.s.fieldReps {
		if f.CampaignID != campaignID {
			continue
		}
		if strings.Contains(strings.ToLower(f.BrandRepID), needle) || strings.Contains(strings.ToLower(f.Email), needle) {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fieldRepRepo) SetActive(_ context.Context, id int64, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.fieldReps[id]
	if !ok {
		return appErrors.NewNotFound("field rep", id)
	}
	f.IsActive = active
	return nil
}

// ====================== doctors ======================

type doctorRepo struct{ s *Store }

func (r doctorRepo) GetOrCreate(_ context.Context, d *model.Doctor) (*model.Doctor, bool, error) {
	if err := fits("whatsapp_number", d.WhatsAppNumber, model.MaxPhoneLen); err != nil {
		return nil, false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.doctors {
		if existing.CampaignID == d.CampaignID && existing.FieldRepID == d.FieldRepID && existing.WhatsAppNumber == d.WhatsAppNumber {
			cp := *existing
			return &cp, false, nil
		}
	}
	d.ID = r.s.id()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	cp := *d
	r.s.doctors[d.ID] = &cp
	return d, true, nil
}

func (r doctorRepo) GetByID(_ context.Context, id int64) (*model.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.doctors[id]
	if !ok {
		return nil, appErrors.NewNotFound("doctor", id)
	}
	cp := *d
	return &cp, nil
}

func (r doctorRepo) ListByFieldRep(_ context.Context, fieldRepID int64) ([]*model.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.Doctor{}
	for _, d := range r.s.doctors {
		if d.FieldRepID == fieldRepID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ====================== collaterals ======================

type collateralRepo struct{ s *Store }

func (r collateralRepo) Create(_ context.Context, c *model.Collateral) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.id()
	cp := *c
	r.s.collaterals[c.ID] = &cp
	return nil
}

func (r collateralRepo) GetByID(_ context.Context, id int64) (*model.Collateral, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.collaterals[id]
	if !ok {
		return nil, appErrors.NewNotFound("collateral", id)
	}
	cp := *c
	return &cp, nil
}

func (r collateralRepo) ListByCampaign(_ context.Context, campaignID uuid.UUID, activeOnly bool) ([]*model.Collateral, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*model.Collateral{}
	for _, c := range r.s.collaterals {
		if c.CampaignID == campaignID && (!activeOnly || c.IsActive) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r collateralRepo) SetActive(_ context.Context, id int64, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.collaterals[id]
	if !ok {
		return appErrors.NewNotFound("collateral", id)
	}
	c.IsActive = active
	return nil
}
