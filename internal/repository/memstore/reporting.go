package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/repository"
)

// ReportingStore is the reporting store. Rows are keyed by event id.
type ReportingStore struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.ReportingEvent

	// FailInsertFor makes InsertIfAbsent fail for the given ids.
	FailInsertFor map[uuid.UUID]error
}

func NewReporting() *ReportingStore {
	return &ReportingStore{
		rows:          map[uuid.UUID]*model.ReportingEvent{},
		FailInsertFor: map[uuid.UUID]error{},
	}
}

func (s *ReportingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *ReportingStore) Has(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[id]
	return ok
}

func (s *ReportingStore) InsertIfAbsent(ctx context.Context, ev *model.ReportingEvent) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailInsertFor[ev.ID]; err != nil {
		return false, err
	}
	if _, ok := s.rows[ev.ID]; ok {
		return false, nil
	}
	cp := *ev
	s.rows[ev.ID] = &cp
	return true, nil
}

func (s *ReportingStore) CountDistinctDoctors(_ context.Context, campaignID uuid.UUID, f model.ReportFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doctors := map[int64]struct{}{}
	for _, row := range s.rows {
		if row.CampaignID != campaignID {
			continue
		}
		if f.EventType != "" && row.EventType != f.EventType {
			continue
		}
		if f.MinPercentage != nil && (row.VideoPercentage == nil || *row.VideoPercentage < *f.MinPercentage) {
			continue
		}
		if f.Percentage != nil && (row.VideoPercentage == nil || *row.VideoPercentage != *f.Percentage) {
			continue
		}
		doctors[row.DoctorID] = struct{}{}
	}
	return int64(len(doctors)), nil
}

func (s *ReportingStore) CountEvents(_ context.Context, campaignID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, row := range s.rows {
		if row.CampaignID == campaignID {
			n++
		}
	}
	return n, nil
}

func (s *ReportingStore) Recent(_ context.Context, campaignID uuid.UUID, limit int) ([]*model.ReportingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.ReportingEvent{}
	for _, row := range s.rows {
		if row.CampaignID == campaignID {
			cp := *row
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

var (
	_ repository.ReportingRepositoryInterface  = (*ReportingStore)(nil)
	_ repository.UserRepositoryInterface       = userRepo{}
	_ repository.CampaignRepositoryInterface   = campaignRepo{}
	_ repository.FieldRepRepositoryInterface   = fieldRepRepo{}
	_ repository.DoctorRepositoryInterface     = doctorRepo{}
	_ repository.CollateralRepositoryInterface = collateralRepo{}
	_ repository.LedgerRepositoryInterface     = ledgerRepo{}
)
