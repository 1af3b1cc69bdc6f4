package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"

	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
)

type ledgerRepo struct{ s *Store }

func (r ledgerRepo) CreateShare(_ context.Context, share *model.ShareInstance, initial *model.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.shares {
		if existing.ShortCode == share.ShortCode {
			return appErrors.ErrShortCodeTaken
		}
	}
	// Nothing is stored until both rows are known to be writable.
	if err := r.s.FailNextEvent; err != nil {
		r.s.FailNextEvent = nil
		return err
	}

	share.ID = r.s.id()
	cp := *share
	r.s.shares[share.ID] = &cp

	initial.ShareInstanceID = share.ID
	r.s.appendLocked(initial)
	return nil
}

func (s *Store) appendLocked(ev *model.Event) {
	s.seq++
	s.events = append(s.events, &eventRow{seq: s.seq, event: *ev})
}

func (r ledgerRepo) GetShareByCode(_ context.Context, code string) (*model.ShareInstance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sh := range r.s.shares {
		if sh.ShortCode == code {
			cp := *sh
			return &cp, nil
		}
	}
	return nil, appErrors.NewNotFound("share", code)
}

func (r ledgerRepo) LatestShare(_ context.Context, fieldRepID, doctorID int64) (*model.ShareInstance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *model.ShareInstance
	for _, sh := range r.s.shares {
		if sh.FieldRepID != fieldRepID || sh.DoctorID != doctorID {
			continue
		}
		if latest == nil || sh.CreatedAt.After(latest.CreatedAt) ||
			(sh.CreatedAt.Equal(latest.CreatedAt) && sh.ID > latest.ID) {
			latest = sh
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r ledgerRepo) MarkLinkClicked(_ context.Context, share *model.ShareInstance, ev *model.Event) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clicks[share.ID]; ok {
		return false, nil
	}
	if err := r.s.FailNextEvent; err != nil {
		r.s.FailNextEvent = nil
		return false, err
	}
	r.s.clicks[share.ID] = &model.ShareClick{ShareInstanceID: share.ID, EventID: ev.ID, ClickedAt: ev.CreatedAt}
	r.s.appendLocked(ev)
	return true, nil
}

func (r ledgerRepo) HasLinkClick(_ context.Context, shareID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.clicks[shareID]
	return ok, nil
}

func (r ledgerRepo) AppendEvent(_ context.Context, ev *model.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.FailNextEvent; err != nil {
		r.s.FailNextEvent = nil
		return err
	}
	r.s.appendLocked(ev)
	return nil
}

func (r ledgerRepo) OldestEvents(_ context.Context, limit int) ([]*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rows := make([]*eventRow, len(r.s.events))
	copy(rows, r.s.events)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].event.CreatedAt.Equal(rows[j].event.CreatedAt) {
			return rows[i].seq < rows[j].seq
		}
		return rows[i].event.CreatedAt.Before(rows[j].event.CreatedAt)
	})
	if limit < len(rows) {
		rows = rows[:limit]
	}
	out := make([]*model.Event, 0, len(rows))
	for _, row := range rows {
		ev := row.event
		out = append(out, &ev)
	}
	return out, nil
}

func (r ledgerRepo) DeleteEvent(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.FailDeleteFor[id]; err != nil {
		return err
	}
	for i, row := range r.s.events {
		if row.event.ID == id {
			r.s.events = append(r.s.events[:i], r.s.events[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r ledgerRepo) CountEvents(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.events), nil
}
