package service

import (
	"context"
	"time"

	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/repository"
)

// ReminderAfter is how long an unclicked share waits before a reminder is due.
const ReminderAfter = 6 * 24 * time.Hour

type StatusService struct {
	Ledger repository.LedgerRepositoryInterface
	Now    func() time.Time
}

func NewStatusService(ledger repository.LedgerRepositoryInterface) *StatusService {
	return &StatusService{Ledger: ledger, Now: time.Now}
}

// DoctorStatus looks only at the most recent share between rep and doctor.
func (s *StatusService) DoctorStatus(ctx context.Context, fieldRepID, doctorID int64) (model.DoctorStatus, error) {
	latest, err := s.Ledger.LatestShare(ctx, fieldRepID, doctorID)
	if err != nil {
		return "", err
	}
	if latest == nil {
		return model.StatusSendMessage, nil
	}

	clicked, err := s.Ledger.HasLinkClick(ctx, latest.ID)
	if err != nil {
		return "", err
	}
	if clicked {
		return model.StatusRead, nil
	}
	if s.Now().Sub(latest.CreatedAt) >= ReminderAfter {
		return model.StatusSendReminder, nil
	}
	return model.StatusSent, nil
}
