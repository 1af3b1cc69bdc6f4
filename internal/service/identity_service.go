package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/unclebandit/medshare-backend/internal/auth"
	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/repository"
)

type IdentityService struct {
	Users     repository.UserRepositoryInterface
	FieldReps repository.FieldRepRepositoryInterface
	Tokens    *auth.TokenManager
}

// TokenResponse is returned by every login.
type TokenResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Role        model.Role `json:"role"`
}

func (s *IdentityService) Register(ctx context.Context, username, password string, role model.Role) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, appErrors.NewValidation("username", "required")
	}
	if len(password) < 8 {
		return nil, appErrors.NewValidation("password", "must be at least 8 characters")
	}
	if !role.Valid() {
		return nil, appErrors.NewValidation("role", "must be publisher or brand_manager")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	u := &model.User{Username: username, PasswordHash: string(hash), Role: role}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	log.Info().Int64("user_id", u.ID).Str("role", string(role)).Msg("user registered")
	return u, nil
}

// Login never says which of username or password was wrong.
func (s *IdentityService) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	u, err := s.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, appErrors.ErrNotFound) {
		return nil, appErrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, appErrors.ErrInvalidCredentials
	}
	return s.issue(auth.Principal{UserID: u.ID, Role: u.Role})
}

// FieldRepLogin admits active reps by campaign, brand id and email.
func (s *IdentityService) FieldRepLogin(ctx context.Context, campaignID uuid.UUID, brandRepID, email string) (*TokenResponse, error) {
	rep, err := s.FieldReps.FindActiveForLogin(ctx, campaignID, strings.TrimSpace(brandRepID), strings.TrimSpace(email))
	if errors.Is(err, appErrors.ErrNotFound) {
		return nil, appErrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return s.issue(auth.Principal{Role: model.RoleFieldRep, FieldRepID: rep.ID, CampaignID: rep.CampaignID})
}

func (s *IdentityService) issue(p auth.Principal) (*TokenResponse, error) {
	token, exp, err := s.Tokens.Issue(p)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{AccessToken: token, ExpiresAt: exp, Role: p.Role}, nil
}
