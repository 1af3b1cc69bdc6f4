// Package auth issues and verifies the bearer tokens used by publishers,
// brand managers and field reps.
package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/model"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID     int64      `json:"user_id,omitempty"`
	Role       model.Role `json:"role"`
	FieldRepID int64      `json:"field_rep_id,omitempty"`
	CampaignID uuid.UUID  `json:"campaign_id,omitempty"`
}

type Claims struct {
	Role       model.Role `json:"role"`
	FieldRepID int64      `json:"frid,omitempty"`
	CampaignID string     `json:"cid,omitempty"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	Now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, Now: time.Now}
}

// Issue signs an HS256 token for p.
func (m *TokenManager) Issue(p Principal) (string, time.Time, error) {
	now := m.Now().UTC()
	exp := now.Add(m.ttl)

	claims := Claims{
		Role:       p.Role,
		FieldRepID: p.FieldRepID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	if p.UserID != 0 {
		claims.Subject = strconv.FormatInt(p.UserID, 10)
	}
	if p.CampaignID != uuid.Nil {
		claims.CampaignID = p.CampaignID.String()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign token")
	}
	return signed, exp, nil
}

// Parse verifies the signature and expiry. Every failure maps to
// ErrInvalidCredentials.
func (m *TokenManager) Parse(raw string) (*Principal, error) {
	var claims Claims
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	tok, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, appErrors.ErrInvalidCredentials
	}

	p := &Principal{Role: claims.Role, FieldRepID: claims.FieldRepID}
	if claims.Subject != "" {
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			return nil, appErrors.ErrInvalidCredentials
		}
		p.UserID = id
	}
	if claims.CampaignID != "" {
		cid, err := uuid.Parse(claims.CampaignID)
		if err != nil {
			return nil, appErrors.ErrInvalidCredentials
		}
		p.CampaignID = cid
	}

	switch p.Role {
	case model.RolePublisher, model.RoleBrandManager:
		if p.UserID == 0 {
			return nil, appErrors.ErrInvalidCredentials
		}
	case model.RoleFieldRep:
		if p.FieldRepID == 0 {
			return nil, appErrors.ErrInvalidCredentials
		}
	default:
		return nil, appErrors.ErrInvalidCredentials
	}
	return p, nil
}
