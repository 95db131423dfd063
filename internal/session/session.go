// Package session issues and verifies the signed tokens that identify a team
// or a tournament organizer between requests.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned for malformed or otherwise unusable tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token's exp claim has passed.
	ErrExpiredToken = errors.New("token expired")
	// ErrInvalidSignature is returned when the token was not signed by us.
	ErrInvalidSignature = errors.New("invalid token signature")
)

// Role is what a token holder is allowed to do.
type Role string

const (
	// RoleTeam may record scores for a single team.
	RoleTeam Role = "team"
	// RoleAdmin may record scores for any team in one tournament.
	RoleAdmin Role = "admin"
)

// Claims is the decoded content of a session token.
type Claims struct {
	Role           Role
	TournamentID   uuid.UUID
	TournamentCode string
	TeamID         uuid.UUID
	TeamName       string
	IssuedAt       time.Time
	ExpiresAt      time.Time
}

// CanScore reports whether the holder may record a score for the given team.
func (c *Claims) CanScore(teamID, tournamentID uuid.UUID) bool {
	if c == nil {
		return false
	}
	switch c.Role {
	case RoleTeam:
		return c.TeamID == teamID && c.TournamentID == tournamentID
	case RoleAdmin:
		return c.TournamentID == tournamentID
	default:
		return false
	}
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Role           string `json:"role"`
	TournamentID   string `json:"tournament_id"`
	TournamentCode string `json:"tournament_code,omitempty"`
	TeamID         string `json:"team_id,omitempty"`
	TeamName       string `json:"team_name,omitempty"`
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. Tokens expire ttl after they are issued.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TeamToken issues a token that lets its holder score for one team.
func (i *Issuer) TeamToken(tournamentID uuid.UUID, tournamentCode string, teamID uuid.UUID, teamName string) (string, error) {
	return i.issue(Claims{
		Role:           RoleTeam,
		TournamentID:   tournamentID,
		TournamentCode: tournamentCode,
		TeamID:         teamID,
		TeamName:       teamName,
	})
}

// AdminToken issues a token for the organizer of a tournament.
func (i *Issuer) AdminToken(tournamentID uuid.UUID, tournamentCode string) (string, error) {
	return i.issue(Claims{
		Role:           RoleAdmin,
		TournamentID:   tournamentID,
		TournamentCode: tournamentCode,
	})
}

func (i *Issuer) issue(c Claims) (string, error) {
	now := i.now()
	claims := &tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role:           string(c.Role),
		TournamentID:   c.TournamentID.String(),
		TournamentCode: c.TournamentCode,
	}
	if c.TeamID != uuid.Nil {
		claims.Subject = c.TeamID.String()
		claims.TeamID = c.TeamID.String()
		claims.TeamName = c.TeamName
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns its claims.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, ErrInvalidSignature
		}
		return nil, ErrInvalidToken
	}

	tc, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims := &Claims{
		Role:           Role(tc.Role),
		TournamentCode: tc.TournamentCode,
		TeamName:       tc.TeamName,
	}
	if claims.Role != RoleTeam && claims.Role != RoleAdmin {
		return nil, ErrInvalidToken
	}
	if claims.TournamentID, err = uuid.Parse(tc.TournamentID); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.Role == RoleTeam {
		if claims.TeamID, err = uuid.Parse(tc.TeamID); err != nil {
			return nil, ErrInvalidToken
		}
	}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		claims.ExpiresAt = tc.ExpiresAt.Time
	}
	return claims, nil
}

type contextKey struct{}

// WithClaims returns a copy of ctx carrying the caller's claims.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the claims stored by WithClaims, if any.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(contextKey{}).(*Claims)
	return c, ok && c != nil
}
