package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/soundwave-agency/agency-server/internal/errors"
	"github.com/soundwave-agency/agency-server/internal/metrics"
	"github.com/soundwave-agency/agency-server/internal/model"
	"github.com/soundwave-agency/agency-server/internal/repository"
	"github.com/soundwave-agency/agency-server/internal/util"
)

// Principal is an authenticated account together with the client it owns.
// Client fields are zero for managers.
type Principal struct {
	Account  model.Account
	ClientID *int64
	Username string
	Avatar   *string
}

func (p *Principal) snapshot(now time.Time) *model.SessionSnapshot {
	return &model.SessionSnapshot{
		AccountID: p.Account.ID,
		Name:      p.Account.Name,
		Email:     p.Account.Email,
		Role:      p.Account.Role,
		ClientID:  p.ClientID,
		Username:  p.Username,
		Avatar:    p.Avatar,
		CreatedAt: now,
	}
}

// decoyHash is compared against when the identifier is unknown so both
// failure paths cost one bcrypt comparison.
var decoyHash = sync.OnceValue(func() string {
	hash, err := util.HashPassword("decoy-password-for-unknown-accounts")
	if err != nil {
		log.Error().Err(err).Msg("failed to build decoy password hash")
		return ""
	}
	return hash
})

type AuthService struct {
	accountRepo   repository.AccountRepository
	sessionRepo   repository.SessionRepository
	sessionSecret string
	sessionTTL    time.Duration
	now           func() time.Time
}

func NewAuthService(
	accountRepo repository.AccountRepository,
	sessionRepo repository.SessionRepository,
	sessionSecret string,
	sessionTTL time.Duration,
) *AuthService {
	return &AuthService{
		accountRepo:   accountRepo,
		sessionRepo:   sessionRepo,
		sessionSecret: sessionSecret,
		sessionTTL:    sessionTTL,
		now:           time.Now,
	}
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Authenticate checks identifier and password within scope. Managers log in
// by email, clients by username. Every credential mismatch returns the same
// InvalidCredentials error.
func (s *AuthService) Authenticate(ctx context.Context, scope model.Role, identifier, password string) (p *Principal, err error) {
	defer func() { metrics.ObserveLogin(string(scope), err) }()

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperrors.ValidationError("Please provide both identifier and password")
	}

	var storedHash *string
	switch scope {
	case model.RoleManager:
		email := util.NormalizeEmail(identifier)
		if !util.IsValidEmail(email) {
			return nil, apperrors.ValidationError("Please enter a valid email address")
		}
		account, err := s.accountRepo.FindByEmailAndRole(ctx, email, model.RoleManager)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if account != nil {
			p = &Principal{Account: *account}
			storedHash = account.PasswordHash
		}

	case model.RoleClient:
		account, err := s.accountRepo.FindClientByUsername(ctx, identifier)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if account != nil {
			clientID := account.ClientID
			p = &Principal{
				Account:  account.Account,
				ClientID: &clientID,
				Username: account.Username,
				Avatar:   account.Avatar,
			}
			storedHash = account.PasswordHash
		}

	default:
		return nil, apperrors.ValidationError(fmt.Sprintf("unknown login scope %q", scope))
	}

	if p == nil || storedHash == nil || *storedHash == "" {
		util.CheckPasswordHash(password, decoyHash())
		return nil, apperrors.InvalidCredentials()
	}
	if !util.CheckPasswordHash(password, *storedHash) {
		return nil, apperrors.InvalidCredentials()
	}

	return p, nil
}

// EstablishSession destroys priorToken, if any, and stores a snapshot of p
// under a freshly generated token. On error no session for p exists.
func (s *AuthService) EstablishSession(ctx context.Context, priorToken string, p *Principal) (string, *model.SessionSnapshot, error) {
	if priorToken != "" {
		if err := s.sessionRepo.Destroy(ctx, s.hashToken(priorToken)); err != nil {
			return "", nil, apperrors.SessionError(fmt.Errorf("destroy prior session: %w", err))
		}
	}

	token, err := util.GenerateToken()
	if err != nil {
		return "", nil, apperrors.SessionError(fmt.Errorf("generate token: %w", err))
	}

	tokenHash := s.hashToken(token)
	snapshot := p.snapshot(s.now())
	if err := s.sessionRepo.Set(ctx, tokenHash, snapshot, s.sessionTTL); err != nil {
		if delErr := s.sessionRepo.Destroy(ctx, tokenHash); delErr != nil {
			log.Warn().Err(delErr).Int64("accountId", p.Account.ID).Msg("failed to clean up partial session")
		}
		return "", nil, apperrors.SessionError(fmt.Errorf("save session: %w", err))
	}

	log.Info().
		Int64("accountId", p.Account.ID).
		Str("role", string(p.Account.Role)).
		Msg("session established")

	return token, snapshot, nil
}

// TerminateSession is idempotent. Callers clear the cookie even when it fails.
func (s *AuthService) TerminateSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessionRepo.Destroy(ctx, s.hashToken(token)); err != nil {
		log.Error().Err(err).Msg("failed to destroy session")
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// ResolveSession returns the snapshot for token, or nil when the token is
// unknown or expired.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*model.SessionSnapshot, error) {
	if token == "" {
		return nil, nil
	}
	return s.sessionRepo.Get(ctx, s.hashToken(token))
}

// UpdateSnapshot rewrites the cached snapshot for token in place, keeping its
// expiry. A missing session is left missing.
func (s *AuthService) UpdateSnapshot(ctx context.Context, token string, mutate func(*model.SessionSnapshot)) error {
	tokenHash := s.hashToken(token)
	snapshot, err := s.sessionRepo.Get(ctx, tokenHash)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if snapshot == nil {
		return nil
	}

	mutate(snapshot)
	if _, err := s.sessionRepo.Replace(ctx, tokenHash, snapshot); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	return nil
}

func (s *AuthService) hashToken(token string) string {
	return util.HmacSHA256(s.sessionSecret, token)
}
