package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	apperrors "github.com/soundwave-agency/agency-server/internal/errors"
	"github.com/soundwave-agency/agency-server/internal/metrics"
	"github.com/soundwave-agency/agency-server/internal/model"
	"github.com/soundwave-agency/agency-server/internal/repository"
	"github.com/soundwave-agency/agency-server/internal/storage"
	"github.com/soundwave-agency/agency-server/internal/util"
)

// AvatarStore persists avatar blobs. *storage.AvatarStore satisfies it.
type AvatarStore interface {
	Save(declaredType string, r io.Reader) (string, error)
	Discard(ref string) error
	MaxBytes() int64
}

// SessionUpdater rewrites a live session snapshot.
type SessionUpdater interface {
	UpdateSnapshot(ctx context.Context, token string, mutate func(*model.SessionSnapshot)) error
}

type AvatarUpload struct {
	ContentType string
	Size        int64
	Content     io.Reader
}

// ProfileService serves a client's own profile. The client is always
// resolved from the session's account id.
type ProfileService struct {
	clients     *ClientService
	clientRepo  repository.ClientRepository
	accountRepo repository.AccountRepository
	avatars     AvatarStore
	sessions    SessionUpdater
}

func NewProfileService(
	clients *ClientService,
	clientRepo repository.ClientRepository,
	accountRepo repository.AccountRepository,
	avatars AvatarStore,
	sessions SessionUpdater,
) *ProfileService {
	return &ProfileService{
		clients:     clients,
		clientRepo:  clientRepo,
		accountRepo: accountRepo,
		avatars:     avatars,
		sessions:    sessions,
	}
}

func (s *ProfileService) GetOwnProfile(ctx context.Context, accountID int64) (detail *model.ClientDetail, err error) {
	defer func() { metrics.ObserveClientOp("profile", err) }()

	client, err := s.ownClient(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return s.clients.detail(ctx, client)
}

// UpdateAvatar stores the upload, points the client row at it and refreshes
// the avatar cached in the session behind sessionToken.
func (s *ProfileService) UpdateAvatar(ctx context.Context, accountID int64, sessionToken string, upload AvatarUpload) (ref string, err error) {
	defer func() { metrics.ObserveClientOp("avatar", err) }()

	if !storage.IsAllowedType(upload.ContentType) {
		return "", apperrors.ValidationError(storage.ErrUnsupportedType.Error())
	}
	if upload.Size > s.avatars.MaxBytes() {
		return "", apperrors.ValidationError(fmt.Sprintf("Avatar must be at most %d bytes", s.avatars.MaxBytes()))
	}

	client, err := s.ownClient(ctx, accountID)
	if err != nil {
		return "", err
	}

	ref, err = s.avatars.Save(upload.ContentType, upload.Content)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) || errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrEmpty) {
			return "", apperrors.ValidationError(err.Error())
		}
		return "", apperrors.Internal("Failed to store avatar").WithCause(err)
	}

	updated, err := s.clientRepo.UpdateAvatar(ctx, client.ID, ref)
	if err != nil || !updated {
		if discardErr := s.avatars.Discard(ref); discardErr != nil {
			log.Warn().Err(discardErr).Str("avatar", ref).Msg("failed to discard unreferenced avatar")
		}
		if err != nil {
			return "", apperrors.Database(err)
		}
		return "", apperrors.NotFound("Client profile")
	}

	if err := s.sessions.UpdateSnapshot(ctx, sessionToken, func(snap *model.SessionSnapshot) {
		snap.Avatar = &ref
	}); err != nil {
		log.Warn().Err(err).Int64("accountId", accountID).Msg("avatar saved but session snapshot not refreshed")
	}

	log.Info().Int64("clientId", client.ID).Str("avatar", ref).Msg("avatar updated")
	return ref, nil
}

func (s *ProfileService) ChangePassword(ctx context.Context, accountID int64, oldPassword, newPassword string) (err error) {
	defer func() { metrics.ObserveClientOp("password", err) }()

	if oldPassword == "" || newPassword == "" {
		return apperrors.ValidationError("Both current and new password are required")
	}
	if err := util.ValidatePassword(newPassword); err != nil {
		return apperrors.ValidationError("New " + err.Error())
	}

	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return apperrors.Database(err)
	}
	if account == nil {
		return apperrors.NotFound("Account")
	}
	if account.PasswordHash == nil || !util.CheckPasswordHash(oldPassword, *account.PasswordHash) {
		return apperrors.Unauthorized("Current password is incorrect")
	}

	hash, err := util.HashPassword(newPassword)
	if err != nil {
		return apperrors.Internal("Failed to update password").WithCause(err)
	}
	updated, err := s.accountRepo.UpdatePasswordHash(ctx, accountID, hash)
	if err != nil {
		return apperrors.Database(err)
	}
	if !updated {
		return apperrors.NotFound("Account")
	}

	log.Info().Int64("accountId", accountID).Msg("password changed")
	return nil
}

func (s *ProfileService) ownClient(ctx context.Context, accountID int64) (*model.Client, error) {
	client, err := s.clientRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if client == nil {
		return nil, apperrors.NotFound("Client profile")
	}
	return client, nil
}
