package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/soundwave-agency/agency-server/internal/config"
	"github.com/soundwave-agency/agency-server/internal/database"
	apperrors "github.com/soundwave-agency/agency-server/internal/errors"
	"github.com/soundwave-agency/agency-server/internal/metrics"
	"github.com/soundwave-agency/agency-server/internal/model"
	"github.com/soundwave-agency/agency-server/internal/repository"
	"github.com/soundwave-agency/agency-server/internal/util"
)

// TxRunner runs fn inside one database transaction. *database.DB satisfies it.
type TxRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

// ClientService manages the client aggregate: the client row, its login
// account and its niche and campaign sets. Every write is one transaction.
type ClientService struct {
	db               TxRunner
	clientRepo       repository.ClientRepository
	accountRepo      repository.AccountRepository
	assocRepo        repository.AssociationRepository
	catalogRepo      repository.CatalogRepository
	defaultManagerID int64
}

func NewClientService(
	db TxRunner,
	clientRepo repository.ClientRepository,
	accountRepo repository.AccountRepository,
	assocRepo repository.AssociationRepository,
	catalogRepo repository.CatalogRepository,
	defaultManagerID int64,
) *ClientService {
	return &ClientService{
		db:               db,
		clientRepo:       clientRepo,
		accountRepo:      accountRepo,
		assocRepo:        assocRepo,
		catalogRepo:      catalogRepo,
		defaultManagerID: defaultManagerID,
	}
}

func (s *ClientService) ListClients(ctx context.Context) (clients []model.ClientSummary, err error) {
	defer func() { metrics.ObserveClientOp("list", err) }()

	clients, err = s.clientRepo.List(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return clients, nil
}

func (s *ClientService) Stats(ctx context.Context) (*model.ClientStats, error) {
	stats, err := s.clientRepo.Stats(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return stats, nil
}

func (s *ClientService) GetClientDetail(ctx context.Context, id int64) (detail *model.ClientDetail, err error) {
	defer func() { metrics.ObserveClientOp("detail", err) }()

	client, err := s.clientRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if client == nil {
		return nil, apperrors.NotFound("Client")
	}
	return s.detail(ctx, client)
}

func (s *ClientService) detail(ctx context.Context, client *model.Client) (*model.ClientDetail, error) {
	nicheIDs, err := s.assocRepo.NicheIDs(ctx, client.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	campaignIDs, err := s.assocRepo.CampaignIDs(ctx, client.ID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	niches, err := s.catalogRepo.Niches(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	campaigns, err := s.catalogRepo.ActiveCampaigns(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &model.ClientDetail{
		Client:          client,
		NicheIDs:        nicheIDs,
		CampaignIDs:     campaignIDs,
		AllNiches:       niches,
		ActiveCampaigns: campaigns,
	}, nil
}

// CreateClient provisions a client-role account with a random temporary
// password, then the client row in status Pending. The username falls back
// to the @handle in the TikTok link.
func (s *ClientService) CreateClient(ctx context.Context, input model.CreateClientInput) (result *model.CreateClientResult, err error) {
	defer func() { metrics.ObserveClientOp("create", err) }()

	input.Name = strings.TrimSpace(input.Name)
	input.TikTokLink = strings.TrimSpace(input.TikTokLink)
	input.Username = strings.TrimSpace(input.Username)
	input.Email = util.NormalizeEmail(input.Email)
	if input.Username == "" {
		input.Username = util.TikTokUsername(input.TikTokLink)
	}
	if input.Username == "" {
		return nil, apperrors.MissingRequired("username")
	}
	if err := util.ValidateStruct(input); err != nil {
		return nil, apperrors.ValidationError(err.Error())
	}

	email := input.Email
	if email == "" {
		email = fmt.Sprintf("%s@%s", strings.ToLower(input.Username), config.PlaceholderEmailDomain)
	}
	basePrice := 0.0
	if input.BasePrice != nil {
		basePrice = *input.BasePrice
	}
	managerID := s.defaultManagerID
	if input.ManagerID != nil {
		managerID = *input.ManagerID
	}

	tempPassword, err := util.GenerateTemporaryPassword(config.TemporaryPasswordBytes)
	if err != nil {
		return nil, apperrors.Internal("Failed to create client").WithCause(err)
	}
	passwordHash, err := util.HashPassword(tempPassword)
	if err != nil {
		return nil, apperrors.Internal("Failed to create client").WithCause(err)
	}

	result = &model.CreateClientResult{TemporaryPassword: tempPassword}
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		account, err := s.accountRepo.WithTx(tx).Create(ctx, model.CreateAccountParams{
			Name:         input.Name,
			Email:        email,
			PasswordHash: passwordHash,
			Role:         model.RoleClient,
		})
		if err != nil {
			return fmt.Errorf("create account: %w", err)
		}

		client, err := s.clientRepo.WithTx(tx).Create(ctx, model.CreateClientParams{
			AccountID:  account.ID,
			Username:   input.Username,
			TikTokLink: input.TikTokLink,
			BasePrice:  basePrice,
			Status:     model.ClientStatusPending,
			ManagerID:  managerID,
		})
		if err != nil {
			return fmt.Errorf("create client: %w", err)
		}

		result.AccountID = account.ID
		result.ClientID = client.ID
		return nil
	})
	if err != nil {
		return nil, translateWriteError(err)
	}

	log.Info().
		Int64("clientId", result.ClientID).
		Int64("accountId", result.AccountID).
		Str("username", input.Username).
		Msg("client created")

	return result, nil
}

// UpdateClient applies the non-nil fields of input. Niche and campaign sets
// are replaced wholesale when present.
func (s *ClientService) UpdateClient(ctx context.Context, id int64, input model.UpdateClientInput) (err error) {
	defer func() { metrics.ObserveClientOp("update", err) }()

	input.Name = trimmed(input.Name)
	input.TikTokLink = trimmed(input.TikTokLink)
	input.Username = trimmed(input.Username)
	input.Status = trimmed(input.Status)
	if err := util.ValidateStruct(input); err != nil {
		return apperrors.ValidationError(err.Error())
	}
	if err := validateIDs("niches", input.Niches); err != nil {
		return err
	}
	if err := validateIDs("campaigns", input.Campaigns); err != nil {
		return err
	}

	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		clients := s.clientRepo.WithTx(tx)

		client, err := clients.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("find client: %w", err)
		}
		if client == nil {
			return apperrors.NotFound("Client")
		}

		if input.Name != nil {
			if _, err := s.accountRepo.WithTx(tx).UpdateName(ctx, client.AccountID, *input.Name); err != nil {
				return fmt.Errorf("update account name: %w", err)
			}
		}

		params := model.UpdateClientParams{
			Username:   input.Username,
			TikTokLink: input.TikTokLink,
			BasePrice:  input.BasePrice,
			Status:     input.Status,
		}
		if params != (model.UpdateClientParams{}) {
			if _, err := clients.Update(ctx, id, params); err != nil {
				return fmt.Errorf("update client: %w", err)
			}
		}

		assoc := s.assocRepo.WithTx(tx)
		if input.Niches != nil {
			if err := assoc.ReplaceNiches(ctx, id, *input.Niches); err != nil {
				return fmt.Errorf("replace niches: %w", err)
			}
		}
		if input.Campaigns != nil {
			if err := assoc.ReplaceCampaigns(ctx, id, *input.Campaigns); err != nil {
				return fmt.Errorf("replace campaigns: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return translateWriteError(err)
	}

	log.Info().Int64("clientId", id).Msg("client updated")
	return nil
}

// DeleteClient removes the client row, its associations and its account.
func (s *ClientService) DeleteClient(ctx context.Context, id int64) (err error) {
	defer func() { metrics.ObserveClientOp("delete", err) }()

	var accountID int64
	err = s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		clients := s.clientRepo.WithTx(tx)

		client, err := clients.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("find client: %w", err)
		}
		if client == nil {
			return apperrors.NotFound("Client")
		}
		accountID = client.AccountID

		deleted, err := clients.Delete(ctx, id)
		if err != nil {
			return fmt.Errorf("delete client: %w", err)
		}
		if !deleted {
			return apperrors.NotFound("Client")
		}

		deleted, err = s.accountRepo.WithTx(tx).Delete(ctx, client.AccountID)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		if !deleted {
			return fmt.Errorf("account %d of client %d not found", client.AccountID, id)
		}
		return nil
	})
	if err != nil {
		return translateWriteError(err)
	}

	log.Info().Int64("clientId", id).Int64("accountId", accountID).Msg("client deleted")
	return nil
}

// translateWriteError maps constraint violations onto caller-facing errors.
// AppErrors raised inside a transaction pass through unchanged.
func translateWriteError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	if _, ok := repository.IsUniqueViolation(err); ok {
		return apperrors.Conflict("Username already exists").WithCause(err)
	}
	if _, ok := repository.IsForeignKeyViolation(err); ok {
		return apperrors.ValidationError("Referenced niche, campaign or manager does not exist").WithCause(err)
	}
	if _, ok := repository.IsCheckViolation(err); ok {
		return apperrors.ValidationError("base_price must be at least 0").WithCause(err)
	}
	return apperrors.Database(err)
}

func validateIDs(field string, ids *[]int64) error {
	if ids == nil {
		return nil
	}
	for _, id := range *ids {
		if id <= 0 {
			return apperrors.ValidationError(fmt.Sprintf("%s must contain positive ids", field))
		}
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
