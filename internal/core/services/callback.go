package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/entra-login/internal/core/domain"
	"github.com/custodia-labs/entra-login/internal/core/ports/driven"
	"github.com/custodia-labs/entra-login/internal/core/ports/driving"
)

// Ensure callbackService implements CallbackService
var _ driving.CallbackService = (*callbackService)(nil)

// CallbackServiceConfig holds configuration for the callback service.
type CallbackServiceConfig struct {
	States   driven.StateCodec
	Resolver *ConfigResolver
	Provider driven.IdentityProvider
	Bridge   driven.AuthBridge

	// Accounts and Auth are used to provision primary accounts.
	Accounts driven.AccountStore
	Auth     driven.AuthAdapter

	// Lock serializes provisioning of one email across instances (optional).
	Lock    driven.DistributedLock
	LockTTL time.Duration // default: 30s

	// AllowedHosts lists hosts (or URLs) an absolute return URL may point
	// at, besides the redirect URI hosts of the resolved configuration.
	AllowedHosts []string

	Logger *slog.Logger
}

// callbackService runs the provider redirect to a terminal outcome.
type callbackService struct {
	states   driven.StateCodec
	resolver *ConfigResolver
	provider driven.IdentityProvider
	bridge   driven.AuthBridge
	accounts driven.AccountStore
	auth     driven.AuthAdapter
	lock     driven.DistributedLock
	lockTTL  time.Duration
	hosts    returnHosts
	logger   *slog.Logger
}

// NewCallbackService creates a new callback service.
func NewCallbackService(cfg CallbackServiceConfig) driving.CallbackService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 30 * time.Second
	}
	return &callbackService{
		states:   cfg.States,
		resolver: cfg.Resolver,
		provider: cfg.Provider,
		bridge:   cfg.Bridge,
		accounts: cfg.Accounts,
		auth:     cfg.Auth,
		lock:     cfg.Lock,
		lockTTL:  lockTTL,
		hosts:    newReturnHosts(cfg.AllowedHosts),
		logger:   logger,
	}
}

// HandleCallback verifies the state, exchanges the code and establishes a
// local session. Only code/state-less requests and invalid states pass
// through; every other path ends in a redirect.
func (s *callbackService) HandleCallback(ctx context.Context, req driving.CallbackRequest) *domain.CallbackResult {
	if req.Code == "" || req.State == "" {
		return &domain.CallbackResult{Outcome: domain.OutcomeNotApplicable}
	}

	state := s.states.Verify(req.State)
	if state == nil {
		s.logger.Debug("callback state rejected")
		return &domain.CallbackResult{Outcome: domain.OutcomeStateInvalid}
	}

	surface := state.Surface
	tenantContextID := req.TenantContextID
	if state.TenantContextID > 0 {
		tenantContextID = state.TenantContextID
	}

	logger := s.logger.With("surface", surface, "tenant_context_id", tenantContextID, "config_id", state.ConfigID)
	logger.Debug("callback state valid")

	cfg := s.resolver.Resolve(ctx, surface, tenantContextID, state.ConfigID)
	returnURL := stripLoginParams(s.hosts.safeReturnURL(state.ReturnURL, cfg))
	if !cfg.IsConfigured(surface) {
		logger.Warn("callback received but no complete configuration resolved")
		return failed(surface, returnURL, domain.LoginErrorExchangeFailed)
	}

	identity, err := s.provider.ExchangeCode(ctx, cfg, req.Code, cfg.RedirectURI(surface))
	if err != nil {
		logger.Warn("token exchange failed", "error", err)
		return failed(surface, returnURL, domain.LoginErrorExchangeFailed)
	}
	logger.Debug("identity received", "email", identity.Email)

	artifacts := s.signIn(ctx, logger, surface, identity, domain.SessionMeta{
		UserAgent: req.UserAgent,
		IPAddress: req.IPAddress,
	})
	if artifacts != nil {
		logger.Debug("local sign-in succeeded", "account_id", artifacts.Session.AccountID)
		return &domain.CallbackResult{
			Outcome:     domain.OutcomeSucceeded,
			Surface:     surface,
			RedirectURL: appendParam(returnURL, domain.ParamLoginSuccess, "1"),
			Header:      artifacts.Header,
		}
	}

	if surface == domain.SurfaceAdministrative {
		return failed(surface, returnURL, domain.LoginErrorAuthFailed)
	}
	return failed(surface, returnURL, s.provision(ctx, logger, cfg, identity))
}

// signIn hands the identity to the bridge. Nil means no session.
func (s *callbackService) signIn(ctx context.Context, logger *slog.Logger, surface domain.Surface, identity *domain.ExternalIdentity, meta domain.SessionMeta) *domain.SessionArtifacts {
	account, err := s.bridge.FindAccountByEmail(ctx, surface, identity.Email)
	if err != nil {
		logger.Error("account lookup failed", "error", err)
		return nil
	}
	if account == nil {
		logger.Debug("no account may sign in", "email", identity.Email)
		return nil
	}
	artifacts, err := s.bridge.EstablishSession(ctx, account, meta)
	if err != nil {
		logger.Error("establish session failed", "account_id", account.ID, "error", err)
		return nil
	}
	return artifacts
}

// provision handles a failed primary sign-in. With auto-creation enabled a
// disabled account is created for unknown emails; both new and existing
// accounts yield account_pending.
func (s *callbackService) provision(ctx context.Context, logger *slog.Logger, cfg *domain.OAuthConfiguration, identity *domain.ExternalIdentity) domain.LoginErrorCode {
	if !cfg.AutoCreateAccount || s.accounts == nil {
		return domain.LoginErrorAuthFailed
	}
	email := strings.TrimSpace(identity.Email)
	if email == "" {
		return domain.LoginErrorAuthFailed
	}

	if s.lock != nil {
		name := "provision:" + strings.ToLower(email)
		acquired, err := s.lock.Acquire(ctx, name, s.lockTTL)
		switch {
		case err != nil:
			logger.Warn("provisioning lock unavailable, continuing unguarded", "error", err)
		case !acquired:
			logger.Debug("account provisioning already in progress", "email", email)
			return domain.LoginErrorAccountPending
		default:
			defer func() {
				if err := s.lock.Release(context.WithoutCancel(ctx), name); err != nil {
					logger.Warn("failed to release provisioning lock", "error", err)
				}
			}()
		}
	}

	existing, err := s.accounts.GetByEmail(ctx, domain.SurfacePrimary, email)
	if err != nil {
		logger.Error("account existence check failed", "error", err)
		return domain.LoginErrorAuthFailed
	}
	if existing != nil {
		logger.Debug("account exists but cannot sign in", "account_id", existing.ID, "disabled", existing.Disabled)
		return domain.LoginErrorAccountPending
	}

	account, err := s.newPendingAccount(cfg, identity, email)
	if err != nil {
		logger.Error("failed to prepare account", "error", err)
		return domain.LoginErrorAuthFailed
	}
	if err := s.accounts.Save(ctx, account); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return domain.LoginErrorAccountPending
		}
		logger.Error("failed to create account", "error", err)
		return domain.LoginErrorAuthFailed
	}

	logger.Info("created disabled account",
		"account_id", account.ID,
		"storage_location", account.StorageLocation,
		"groups", account.Groups,
	)
	return domain.LoginErrorAccountPending
}

func (s *callbackService) newPendingAccount(cfg *domain.OAuthConfiguration, identity *domain.ExternalIdentity, email string) (*domain.Account, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate credential: %w", err)
	}
	hash, err := s.auth.HashPassword(hex.EncodeToString(secret))
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	given, family := identity.NameParts()
	now := time.Now()
	return &domain.Account{
		ID:              uuid.NewString(),
		Surface:         domain.SurfacePrimary,
		Email:           email,
		Username:        email,
		Name:            identity.DisplayName,
		GivenName:       given,
		FamilyName:      family,
		PasswordHash:    hash,
		Role:            domain.RoleMember,
		Groups:          append([]string(nil), cfg.DefaultGroups...),
		StorageLocation: cfg.StorageLocation,
		Disabled:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func failed(surface domain.Surface, returnURL string, code domain.LoginErrorCode) *domain.CallbackResult {
	return &domain.CallbackResult{
		Outcome:     domain.OutcomeFailed,
		Surface:     surface,
		RedirectURL: appendParam(returnURL, domain.ParamLoginError, string(code)),
		ErrorCode:   code,
	}
}
