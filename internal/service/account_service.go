package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"general-ledger/internal/models"
)

// AccountStore is the persistence surface the account service needs.
type AccountStore interface {
	Create(ctx context.Context, a *models.Account) error
	GetByID(ctx context.Context, entityID, id string) (*models.Account, error)
	GetByCode(ctx context.Context, entityID, code string) (*models.Account, error)
	List(ctx context.Context, filter models.AccountFilter) ([]*models.Account, error)
	Children(ctx context.Context, entityID, parentID string) ([]*models.Account, error)
	Update(ctx context.Context, a *models.Account) error
	HasEntries(ctx context.Context, accountID string) (bool, error)
	CountActiveChildren(ctx context.Context, accountID string) (int, error)
	Stats(ctx context.Context, entityID string) (*models.AccountStats, error)
}

type AccountService struct {
	store  AccountStore
	cache  *SnapshotCache
	logger *zap.Logger
}

func NewAccountService(store AccountStore, cache *SnapshotCache, logger *zap.Logger) *AccountService {
	return &AccountService{store: store, cache: cache, logger: logger}
}

// Create validates and creates a chart-of-accounts node. Level and path are
// derived from the parent chain.
func (s *AccountService) Create(ctx context.Context, entityID string, req *models.CreateAccountRequest) (*models.Account, error) {
	if req.Code == "" {
		return nil, &models.ValidationError{Field: "code", Reason: "required"}
	}
	if req.Name == "" {
		return nil, &models.ValidationError{Field: "name", Reason: "required"}
	}
	if !models.ValidType(req.Type) {
		return nil, &models.ValidationError{Field: "type", Reason: "must be one of asset, liability, equity, revenue, expense"}
	}

	normal := req.NormalBalance
	if normal == "" {
		normal = models.NormalBalanceFor(req.Type)
	} else if normal != models.NormalBalanceFor(req.Type) {
		return nil, &models.ValidationError{Field: "normal_balance", Reason: "does not match account type polarity"}
	}

	if req.CashFlowActivity != "" {
		switch req.CashFlowActivity {
		case models.ActivityOperating, models.ActivityInvesting, models.ActivityFinancing:
		default:
			return nil, &models.ValidationError{Field: "cash_flow_activity", Reason: "must be operating, investing or financing"}
		}
	}

	level := 0
	path := req.Code
	if req.ParentID != "" {
		parent, err := s.store.GetByID(ctx, entityID, req.ParentID)
		if err != nil {
			return nil, err
		}
		level = parent.Level + 1
		path = parent.Path + models.PathSeparator + req.Code
	}

	allowTxns := true
	if req.AllowTransactions != nil {
		allowTxns = *req.AllowTransactions
	}

	now := time.Now()
	account := &models.Account{
		ID:                uuid.New().String(),
		EntityID:          entityID,
		Code:              req.Code,
		Name:              req.Name,
		Description:       req.Description,
		Type:              req.Type,
		NormalBalance:     normal,
		ParentID:          req.ParentID,
		Level:             level,
		Path:              path,
		IsActive:          true,
		AllowTransactions: allowTxns,
		IsCash:            req.IsCash,
		CashFlowActivity:  req.CashFlowActivity,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.store.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("entity_id", entityID),
		zap.String("account_id", account.ID),
		zap.String("code", account.Code))

	return account, nil
}

// Get resolves an account by id, falling back to code lookup.
func (s *AccountService) Get(ctx context.Context, entityID, key string) (*models.Account, error) {
	account, err := s.store.GetByID(ctx, entityID, key)
	var notFound *models.NotFoundError
	if errors.As(err, &notFound) {
		return s.store.GetByCode(ctx, entityID, key)
	}
	return account, err
}

func (s *AccountService) List(ctx context.Context, filter models.AccountFilter) ([]*models.Account, error) {
	return s.store.List(ctx, filter)
}

func (s *AccountService) Children(ctx context.Context, entityID, key string) ([]*models.Account, error) {
	parent, err := s.Get(ctx, entityID, key)
	if err != nil {
		return nil, err
	}
	return s.store.Children(ctx, entityID, parent.ID)
}

func (s *AccountService) Stats(ctx context.Context, entityID string) (*models.AccountStats, error) {
	return s.store.Stats(ctx, entityID)
}

// Update applies a patch to an account. Code and type are frozen once any
// journal entry references the account.
func (s *AccountService) Update(ctx context.Context, entityID, id string, patch *models.UpdateAccountRequest) (*models.Account, error) {
	account, err := s.store.GetByID(ctx, entityID, id)
	if err != nil {
		return nil, err
	}

	if patch.Code != nil || patch.Type != nil {
		if account.IsSystem {
			return nil, &models.ValidationError{Field: "code", Reason: "system accounts cannot be recoded"}
		}
		hasEntries, err := s.store.HasEntries(ctx, account.ID)
		if err != nil {
			return nil, err
		}
		if hasEntries {
			return nil, &models.ValidationError{Field: "code", Reason: "code and type are immutable once the account has journal entries"}
		}
	}

	recoded := false
	if patch.Code != nil && *patch.Code != account.Code {
		account.Code = *patch.Code
		path := account.Code
		if account.ParentID != "" {
			parent, err := s.store.GetByID(ctx, entityID, account.ParentID)
			if err != nil {
				return nil, err
			}
			path = parent.Path + models.PathSeparator + account.Code
		}
		account.Path = path
		recoded = true
	}
	if patch.Type != nil {
		if !models.ValidType(*patch.Type) {
			return nil, &models.ValidationError{Field: "type", Reason: "invalid account type"}
		}
		account.Type = *patch.Type
		account.NormalBalance = models.NormalBalanceFor(*patch.Type)
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, &models.ValidationError{Field: "name", Reason: "required"}
		}
		account.Name = *patch.Name
	}
	if patch.Description != nil {
		account.Description = *patch.Description
	}
	if patch.IsCash != nil {
		account.IsCash = *patch.IsCash
	}
	if patch.CashFlowActivity != nil {
		account.CashFlowActivity = *patch.CashFlowActivity
	}

	if err := s.store.Update(ctx, account); err != nil {
		return nil, err
	}
	if recoded {
		if err := s.rewriteDescendantPaths(ctx, entityID, account); err != nil {
			return nil, err
		}
	}

	// Account attributes feed the cached statements, so any edit drops the
	// entity's snapshots.
	s.cache.InvalidateEntity(ctx, entityID)
	return account, nil
}

// rewriteDescendantPaths pushes a recoded account's new path prefix down the
// subtree so that path(child) stays path(parent) + "/" + code(child).
func (s *AccountService) rewriteDescendantPaths(ctx context.Context, entityID string, parent *models.Account) error {
	children, err := s.store.Children(ctx, entityID, parent.ID)
	if err != nil {
		return err
	}
	for _, child := range children {
		child.Path = parent.Path + models.PathSeparator + child.Code
		if err := s.store.Update(ctx, child); err != nil {
			return err
		}
		if err := s.rewriteDescendantPaths(ctx, entityID, child); err != nil {
			return err
		}
	}
	return nil
}

// Deactivate soft-deletes an account. System accounts and accounts with
// active children are refused; accounts are never physically removed.
func (s *AccountService) Deactivate(ctx context.Context, entityID, id string) error {
	account, err := s.store.GetByID(ctx, entityID, id)
	if err != nil {
		return err
	}
	if account.IsSystem {
		return &models.ValidationError{Field: "id", Reason: "system accounts cannot be deactivated"}
	}

	activeChildren, err := s.store.CountActiveChildren(ctx, account.ID)
	if err != nil {
		return err
	}
	if activeChildren > 0 {
		return &models.HasActiveChildrenError{Code: account.Code}
	}

	account.IsActive = false
	if err := s.store.Update(ctx, account); err != nil {
		return err
	}
	s.cache.InvalidateEntity(ctx, entityID)

	s.logger.Info("account deactivated",
		zap.String("entity_id", entityID),
		zap.String("code", account.Code))
	return nil
}

// SeedDefaultChart creates the default chart of accounts for an entity if it
// has no accounts yet.
func (s *AccountService) SeedDefaultChart(ctx context.Context, entityID string) error {
	existing, err := s.store.List(ctx, models.AccountFilter{EntityID: entityID})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, seed := range DefaultChart() {
		now := time.Now()
		account := &models.Account{
			ID:                uuid.New().String(),
			EntityID:          entityID,
			Code:              seed.Code,
			Name:              seed.Name,
			Description:       seed.Description,
			Type:              seed.Type,
			NormalBalance:     models.NormalBalanceFor(seed.Type),
			Level:             0,
			Path:              seed.Code,
			IsActive:          true,
			IsSystem:          seed.IsSystem,
			AllowTransactions: !seed.IsSystem,
			IsCash:            seed.IsCash,
			CashFlowActivity:  seed.CashFlowActivity,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.store.Create(ctx, account); err != nil {
			return err
		}
	}

	s.logger.Info("default chart of accounts seeded", zap.String("entity_id", entityID))
	return nil
}
