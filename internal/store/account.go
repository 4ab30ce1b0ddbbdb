package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"replyflow.app/relay/core/db/sqlc"
	"replyflow.app/relay/internal/model"
)

type accountStore struct {
	queries *sqlc.Queries
}

func newAccountStore(queries *sqlc.Queries) AccountStore {
	return &accountStore{queries: queries}
}

func (s *accountStore) GetByID(ctx context.Context, id int64) (*model.Account, error) {
	row, err := s.queries.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toAccountModel(row), nil
}

func (s *accountStore) GetByExternalUserID(ctx context.Context, externalUserID string) (*model.Account, error) {
	row, err := s.queries.GetAccountByExternalUserID(ctx, externalUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toAccountModel(row), nil
}

func (s *accountStore) ListWithActiveRules(ctx context.Context) ([]model.Account, error) {
	rows, err := s.queries.ListAccountsWithActiveRules(ctx)
	if err != nil {
		return nil, err
	}

	accounts := make([]model.Account, len(rows))
	for i, row := range rows {
		accounts[i] = *toAccountModel(row)
	}
	return accounts, nil
}

func toAccountModel(row sqlc.Account) *model.Account {
	return &model.Account{
		ID:             row.ID,
		ExternalUserID: row.ExternalUserID,
		Username:       row.Username,
		AccessToken:    row.AccessToken,
		IsActive:       row.IsActive,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}
