package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"replyflow.app/relay/core/db/sqlc"
	"replyflow.app/relay/internal/model"
)

type postStore struct {
	queries *sqlc.Queries
}

func newPostStore(queries *sqlc.Queries) PostStore {
	return &postStore{queries: queries}
}

func (s *postStore) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	row, err := s.queries.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toPostModel(row), nil
}

func (s *postStore) GetPublishedByExternalID(ctx context.Context, accountID int64, externalID string) (*model.Post, error) {
	row, err := s.queries.GetPublishedPostByExternalID(ctx, sqlc.GetPublishedPostByExternalIDParams{
		AccountID:  accountID,
		ExternalID: &externalID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toPostModel(row), nil
}

func (s *postStore) ListRecentPublished(ctx context.Context, accountID int64, limit int32) ([]model.Post, error) {
	rows, err := s.queries.ListRecentPublishedPosts(ctx, sqlc.ListRecentPublishedPostsParams{
		AccountID: accountID,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}

	posts := make([]model.Post, len(rows))
	for i, row := range rows {
		posts[i] = *toPostModel(row)
	}
	return posts, nil
}

func toPostModel(row sqlc.Post) *model.Post {
	return &model.Post{
		ID:          row.ID,
		AccountID:   row.AccountID,
		Content:     row.Content,
		Status:      model.PostStatus(row.Status),
		ExternalID:  row.ExternalID,
		PublishedAt: timePtr(row.PublishedAt),
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}
