package service

import (
	"context"

	"github.com/thrivesend/thrivesend-backend/internal/common"
	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"github.com/thrivesend/thrivesend-backend/internal/repository"
)

// resolveUser maps the identity provider subject to the internal user
func resolveUser(ctx context.Context, users repository.UserRepository, externalID string) (*domain.User, error) {
	if externalID == "" {
		return nil, common.ErrUnauthorized
	}
	user, err := users.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, common.Wrap(common.KindInternal, "failed to load user", err)
	}
	if user == nil {
		return nil, common.ErrUserNotFound
	}
	return user, nil
}

// normalizePage applies pagination defaults; a missing limit uses defLimit, a large one is capped at maxLimit
func normalizePage(page, limit, defLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit < 1:
		limit = defLimit
	case limit > maxLimit:
		limit = maxLimit
	}
	return page, limit
}
