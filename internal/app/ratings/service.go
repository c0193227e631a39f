package ratings

import "context"

// Store defines the persistence hooks for rating workflows.
type Store interface {
	UpsertRating(ctx context.Context, compositionID, userID int64, value int) error
	UpsertDifficultyRating(ctx context.Context, compositionID, userID int64, value int) error
}

// Service records per-user ratings on the two axes.
type Service interface {
	Rate(ctx context.Context, compositionID, userID int64, value int) error
	RateDifficulty(ctx context.Context, compositionID, userID int64, value int) error
}

type service struct {
	store Store
}

// New constructs a ratings Service backed by the given Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Rate(ctx context.Context, compositionID, userID int64, value int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.UpsertRating(ctx, compositionID, userID, value)
}

func (s *service) RateDifficulty(ctx context.Context, compositionID, userID int64, value int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.UpsertDifficultyRating(ctx, compositionID, userID, value)
}
