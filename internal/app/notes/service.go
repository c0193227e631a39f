package notes

import "context"

// Store defines the persistence hook for note submission.
type Store interface {
	AddNote(ctx context.Context, compositionID, userID int64, text string) error
}

// Service stores notes, with `#word` tokens peeled off into tags.
type Service interface {
	Add(ctx context.Context, compositionID, userID int64, text string) error
}

type service struct {
	store Store
}

// New constructs a notes Service backed by the given Store.
func New(store Store) Service {
	return &service{store: store}
}

func (s *service) Add(ctx context.Context, compositionID, userID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.store.AddNote(ctx, compositionID, userID, text)
}
