package room

import "context"

// Service wraps the registry with field validation. Deletion lives on the
// booking service because it must consult active bookings first.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id string) (*Room, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAll(ctx context.Context) ([]*Room, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) ListAvailable(ctx context.Context) ([]*Room, error) {
	return s.repo.ListAvailable(ctx)
}

// Save creates the room when it has no ID yet, otherwise updates it.
func (s *Service) Save(ctx context.Context, room *Room) error {
	if err := room.Validate(); err != nil {
		return err
	}
	if room.ID == "" {
		return s.repo.Create(ctx, room)
	}
	return s.repo.Update(ctx, room)
}

// Delete removes the room. The caller (booking service / admin surface) is
// responsible for checking that no active booking references it.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// MarkUnavailable clears the available flag. Used by the availability rollup;
// it never sets the flag back, so an admin-set false is never overridden.
func (s *Service) MarkUnavailable(ctx context.Context, id string) error {
	room, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !room.Available {
		return nil
	}
	room.Available = false
	return s.repo.Update(ctx, room)
}
