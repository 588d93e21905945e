package usecase

import (
	"context"
	"strings"
	"time"

	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	userrepo "github.com/Team-7-graduated-project/HelloB-sub001/internal/repository/port"
)

type UpdateProfileInput struct {
	UserID   string
	Name     string
	PhotoURL string
}

// UpdateProfileUseCase stores the caller's display profile shown to counterparts.
type UpdateProfileUseCase struct {
	Users userrepo.UserRepository
}

func NewUpdateProfileUseCase(users userrepo.UserRepository) *UpdateProfileUseCase {
	return &UpdateProfileUseCase{Users: users}
}

func (uc *UpdateProfileUseCase) Execute(ctx context.Context, in UpdateProfileInput) (*userrepo.User, error) {
	id := strings.TrimSpace(in.UserID)
	if id == "" {
		return nil, chat.ErrMissingIdentity
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrProfileNameRequired
	}
	u := userrepo.User{
		ID:        id,
		Name:      name,
		PhotoURL:  strings.TrimSpace(in.PhotoURL),
		UpdatedAt: time.Now().UTC(),
	}
	if err := uc.Users.Upsert(ctx, u); err != nil {
		return nil, storeError(err)
	}
	return &u, nil
}
