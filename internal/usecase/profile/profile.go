package profile

import (
	"context"
	"fmt"

	"github.com/knotless/knot-backend/internal/domain"
)

type UserStore interface {
	GetByID(ctx context.Context, id int) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int) error
}

type UseCase struct {
	userStore UserStore
}

func NewUseCase(userStore UserStore) *UseCase {
	return &UseCase{userStore: userStore}
}

// UpdateRequest covers the user-editable fields only. Nil fields are
// left unchanged.
type UpdateRequest struct {
	Location      *domain.Location      `json:"location"`
	Qualification *domain.Qualification `json:"qualification"`
	Profession    *domain.Profession    `json:"profession"`
	Hobbies       []string              `json:"hobbies"`
	Interests     []string              `json:"interests"`
	Description   *string               `json:"description"`
}

func (uc *UseCase) Get(ctx context.Context, userID int) (*domain.User, error) {
	return uc.userStore.GetByID(ctx, userID)
}

func (uc *UseCase) Update(ctx context.Context, userID int, req *UpdateRequest) (*domain.User, error) {
	user, err := uc.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Location != nil {
		user.Location = *req.Location
	}
	if req.Qualification != nil {
		if domain.TierIndex(req.Qualification.Type) < 0 {
			return nil, fmt.Errorf("unknown qualification type %q", req.Qualification.Type)
		}
		user.Qualification = *req.Qualification
	}
	if req.Profession != nil {
		user.Profession = *req.Profession
	}
	if req.Hobbies != nil {
		user.Hobbies = req.Hobbies
	}
	if req.Interests != nil {
		user.Interests = req.Interests
	}
	if req.Description != nil {
		user.Description = req.Description
	}

	if err := uc.userStore.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (uc *UseCase) Delete(ctx context.Context, userID int) error {
	return uc.userStore.Delete(ctx, userID)
}
