package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mishankov/taskhub/internal/apperrors"
	"github.com/mishankov/taskhub/internal/models"
	"github.com/mishankov/taskhub/internal/repository"
	"github.com/mishankov/taskhub/internal/service/auth"
)

// Profile service, everything about the account except the session
type UserService struct {
	userRepo repository.UserRepo
	hasher   auth.PasswordHasher
}

func NewService(userRepo repository.UserRepo, hasher auth.PasswordHasher) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}
	return &UserService{userRepo: userRepo, hasher: hasher}
}

func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

type ProfileUpdate struct {
	Name  *string
	Email *string
	Phone *string
}

// UpdateProfile changes name, email or phone, only the fields that are set
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (models.User, error) {
	if upd.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*upd.Email))
		upd.Email = &normalized
	}

	return s.userRepo.UpdateUser(ctx, userID, repository.UserUpdate{
		Name:  upd.Name,
		Email: upd.Email,
		Phone: upd.Phone,
	})
}

// ChangePassword sets a new password after checking the current one
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, current string, next string) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.hasher.Compare(user.HashedPassword, current); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, hash)
}
