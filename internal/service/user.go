package service

import (
	"errors"

	"github.com/testguru/timelines/internal/model"
	"github.com/testguru/timelines/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) ByID(id string) (*model.User, error) {
	user, err := s.userRepo.ByID(id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}
