package service

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"go-user-auth/internal/model"
)

const bcryptCost = 12

// userRepo is the full persistence contract consumed by user CRUD.
type userRepo interface {
	GetOne(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id int64) (model.User, error)
	Persists(ctx context.Context, id int64) (bool, error)
	Add(ctx context.Context, u model.User) (int64, error)
	Update(ctx context.Context, u model.User) error
	Delete(ctx context.Context, id int64) error
	GetAll(ctx context.Context) ([]model.User, error)
}

type UserService struct {
	repo userRepo
}

func NewUserService(repo userRepo) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetAll(ctx context.Context) ([]model.User, error) {
	return s.repo.GetAll(ctx)
}

func (s *UserService) GetByID(ctx context.Context, id int64) (model.User, error) {
	if id <= 0 {
		return model.User{}, model.ErrBadRequest
	}
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) Add(ctx context.Context, input model.UserInput) (model.User, error) {
	email := strings.TrimSpace(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" || input.Password == "" {
		return model.User{}, model.ErrBadRequest
	}
	if !input.Role.Valid() {
		return model.User{}, model.ErrBadRequest
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return model.User{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		Email:     email,
		Name:      name,
		PwdHash:   string(hash),
		Role:      input.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	id, err := s.repo.Add(ctx, user)
	if err != nil {
		return model.User{}, err
	}

	user.ID = id
	return user, nil
}

// Update rewrites the stored user from the input. The password is rehashed
// only when a new one is supplied; an empty password keeps the current hash.
func (s *UserService) Update(ctx context.Context, input model.UserInput) error {
	if input.ID <= 0 {
		return model.ErrBadRequest
	}

	current, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return err
	}

	email := strings.TrimSpace(input.Email)
	name := strings.TrimSpace(input.Name)
	if email == "" || name == "" || !input.Role.Valid() {
		return model.ErrBadRequest
	}

	current.Email = email
	current.Name = name
	current.Role = input.Role

	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
		if err != nil {
			return err
		}
		current.PwdHash = string(hash)
	}

	return s.repo.Update(ctx, current)
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return model.ErrBadRequest
	}

	persists, err := s.repo.Persists(ctx, id)
	if err != nil {
		return err
	}
	if !persists {
		return model.ErrUserNotFound
	}

	return s.repo.Delete(ctx, id)
}
