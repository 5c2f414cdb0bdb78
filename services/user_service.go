package services

import (
	"context"
	"errors"
	"strings"

	"github.com/prashant564/Courses24-API/apperr"
	"github.com/prashant564/Courses24-API/models"
	"github.com/prashant564/Courses24-API/repositories"
	"github.com/prashant564/Courses24-API/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UserUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
}

// UserService is the admin user management behind /users.
type UserService struct {
	users     UserStore
	validator *utils.Validator
}

func NewUserService(users UserStore, validator *utils.Validator) *UserService {
	return &UserService{users: users, validator: validator}
}

func (s *UserService) List(ctx context.Context, q repositories.ListQuery) (*models.Results, error) {
	items, total, err := s.users.List(ctx, q)
	if err != nil {
		return nil, listError(err)
	}
	return listResults(items, total, q), nil
}

func (s *UserService) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "User", id)
	}
	return u, nil
}

func (s *UserService) Create(ctx context.Context, in UserInput) (*models.User, error) {
	u := &models.User{
		Name:  strings.TrimSpace(in.Name),
		Email: normalizeEmail(in.Email),
		Role:  in.Role,
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if err := s.validator.Struct(u); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Internal("password hashing failed", err)
	}
	u.Password = hash

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, apperr.Wrap(apperr.KindConflict, "Email is already registered", err)
		}
		return nil, apperr.Internal("creating user failed", err)
	}
	u.Password = ""
	return u, nil
}

func (s *UserService) Update(ctx context.Context, id primitive.ObjectID, upd UserUpdate) (*models.User, error) {
	current, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "User", id)
	}

	next := *current
	set := bson.M{}
	if upd.Name != nil {
		next.Name = strings.TrimSpace(*upd.Name)
		set["name"] = next.Name
	}
	if upd.Email != nil {
		next.Email = normalizeEmail(*upd.Email)
		set["email"] = next.Email
	}
	if upd.Role != nil {
		next.Role = *upd.Role
		set["role"] = next.Role
	}
	if err := s.validator.Struct(next); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if upd.Password != nil {
		if err := validatePassword(*upd.Password); err != nil {
			return nil, err
		}
		hash, err := utils.HashPassword(*upd.Password)
		if err != nil {
			return nil, apperr.Internal("password hashing failed", err)
		}
		set["password"] = hash
	}
	if len(set) == 0 {
		return current, nil
	}

	updated, err := s.users.Update(ctx, id, set)
	if err != nil {
		return nil, storeError(err, "User", id)
	}
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return storeError(err, "User", id)
	}
	return nil
}
