package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prashant564/Courses24-API/apperr"
	"github.com/prashant564/Courses24-API/logging"
	"github.com/prashant564/Courses24-API/models"
	"github.com/prashant564/Courses24-API/repositories"
	"github.com/prashant564/Courses24-API/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const minPasswordLength = 6

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type DetailsUpdate struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type AuthService struct {
	users       UserStore
	tokens      *utils.JWTManager
	mailer      utils.Mailer
	validator   *utils.Validator
	resetExpire time.Duration
	now         func() time.Time
}

func NewAuthService(users UserStore, tokens *utils.JWTManager, mailer utils.Mailer, validator *utils.Validator, resetExpire time.Duration) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		mailer:      mailer,
		validator:   validator,
		resetExpire: resetExpire,
		now:         time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validatePassword(password string) error {
	if password == "" {
		return apperr.Validation("Please add a password")
	}
	if len(password) < minPasswordLength {
		return apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return apperr.Validation("password can not be more than %d bytes", maxPasswordBytes)
	}
	return nil
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// burnPasswordCheck runs a bcrypt comparison against a fixed hash so a login
// for an unknown email takes as long as one with a wrong password.
func burnPasswordCheck(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = utils.HashPassword("courses24-unknown-user")
	})
	utils.CheckPassword(dummyHash, password)
}

func (s *AuthService) issue(u *models.User) (string, error) {
	token, err := s.tokens.GenerateToken(u.ID.Hex())
	if err != nil {
		return "", apperr.Internal("token signing failed", err)
	}
	return token, nil
}

// Register creates a user account and returns a token for it. Only the
// user and publisher roles can be chosen at registration.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (string, error) {
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RolePublisher {
		return "", apperr.BadRequest("Role %s can not be chosen at registration", role)
	}

	u := &models.User{
		Name:  strings.TrimSpace(in.Name),
		Email: normalizeEmail(in.Email),
		Role:  role,
	}
	if err := s.validator.Struct(u); err != nil {
		return "", apperr.Validation("%s", err.Error())
	}
	if err := validatePassword(in.Password); err != nil {
		return "", err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return "", apperr.Internal("password hashing failed", err)
	}
	u.Password = hash

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return "", apperr.Wrap(apperr.KindConflict, "Email is already registered", err)
		}
		return "", apperr.Internal("creating user failed", err)
	}
	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User %s registered with role '%s'", u.ID.Hex(), u.Role)
	return s.issue(u)
}

// Login answers unknown emails and wrong passwords with the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", apperr.BadRequest("Please provide an email and password")
	}

	u, err := s.users.FindByEmailWithPassword(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			burnPasswordCheck(password)
			logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Login attempt for unknown email")
			return "", apperr.Unauthorized("Invalid credentials")
		}
		return "", apperr.Internal("loading user failed", err)
	}
	if !utils.CheckPassword(u.Password, password) {
		logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Wrong password for user %s", u.ID.Hex())
		return "", apperr.Unauthorized("Invalid credentials")
	}
	return s.issue(u)
}

func (s *AuthService) Me(ctx context.Context, ident models.Identity) (*models.User, error) {
	u, err := s.users.FindByID(ctx, ident.UserID)
	if err != nil {
		return nil, storeError(err, "User", ident.UserID)
	}
	return u, nil
}

func (s *AuthService) UpdateDetails(ctx context.Context, ident models.Identity, upd DetailsUpdate) (*models.User, error) {
	current, err := s.users.FindByID(ctx, ident.UserID)
	if err != nil {
		return nil, storeError(err, "User", ident.UserID)
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
	if err := s.validator.Struct(next); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if len(set) == 0 {
		return current, nil
	}

	updated, err := s.users.Update(ctx, ident.UserID, set)
	if err != nil {
		return nil, storeError(err, "User", ident.UserID)
	}
	return updated, nil
}

// UpdatePassword checks the current password, stores the new one and
// returns a fresh token.
func (s *AuthService) UpdatePassword(ctx context.Context, ident models.Identity, currentPassword, newPassword string) (string, error) {
	u, err := s.users.FindByIDWithPassword(ctx, ident.UserID)
	if err != nil {
		return "", storeError(err, "User", ident.UserID)
	}
	if !utils.CheckPassword(u.Password, currentPassword) {
		return "", apperr.Unauthorized("Password is incorrect")
	}
	if err := validatePassword(newPassword); err != nil {
		return "", err
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return "", apperr.Internal("password hashing failed", err)
	}
	if _, err := s.users.Update(ctx, u.ID, bson.M{"password": hash}); err != nil {
		return "", storeError(err, "User", u.ID)
	}
	return s.issue(u)
}

// ForgotPassword stores a hashed reset token and mails the plaintext token
// as a link under baseURL. If the mail cannot be sent the token is
// discarded again.
func (s *AuthService) ForgotPassword(ctx context.Context, email, baseURL string) error {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFound("There is no user with that email")
		}
		return apperr.Internal("loading user failed", err)
	}

	plain, hashed, err := utils.GenerateResetToken()
	if err != nil {
		return apperr.Internal("generating reset token failed", err)
	}
	if err := s.users.SetResetToken(ctx, u.ID, hashed, s.now().Add(s.resetExpire)); err != nil {
		return apperr.Internal("storing reset token failed", err)
	}

	resetURL := fmt.Sprintf("%s/api/v1/auth/resetpassword/%s", strings.TrimRight(baseURL, "/"), plain)
	msg := utils.Message{
		To:      u.Email,
		Subject: "Password reset token",
		Body: fmt.Sprintf("A password reset was requested for your account. "+
			"To choose a new password send a PUT request to:\n\n%s\n\nThe link expires in %s.", resetURL, s.resetExpire),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		logging.Logger.Errorf("Event ID: RESET_EMAIL_FAILED, Description: Reset email for user %s could not be sent: %v", u.ID.Hex(), err)
		if clearErr := s.users.ClearResetToken(ctx, u.ID); clearErr != nil {
			logging.Logger.Errorf("Event ID: RESET_TOKEN_ROLLBACK_FAILED, Description: Clearing reset token of user %s failed: %v", u.ID.Hex(), clearErr)
		}
		return apperr.Internal("Email could not be sent", err)
	}
	return nil
}

// ResetPassword redeems a reset token. A token works once and only before
// it expires.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (string, error) {
	if err := validatePassword(password); err != nil {
		return "", err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return "", apperr.Internal("password hashing failed", err)
	}

	u, err := s.users.RedeemResetToken(ctx, utils.HashResetToken(token), hash, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperr.BadRequest("Invalid token")
		}
		return "", apperr.Internal("resetting password failed", err)
	}
	logging.Logger.Infof("Event ID: PASSWORD_RESET, Description: Password of user %s was reset", u.ID.Hex())
	return s.issue(u)
}

// Authenticate resolves a token to the identity of an existing user. The
// user is reloaded so role changes apply to tokens issued earlier.
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	notAuthorized := apperr.Unauthorized("Not authorized to access this route")

	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return models.Identity{}, notAuthorized
	}
	id, err := primitive.ObjectIDFromHex(claims.ID)
	if err != nil {
		return models.Identity{}, notAuthorized
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Identity{}, notAuthorized
		}
		return models.Identity{}, apperr.Internal("loading user failed", err)
	}
	return models.Identity{UserID: u.ID, Role: u.Role, User: u}, nil
}
