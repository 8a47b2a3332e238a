package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sandeepkv93/dharmasync/internal/model"
	"github.com/sandeepkv93/dharmasync/internal/storage"
)

var (
	ErrMissingFields      = errors.New("auth: missing required fields")
	ErrUserExists         = errors.New("auth: user already exists")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrInvalidProfile     = errors.New("auth: invalid profile")
)

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Gender   string `json:"gender,omitempty"`
	Address  string `json:"address,omitempty"`
	Age      int    `json:"age,omitempty"`
	Image    string `json:"image,omitempty"`
}

// ProfileUpdate carries the profile fields a user may change. Nil fields
// keep their stored value.
type ProfileUpdate struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
	Gender  *string `json:"gender,omitempty"`
	Age     *int    `json:"age,omitempty"`
}

func (u ProfileUpdate) empty() bool {
	return u.Name == nil && u.Email == nil && u.Address == nil && u.Gender == nil && u.Age == nil
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      model.User
}

// Accounts registers users and exchanges credentials for sessions.
type Accounts struct {
	users  storage.UserStore
	issuer *Issuer
	cost   int
	now    func() time.Time
	logger *zap.Logger
}

func NewAccounts(users storage.UserStore, issuer *Issuer, logger *zap.Logger) *Accounts {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Accounts{
		users:  users,
		issuer: issuer,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		logger: logger,
	}
}

func (a *Accounts) Signup(ctx context.Context, req SignupRequest) (model.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || req.Password == "" {
		return model.User{}, ErrMissingFields
	}

	if _, err := a.users.GetUserByEmail(ctx, email); err == nil {
		return model.User{}, ErrUserExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return model.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), a.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	now := a.now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Gender:       strings.TrimSpace(req.Gender),
		Address:      strings.TrimSpace(req.Address),
		Age:          req.Age,
		Image:        strings.TrimSpace(req.Image),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.users.CreateUser(ctx, user); err != nil {
		// The unique index catches a concurrent signup the lookup missed.
		if errors.Is(err, storage.ErrConflict) {
			return model.User{}, ErrUserExists
		}
		return model.User{}, err
	}
	a.logger.Info("user signed up", zap.String("user_id", user.ID))
	return user, nil
}

func (a *Accounts) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	user, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if user.PasswordHash == "" {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	token, expiresAt, err := a.issuer.Issue(user)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// UpdateProfile applies upd to userID's profile and stamps updated_at.
// Name and email may not be blanked, and a new email must be unused.
func (a *Accounts) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (model.User, error) {
	if strings.TrimSpace(userID) == "" || upd.empty() {
		return model.User{}, ErrMissingFields
	}
	user, err := a.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return model.User{}, fmt.Errorf("%w: name is empty", ErrInvalidProfile)
		}
		user.Name = name
	}
	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if email == "" || !strings.Contains(email, "@") {
			return model.User{}, fmt.Errorf("%w: email %q", ErrInvalidProfile, email)
		}
		user.Email = email
	}
	if upd.Address != nil {
		user.Address = strings.TrimSpace(*upd.Address)
	}
	if upd.Gender != nil {
		user.Gender = strings.TrimSpace(*upd.Gender)
	}
	if upd.Age != nil {
		if *upd.Age < 0 || *upd.Age > 150 {
			return model.User{}, fmt.Errorf("%w: age %d", ErrInvalidProfile, *upd.Age)
		}
		user.Age = *upd.Age
	}
	user.UpdatedAt = a.now().UTC()

	if err := a.users.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return model.User{}, ErrUserExists
		case errors.Is(err, storage.ErrNotFound):
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	a.logger.Info("profile updated", zap.String("user_id", user.ID))
	return user, nil
}
