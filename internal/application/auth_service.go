package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/worktime/internal/persistence"
)

// Login outcomes reported to the EventRecorder.
const (
	LoginSuccess     = "success"
	LoginProvisioned = "provisioned"
	LoginInvalid     = "invalid"
)

const minUsernameLength = 3

// RegisterInput holds the fields accepted by Register.
type RegisterInput struct {
	Username string
	Password string
	Name     string
}

// LoginInput holds the credentials accepted by Login.
type LoginInput struct {
	Username string
	Password string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User      persistence.User
	Token     string
	ExpiresAt time.Time
	// Created is true when the call provisioned a new account.
	Created bool
}

// AuthService handles registration, login, and bearer token resolution.
type AuthService struct {
	base
	tokens *TokenManager
	hash   PasswordHasher
	verify PasswordVerifier
}

// AuthOption customizes an AuthService.
type AuthOption func(*AuthService)

// WithPasswordHasher replaces the argon2id hasher, mostly to speed up tests.
func WithPasswordHasher(hasher PasswordHasher) AuthOption {
	return func(s *AuthService) {
		if hasher != nil {
			s.hash = hasher
		}
	}
}

// WithPasswordVerifier replaces the password verifier.
func WithPasswordVerifier(verifier PasswordVerifier) AuthOption {
	return func(s *AuthService) {
		if verifier != nil {
			s.verify = verifier
		}
	}
}

// NewAuthService constructs an AuthService.
func NewAuthService(deps ServiceDeps, tokens *TokenManager, opts ...AuthOption) *AuthService {
	s := &AuthService{
		base:   newBase("AuthService", deps),
		tokens: tokens,
		hash:   HashPassword,
		verify: VerifyPassword,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an employee account and signs a token for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}

	username := strings.TrimSpace(input.Username)
	logger := s.loggerWith(ctx, "Register", "username", username)
	defer func() {
		logOutcome(ctx, logger, err, "user registered", "user_id", result.User.ID)
	}()

	vErr := &ValidationError{}
	switch {
	case username == "":
		vErr.add("username", msgUsernameRequired)
	case len([]rune(username)) < minUsernameLength:
		vErr.add("username", msgUsernameTooShort)
	}
	if input.Password == "" {
		vErr.add("password", msgPasswordRequired)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var hashed string
	hashed, err = s.hash(input.Password)
	if err != nil {
		err = fmt.Errorf("hash password: %w", err)
		return
	}

	var user persistence.User
	err = s.update(ctx, func(snap *persistence.Snapshot) error {
		if snap.UserByUsername(username) != nil {
			return ErrAlreadyExists
		}
		user = s.newEmployee(username, input.Name, hashed)
		snap.Users = append(snap.Users, user)
		return nil
	})
	if err != nil {
		return
	}

	result, err = s.issue(user, true)
	return
}

// Login verifies credentials. An unknown username provisions a new employee
// account on the spot.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (result AuthResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}

	username := strings.TrimSpace(input.Username)
	logger := s.loggerWith(ctx, "Login", "username", username)
	outcome := LoginInvalid
	defer func() {
		s.recorder.Login(outcome)
		logOutcome(ctx, logger, err, "user logged in", "user_id", result.User.ID, "outcome", outcome)
	}()

	if username == "" {
		err = fieldError("username", msgUsernameRequired)
		return
	}

	var snap *persistence.Snapshot
	snap, err = s.load(ctx)
	if err != nil {
		return
	}

	existing := snap.UserByUsername(username)
	if existing == nil {
		result, err = s.provision(ctx, username, input.Password)
		if err == nil {
			outcome = LoginProvisioned
		}
		return
	}

	user := *existing
	if user.Password != "" {
		if verr := s.verify(user.Password, input.Password); verr != nil {
			if !errors.Is(verr, ErrInvalidCredentials) {
				logger.WarnContext(ctx, "stored password is unreadable", "error", verr)
			}
			err = ErrInvalidCredentials
			return
		}
		if !IsPasswordHash(user.Password) {
			if rerr := s.rehash(ctx, user.ID, input.Password); rerr != nil {
				logger.WarnContext(ctx, "failed to upgrade legacy password", "error", rerr)
			}
		}
	}

	outcome = LoginSuccess
	result, err = s.issue(user, false)
	return
}

// Authenticate resolves a bearer token to the principal it names. The user
// must still exist and the employer flag is read from the document.
func (s *AuthService) Authenticate(ctx context.Context, token string) (Principal, error) {
	if s == nil || s.tokens == nil {
		return Principal{}, errNoTokenManager
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Principal{}, err
	}
	snap, err := s.load(ctx)
	if err != nil {
		return Principal{}, err
	}
	user := snap.User(claims.UserID)
	if user == nil {
		return Principal{}, fmt.Errorf("%w: user no longer exists", ErrUnauthenticated)
	}
	return Principal{UserID: user.ID, IsEmployer: user.IsEmployer}, nil
}

func (s *AuthService) provision(ctx context.Context, username, password string) (AuthResult, error) {
	if len([]rune(username)) < minUsernameLength {
		return AuthResult{}, fieldError("username", msgUsernameTooShort)
	}
	var hashed string
	if password != "" {
		var err error
		if hashed, err = s.hash(password); err != nil {
			return AuthResult{}, fmt.Errorf("hash password: %w", err)
		}
	}

	var user persistence.User
	created := true
	err := s.update(ctx, func(snap *persistence.Snapshot) error {
		// Another request may have provisioned the same name meanwhile.
		if existing := snap.UserByUsername(username); existing != nil {
			user = *existing
			created = false
			return nil
		}
		user = s.newEmployee(username, "", hashed)
		snap.Users = append(snap.Users, user)
		return nil
	})
	if err != nil {
		return AuthResult{}, err
	}
	if !created && user.Password != "" {
		if err := s.verify(user.Password, password); err != nil {
			return AuthResult{}, ErrInvalidCredentials
		}
	}
	return s.issue(user, created)
}

func (s *AuthService) rehash(ctx context.Context, userID, password string) error {
	hashed, err := s.hash(password)
	if err != nil {
		return err
	}
	return s.update(ctx, func(snap *persistence.Snapshot) error {
		user := snap.User(userID)
		if user == nil || IsPasswordHash(user.Password) {
			return nil
		}
		user.Password = hashed
		user.UpdatedAt = s.now().UTC()
		return nil
	})
}

func (s *AuthService) newEmployee(username, name, password string) persistence.User {
	now := s.now().UTC()
	name = strings.TrimSpace(name)
	if name == "" {
		name = username
	}
	return persistence.User{
		ID:            s.newID(),
		Username:      username,
		Password:      password,
		Name:          name,
		HourlyRate:    s.settings.MinimumHourlyRate,
		Positions:     []string{},
		Notifications: persistence.NotificationPreferences{Shifts: true, Swaps: true, Reminders: true},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (s *AuthService) issue(user persistence.User, created bool) (AuthResult, error) {
	result := AuthResult{User: publicUser(user), Created: created}
	if s.tokens == nil {
		return result, nil
	}
	token, expires, err := s.tokens.Generate(user)
	if err != nil {
		return AuthResult{}, err
	}
	result.Token = token
	result.ExpiresAt = expires
	return result, nil
}

// publicUser strips the stored password before a user leaves the service layer.
func publicUser(u persistence.User) persistence.User {
	u.Password = ""
	if u.Positions == nil {
		u.Positions = []string{}
	}
	return u
}
