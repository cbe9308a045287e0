package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecolens/ecolens/internal/domain/history"
	"github.com/ecolens/ecolens/internal/domain/model"
	"github.com/ecolens/ecolens/internal/domain/progress"
	"github.com/ecolens/ecolens/pkg/logger"
)

// session is the persisted record behind a bearer token.
type session struct {
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Signup creates the ledger and an empty history log together, as one
// account-creation step, and returns a fresh session token.
func (s *Service) Signup(ctx context.Context, name, email, password string) (model.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	switch {
	case name == "":
		return model.User{}, "", fmt.Errorf("%w: name is required", ErrValidation)
	case email == "":
		return model.User{}, "", fmt.Errorf("%w: email is required", ErrValidation)
	case password == "":
		return model.User{}, "", fmt.Errorf("%w: password is required", ErrValidation)
	}

	if _, ok, err := s.store.Get(ctx, emailKey(email)); err != nil {
		return model.User{}, "", err
	} else if ok {
		return model.User{}, "", fmt.Errorf("%w: email already registered", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, "", fmt.Errorf("hash password: %w", err)
	}

	user := progress.NewUser(uuid.NewString(), name, email, s.now())
	user.PasswordHash = string(hash)

	if err := s.saveUser(ctx, user); err != nil {
		return model.User{}, "", err
	}
	if err := s.saveHistory(ctx, user.ID, history.Clear()); err != nil {
		return model.User{}, "", err
	}
	if err := s.store.Set(ctx, emailKey(email), []byte(user.ID)); err != nil {
		return model.User{}, "", err
	}

	token, err := s.newSession(ctx, user.ID)
	if err != nil {
		return model.User{}, "", err
	}

	s.logger.Info(ctx, "user signed up", logger.String("userID", user.ID))
	return sanitize(user), token, nil
}

// Signin checks credentials and returns the user with a fresh session token.
// Bad credentials and unknown emails both map to ErrUnauthorized.
func (s *Service) Signin(ctx context.Context, email, password string) (model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return model.User{}, "", fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	idBytes, ok, err := s.store.Get(ctx, emailKey(email))
	if err != nil {
		return model.User{}, "", err
	}
	if !ok {
		return model.User{}, "", ErrUnauthorized
	}

	user, err := s.loadUser(ctx, string(idBytes))
	if err != nil {
		return model.User{}, "", ErrUnauthorized
	}
	// The email index is append-only; reject stale entries left behind by a
	// profile email change.
	if user.Email != email {
		return model.User{}, "", ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.User{}, "", ErrUnauthorized
	}

	token, err := s.newSession(ctx, user.ID)
	if err != nil {
		return model.User{}, "", err
	}
	return sanitize(user), token, nil
}

// ResolveSession maps a bearer token to the caller's user ID.
func (s *Service) ResolveSession(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	data, ok, err := s.store.Get(ctx, sessionKey(token))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrUnauthorized
	}
	var sess session
	if err := json.Unmarshal(data, &sess); err != nil {
		return "", ErrUnauthorized
	}
	if s.now().After(sess.ExpiresAt) {
		return "", ErrUnauthorized
	}
	return sess.UserID, nil
}

// GetUser returns the ledger and history snapshot for one user.
func (s *Service) GetUser(ctx context.Context, userID string) (model.User, history.Log, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return model.User{}, history.Log{}, err
	}
	log, err := s.loadHistory(ctx, userID)
	if err != nil {
		return model.User{}, history.Log{}, err
	}
	return sanitize(user), log, nil
}

// UpdateProfile merges profile fields into the ledger. It has no XP or
// streak side effects, but shares the per-user lock with analysis updates so
// the two cannot interleave on the same ledger.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd progress.ProfileUpdate) (model.User, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return model.User{}, err
	}

	if upd.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*upd.Email))
		if normalized == "" {
			return model.User{}, fmt.Errorf("%w: email must not be empty", ErrValidation)
		}
		upd.Email = &normalized
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return model.User{}, fmt.Errorf("%w: name must not be empty", ErrValidation)
	}

	updated := progress.MergeProfile(user, upd)
	if updated.Email != user.Email {
		if err := s.store.Set(ctx, emailKey(updated.Email), []byte(userID)); err != nil {
			return model.User{}, err
		}
	}
	if err := s.saveUser(ctx, updated); err != nil {
		return model.User{}, err
	}
	return sanitize(updated), nil
}

func (s *Service) newSession(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	data, err := json.Marshal(session{UserID: userID, ExpiresAt: s.now().Add(s.sessionTTL)})
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if err := s.store.Set(ctx, sessionKey(token), data); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Service) loadUser(ctx context.Context, userID string) (model.User, error) {
	data, ok, err := s.store.Get(ctx, userKey(userID))
	if err != nil {
		return model.User{}, err
	}
	if !ok {
		return model.User{}, ErrNotFound
	}
	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return model.User{}, fmt.Errorf("decode user %s: %w", userID, err)
	}
	return user, nil
}

func (s *Service) saveUser(ctx context.Context, user model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user %s: %w", user.ID, err)
	}
	return s.store.Set(ctx, userKey(user.ID), data)
}

func (s *Service) loadHistory(ctx context.Context, userID string) (history.Log, error) {
	data, _, err := s.store.Get(ctx, historyKey(userID))
	if err != nil {
		return history.Log{}, err
	}
	log, err := history.Decode(data)
	if err != nil {
		return history.Log{}, err
	}
	if log.Malformed > 0 {
		s.logger.Warn(ctx, "history snapshot has malformed entries",
			logger.String("userID", userID),
			logger.Int("excluded", log.Malformed),
		)
	}
	return log, nil
}

func (s *Service) saveHistory(ctx context.Context, userID string, log history.Log) error {
	data, err := history.Encode(log)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, historyKey(userID), data)
}

// sanitize strips credentials before a ledger leaves the service.
func sanitize(u model.User) model.User {
	u.PasswordHash = ""
	return u
}
