// Package services contains server-side business logic. SessionService
// owns accounts and the session token lifecycle; ChannelService answers
// relationship queries over the subscription graph.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/channelauth/internal/common"
	"github.com/dmitrijs2005/channelauth/internal/cryptox"
	"github.com/dmitrijs2005/channelauth/internal/logging"
	"github.com/dmitrijs2005/channelauth/internal/server/auth"
	"github.com/dmitrijs2005/channelauth/internal/server/models"
	"github.com/dmitrijs2005/channelauth/internal/server/repositories/repomanager"
)

const (
	msgRefreshRequired = "refresh token is required"
	msgRefreshInvalid  = "invalid refresh token"
	msgRefreshStale    = "refresh token is expired or invalid"
)

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	UserName   string
	Email      string
	Password   string
	FullName   string
	Avatar     string
	CoverImage string
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Tokens models.TokenPair
	User   models.PublicUser
}

// SessionService verifies credentials and issues and rotates session
// tokens. It keeps no per-user state; the stored refresh token lives on the
// user record.
type SessionService struct {
	repomanager  repomanager.RepositoryManager
	tokens       *auth.TokenIssuer
	storeTimeout time.Duration
	log          logging.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(m repomanager.RepositoryManager, tokens *auth.TokenIssuer, storeTimeout time.Duration, log logging.Logger) *SessionService {
	return &SessionService{
		repomanager:  m,
		tokens:       tokens,
		storeTimeout: storeTimeout,
		log:          log.With("module", "session"),
	}
}

// Register creates an account and returns its public view.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (*models.PublicUser, error) {
	if err := requireFields("all fields are required",
		"username", in.UserName, "email", in.Email, "password", in.Password, "fullName", in.FullName,
	); err != nil {
		return nil, err
	}
	if blank(in.Avatar) {
		return nil, common.NewError(common.KindInvalidInput, "avatar is required",
			common.FieldError{Field: "avatar", Message: "avatar is required"})
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return nil, internalError(ctx, s.log, "hash password", err)
	}

	user := &models.User{
		UserName:     common.NormalizeIdentifier(in.UserName),
		Email:        common.NormalizeIdentifier(in.Email),
		FullName:     strings.TrimSpace(in.FullName),
		Avatar:       strings.TrimSpace(in.Avatar),
		CoverImage:   strings.TrimSpace(in.CoverImage),
		PasswordHash: hash,
	}

	sctx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	created, err := s.repomanager.Users(s.repomanager.DB()).Create(sctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewError(common.KindConflict, "user with email or username already exists")
		}
		return nil, internalError(ctx, s.log, "create user", err)
	}

	s.log.Info(ctx, "user registered", "user_id", created.ID)
	pub := models.NewPublicUser(created)
	return &pub, nil
}

// Login looks the user up by userName or email, whichever matches, and
// verifies password. On success it issues a token pair and stores its
// refresh token, replacing any previous one.
func (s *SessionService) Login(ctx context.Context, userName, email, password string) (*LoginResult, error) {
	if blank(userName) && blank(email) {
		return nil, common.NewError(common.KindInvalidInput, "username or email is required")
	}
	if blank(password) {
		return nil, common.NewError(common.KindInvalidInput, "password is required")
	}
	name := common.NormalizeIdentifier(userName)
	mail := common.NormalizeIdentifier(email)

	user, err := s.getUser(ctx, func(ctx context.Context) (*models.User, error) {
		return s.repomanager.Users(s.repomanager.DB()).GetByUserNameOrEmail(ctx, name, mail)
	})
	if err != nil {
		return nil, err
	}

	if !cryptox.VerifyPassword(password, user.PasswordHash) {
		return nil, common.NewError(common.KindUnauthorized, "invalid user credentials")
	}
	if cryptox.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user.ID, password)
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, internalError(ctx, s.log, "issue tokens", err)
	}

	sctx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	if err := s.repomanager.Users(s.repomanager.DB()).SetRefreshToken(sctx, user.ID, pair.RefreshToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.KindNotFound, "user does not exist")
		}
		return nil, internalError(ctx, s.log, "store refresh token", err)
	}

	s.log.Info(ctx, "user logged in", "user_id", user.ID)
	return &LoginResult{Tokens: pair, User: models.NewPublicUser(user)}, nil
}

// upgradeHash replaces a legacy hash after a successful login. Failure is
// logged and does not fail the login.
func (s *SessionService) upgradeHash(ctx context.Context, userID, password string) {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		s.log.Warn(ctx, "rehash password", "user_id", userID, "error", err)
		return
	}

	sctx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	if _, err := s.repomanager.Users(s.repomanager.DB()).Update(sctx, userID, models.UserUpdate{PasswordHash: &hash}); err != nil {
		s.log.Warn(ctx, "store rehashed password", "user_id", userID, "error", err)
	}
}

// Logout clears the stored refresh token. Repeating it, or logging out a
// user that no longer exists, is not an error.
func (s *SessionService) Logout(ctx context.Context, who auth.Identity) error {
	sctx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	err := s.repomanager.Users(s.repomanager.DB()).SetRefreshToken(sctx, who.UserID, "")
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return internalError(ctx, s.log, "clear refresh token", err)
	}
	s.log.Info(ctx, "user logged out", "user_id", who.UserID)
	return nil
}

// Refresh exchanges a valid, current refresh token for a new pair. The
// presented token stops working once the new one is stored; of concurrent
// calls with the same token exactly one succeeds.
func (s *SessionService) Refresh(ctx context.Context, presented string) (*models.TokenPair, error) {
	if presented == "" {
		return nil, common.NewError(common.KindUnauthorized, msgRefreshRequired)
	}

	userID, err := s.tokens.VerifyRefreshToken(presented)
	if err != nil {
		s.log.Info(ctx, "refresh token rejected", "error", err)
		return nil, common.WrapError(common.KindUnauthorized, msgRefreshInvalid, err)
	}

	user, err := s.getUser(ctx, func(ctx context.Context) (*models.User, error) {
		return s.repomanager.Users(s.repomanager.DB()).GetByID(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(presented)) != 1 {
		s.log.Warn(ctx, "stale refresh token presented", "user_id", userID)
		return nil, common.NewError(common.KindUnauthorized, msgRefreshStale)
	}

	pair, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, internalError(ctx, s.log, "issue tokens", err)
	}

	sctx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	swapped, err := s.repomanager.Users(s.repomanager.DB()).SwapRefreshToken(sctx, userID, presented, pair.RefreshToken)
	if err != nil {
		return nil, internalError(ctx, s.log, "rotate refresh token", err)
	}
	if !swapped {
		s.log.Warn(ctx, "refresh token rotated concurrently", "user_id", userID)
		return nil, common.NewError(common.KindUnauthorized, msgRefreshStale)
	}

	return &pair, nil
}

// ChangePassword replaces the password after checking the old one. The
// stored refresh token is left as is.
func (s *SessionService) ChangePassword(ctx context.Context, who auth.Identity, oldPassword, newPassword string) error {
	if err := requireFields("old and new password are required",
		"oldPassword", oldPassword, "newPassword", newPassword,
	); err != nil {
		return err
	}

	user, err := s.getUser(ctx, func(ctx context.Context) (*models.User, error) {
		return s.repomanager.Users(s.repomanager.DB()).GetByID(ctx, who.UserID)
	})
	if err != nil {
		return err
	}

	if !cryptox.VerifyPassword(oldPassword, user.PasswordHash) {
		return common.NewError(common.KindUnauthorized, "invalid old password")
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return internalError(ctx, s.log, "hash password", err)
	}

	_, err = s.update(ctx, who.UserID, models.UserUpdate{PasswordHash: &hash})
	if err == nil {
		s.log.Info(ctx, "password changed", "user_id", who.UserID)
	}
	return err
}

// CurrentUser returns the caller's public profile.
func (s *SessionService) CurrentUser(ctx context.Context, who auth.Identity) (*models.PublicUser, error) {
	user, err := s.getUser(ctx, func(ctx context.Context) (*models.User, error) {
		return s.repomanager.Users(s.repomanager.DB()).GetByID(ctx, who.UserID)
	})
	if err != nil {
		return nil, err
	}
	pub := models.NewPublicUser(user)
	return &pub, nil
}

// UpdateAccount changes the display name and email.
func (s *SessionService) UpdateAccount(ctx context.Context, who auth.Identity, fullName, email string) (*models.PublicUser, error) {
	if err := requireFields("all fields are required", "fullName", fullName, "email", email); err != nil {
		return nil, err
	}
	fullName = strings.TrimSpace(fullName)
	email = common.NormalizeIdentifier(email)
	return s.update(ctx, who.UserID, models.UserUpdate{FullName: &fullName, Email: &email})
}

// UpdateAvatar stores a new avatar reference produced by the media host.
func (s *SessionService) UpdateAvatar(ctx context.Context, who auth.Identity, ref string) (*models.PublicUser, error) {
	if blank(ref) {
		return nil, common.NewError(common.KindInvalidInput, "avatar is required")
	}
	ref = strings.TrimSpace(ref)
	return s.update(ctx, who.UserID, models.UserUpdate{Avatar: &ref})
}

// UpdateCoverImage stores a new cover image reference.
func (s *SessionService) UpdateCoverImage(ctx context.Context, who auth.Identity, ref string) (*models.PublicUser, error) {
	if blank(ref) {
		return nil, common.NewError(common.KindInvalidInput, "cover image is required")
	}
	ref = strings.TrimSpace(ref)
	return s.update(ctx, who.UserID, models.UserUpdate{CoverImage: &ref})
}

func (s *SessionService) getUser(ctx context.Context, get func(context.Context) (*models.User, error)) (*models.User, error) {
	sctx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	user, err := get(sctx)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.KindNotFound, "user does not exist")
		}
		return nil, internalError(ctx, s.log, "load user", err)
	}
	return user, nil
}

func (s *SessionService) update(ctx context.Context, userID string, upd models.UserUpdate) (*models.PublicUser, error) {
	sctx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.repomanager.Users(s.repomanager.DB()).Update(sctx, userID, upd)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return nil, common.NewError(common.KindNotFound, "user does not exist")
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, common.NewError(common.KindConflict, "email is already in use")
		}
		return nil, internalError(ctx, s.log, "update user", err)
	}
	pub := models.NewPublicUser(user)
	return &pub, nil
}
