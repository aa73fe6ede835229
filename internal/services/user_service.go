package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"trailkeeper/internal/database"
	apperrors "trailkeeper/internal/errors"
	"trailkeeper/internal/models"
	"trailkeeper/internal/tracking"
	"trailkeeper/internal/unitofwork"
)

// User activity and security event names.
const (
	EventUserRegistered     = "USER_REGISTERED"
	EventUserDeactivated    = "USER_DEACTIVATED"
	EventUserReactivated    = "USER_REACTIVATED"
	EventUserLoggedOut      = "USER_LOGGED_OUT"
	EventLoginSucceeded     = "LOGIN_SUCCEEDED"
	EventLoginFailed        = "LOGIN_FAILED"
	EventRefreshTokenReused = "REFRESH_TOKEN_REUSED"
)

// userService handles user-related business logic.
type userService struct {
	db      *gorm.DB
	audit   AuditServicer
	uowOpts []unitofwork.Option
	clock   func() time.Time
}

// NewUserService creates a new UserServicer. Options are applied to every
// unit-of-work the service opens.
func NewUserService(db *gorm.DB, audit AuditServicer, opts ...unitofwork.Option) UserServicer {
	return &userService{db: db, audit: audit, uowOpts: opts, clock: time.Now}
}

func (s *userService) begin(actor string) *unitofwork.UnitOfWork {
	return unitofwork.New(s.db, s.audit, actor, s.uowOpts...)
}

// Register creates a user together with an empty profile in one
// unit-of-work. Self-registration passes an empty actor and is attributed
// to the system.
func (s *userService) Register(ctx context.Context, email, password, fullName, actor string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}

	var count int64
	if err := database.Conn(ctx, s.db).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashed),
		FullName:     strings.TrimSpace(fullName),
	}

	uow := s.begin(actor)
	if err := uow.Add(user); err != nil {
		return nil, err
	}
	if err := uow.Add(models.NewUserProfile(user.ID, user.FullName)); err != nil {
		return nil, err
	}
	if err := uow.Enlist(func(ctx context.Context) error {
		return s.audit.LogUserActivity(ctx, user.ID, EventUserRegistered, tracking.Values{"email": tracking.String(email)})
	}); err != nil {
		return nil, err
	}
	if _, err := uow.Commit(ctx); err != nil {
		// a concurrent registration can win between the check and the insert
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Wrap(apperrors.ErrDuplicateEmail, err)
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials. Every attempt leaves a security event;
// failed attempts against a known account also bump its failure counter.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := database.Conn(ctx, s.db).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.audit.LogSecurityEvent(ctx, "", EventLoginFailed, "", "", tracking.Values{
			"email":  tracking.String(email),
			"reason": tracking.String("unknown_email"),
		}); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !user.Active {
		if err := s.audit.LogSecurityEvent(ctx, user.ID, EventLoginFailed, "", "", tracking.Values{
			"reason": tracking.String("inactive"),
		}); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrAccountInactive
	}

	uow := s.begin(user.ID)
	if err := uow.Attach(&user); err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		user.FailedLoginAttempts++
		attempts := user.FailedLoginAttempts
		if err := uow.Update(&user); err != nil {
			return nil, err
		}
		if err := uow.Enlist(func(ctx context.Context) error {
			return s.audit.LogSecurityEvent(ctx, user.ID, EventLoginFailed, "", "", tracking.Values{
				"reason":   tracking.String("bad_password"),
				"attempts": tracking.Int(int64(attempts)),
			})
		}); err != nil {
			return nil, err
		}
		if _, err := uow.Commit(ctx); err != nil {
			return nil, err
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	now := s.clock().UTC().Truncate(time.Microsecond)
	user.FailedLoginAttempts = 0
	user.LastLoginAt = &now
	if err := uow.Update(&user); err != nil {
		return nil, err
	}
	if err := uow.Enlist(func(ctx context.Context) error {
		return s.audit.LogSecurityEvent(ctx, user.ID, EventLoginSucceeded, "", "", nil)
	}); err != nil {
		return nil, err
	}
	if _, err := uow.Commit(ctx); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := database.Conn(ctx, s.db).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByEmail retrieves an active user by email
func (s *userService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := database.Conn(ctx, s.db).
		Where("email = ? AND active = ?", strings.ToLower(strings.TrimSpace(email)), true).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// Deactivate switches the account off. Accounts are never hard-deleted so
// their audit history keeps pointing at a row.
func (s *userService) Deactivate(ctx context.Context, id, actor string) (*models.User, error) {
	return s.setActive(ctx, id, actor, false)
}

func (s *userService) Reactivate(ctx context.Context, id, actor string) (*models.User, error) {
	return s.setActive(ctx, id, actor, true)
}

func (s *userService) setActive(ctx context.Context, id, actor string, active bool) (*models.User, error) {
	uow := s.begin(actor)
	user, err := s.load(ctx, uow, id)
	if err != nil {
		return nil, err
	}
	if user.Active == active {
		return user, nil
	}

	user.Active = active
	if err := uow.Update(user); err != nil {
		return nil, err
	}
	event := EventUserDeactivated
	if active {
		event = EventUserReactivated
	}
	if err := uow.Enlist(func(ctx context.Context) error {
		return s.audit.LogUserActivity(ctx, actor, event, tracking.Values{"targetUserId": tracking.String(id)})
	}); err != nil {
		return nil, err
	}
	if _, err := uow.Commit(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

// StoreRefreshToken records the hash of a freshly issued refresh token,
// replacing any previous one.
func (s *userService) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error {
	uow := s.begin(userID)
	user, err := s.load(ctx, uow, userID)
	if err != nil {
		return err
	}
	exp := expiry.UTC()
	user.RefreshTokenHash = tokenHash
	user.RefreshTokenExpiry = &exp
	if err := uow.Update(user); err != nil {
		return err
	}
	_, err = uow.Commit(ctx)
	return err
}

// RotateRefreshToken swaps the stored refresh token for a new one, but only
// when the presented one is the current, unexpired token. Presenting any
// other token revokes the stored one and is recorded as a security event.
// Two concurrent rotations of the same token cannot both succeed: the
// loser fails on the concurrency token.
func (s *userService) RotateRefreshToken(ctx context.Context, userID, presentedHash, newHash string, expiry time.Time) error {
	uow := s.begin(userID)
	user, err := s.load(ctx, uow, userID)
	if err != nil {
		return err
	}
	if !user.Active {
		_ = uow.Cancel()
		return apperrors.ErrAccountInactive
	}

	now := s.clock().UTC()
	valid := user.RefreshTokenHash != "" &&
		subtle.ConstantTimeCompare([]byte(user.RefreshTokenHash), []byte(presentedHash)) == 1 &&
		user.RefreshTokenExpiry != nil && now.Before(*user.RefreshTokenExpiry)

	if !valid {
		user.RefreshTokenHash = ""
		user.RefreshTokenExpiry = nil
		if err := uow.Update(user); err != nil {
			return err
		}
		if err := uow.Enlist(func(ctx context.Context) error {
			return s.audit.LogSecurityEvent(ctx, userID, EventRefreshTokenReused, "", "", nil)
		}); err != nil {
			return err
		}
		if _, err := uow.Commit(ctx); err != nil {
			return err
		}
		return apperrors.ErrTokenReused
	}

	exp := expiry.UTC()
	user.RefreshTokenHash = newHash
	user.RefreshTokenExpiry = &exp
	if err := uow.Update(user); err != nil {
		return err
	}
	_, err = uow.Commit(ctx)
	return err
}

// RevokeRefreshToken clears the stored refresh token on logout.
func (s *userService) RevokeRefreshToken(ctx context.Context, userID string) error {
	uow := s.begin(userID)
	user, err := s.load(ctx, uow, userID)
	if err != nil {
		return err
	}
	user.RefreshTokenHash = ""
	user.RefreshTokenExpiry = nil
	if err := uow.Update(user); err != nil {
		return err
	}
	if err := uow.Enlist(func(ctx context.Context) error {
		return s.audit.LogUserActivity(ctx, userID, EventUserLoggedOut, nil)
	}); err != nil {
		return err
	}
	_, err = uow.Commit(ctx)
	return err
}

// SearchUsers is not offered: user listing is out of scope for this service.
func (s *userService) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	return nil, apperrors.WithMessage(apperrors.ErrNotSupported, "user search is not supported")
}

func (s *userService) load(ctx context.Context, uow *unitofwork.UnitOfWork, id string) (*models.User, error) {
	var user models.User
	if err := uow.Load(ctx, &user, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}
