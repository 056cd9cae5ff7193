package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/octal-backend/internal/data/db"
	"github.com/yungbote/octal-backend/internal/data/repos"
	types "github.com/yungbote/octal-backend/internal/domain"
	"github.com/yungbote/octal-backend/internal/platform/apierr"
	"github.com/yungbote/octal-backend/internal/platform/dbctx"
	"github.com/yungbote/octal-backend/internal/platform/errs"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

const lazyEmailDomain = "lazy.octal.invalid"

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AccessClaims is the JWT payload. Subject carries the user id.
type AccessClaims struct {
	Lazy bool `json:"lazy,omitempty"`
	jwt.RegisteredClaims
}

type AuthService interface {
	// Register creates an account, or claims the caller's lazy account when
	// currentUserID points at one.
	Register(dbc dbctx.Context, in RegisterInput, currentUserID uuid.UUID) (*types.User, string, error)
	Login(dbc dbctx.Context, email, password string) (*types.User, string, error)
	// CreateLazyUser makes an anonymous learner so quiz progress can be kept
	// before signing up.
	CreateLazyUser(dbc dbctx.Context) (*types.User, string, error)
	ParseToken(tokenString string) (uuid.UUID, bool, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	jwtSecretKey []byte
	accessTTL    time.Duration
	now          func() time.Time
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	if accessTTL <= 0 {
		accessTTL = 24 * time.Hour
	}
	return &authService{
		db:           db,
		log:          log.With("service", "AuthService"),
		userRepo:     userRepo,
		jwtSecretKey: []byte(jwtSecretKey),
		accessTTL:    accessTTL,
		now:          time.Now,
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.accessTTL }

func (as *authService) Register(dbc dbctx.Context, in RegisterInput, currentUserID uuid.UUID) (*types.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, "", apierr.BadRequest("missing_credentials", fmt.Errorf("%w: email and password are required", errs.ErrInvalidArgument))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	var user *types.User
	err = dbc.DB(as.db).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: dbc.Ctx, Tx: tx}
		exists, err := as.userRepo.EmailExists(inner, email)
		if err != nil {
			return err
		}
		if exists {
			return apierr.OnField(http.StatusConflict, "email_taken", "email", fmt.Errorf("%w: email already registered", errs.ErrConflict))
		}

		if currentUserID != uuid.Nil {
			claimed, err := as.userRepo.Claim(inner, currentUserID, email, string(hash), in.FirstName, in.LastName)
			if err != nil {
				return err
			}
			if claimed {
				found, err := as.userRepo.GetByIDs(inner, []uuid.UUID{currentUserID})
				if err != nil {
					return err
				}
				if len(found) == 1 {
					user = found[0]
					return nil
				}
			}
		}

		created, err := as.userRepo.Create(inner, []*types.User{{
			Email:     email,
			Password:  string(hash),
			FirstName: strings.TrimSpace(in.FirstName),
			LastName:  strings.TrimSpace(in.LastName),
		}})
		if err != nil {
			if db.IsUniqueViolation(err) {
				return apierr.OnField(http.StatusConflict, "email_taken", "email", fmt.Errorf("%w: email already registered", errs.ErrConflict))
			}
			return err
		}
		user = created[0]
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	token, err := as.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	as.log.Info("user registered", "user_id", user.ID.String())
	return user, token, nil
}

func (as *authService) Login(dbc dbctx.Context, email, password string) (*types.User, string, error) {
	invalid := apierr.New(http.StatusUnauthorized, "invalid_credentials", fmt.Errorf("%w: invalid email or password", errs.ErrUnauthorized))
	user, err := as.userRepo.GetByEmail(dbc, email)
	if err != nil {
		return nil, "", fmt.Errorf("lookup user: %w", err)
	}
	if user == nil || user.IsLazy {
		return nil, "", invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", invalid
	}
	token, err := as.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (as *authService) CreateLazyUser(dbc dbctx.Context) (*types.User, string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return nil, "", fmt.Errorf("lazy password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(raw)), bcrypt.MinCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	id := uuid.New()
	created, err := as.userRepo.Create(dbc, []*types.User{{
		ID:       id,
		Email:    id.String() + "@" + lazyEmailDomain,
		Password: string(hash),
		IsLazy:   true,
	}})
	if err != nil {
		return nil, "", fmt.Errorf("create lazy user: %w", err)
	}
	token, err := as.issueToken(created[0])
	if err != nil {
		return nil, "", err
	}
	return created[0], token, nil
}

func (as *authService) issueToken(user *types.User) (string, error) {
	now := as.now()
	claims := AccessClaims{
		Lazy: user.IsLazy,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecretKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (as *authService) ParseToken(tokenString string) (uuid.UUID, bool, error) {
	var claims AccessClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return as.jwtSecretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, false, apierr.New(http.StatusUnauthorized, "token_expired", fmt.Errorf("%w: token expired", errs.ErrUnauthorized))
		}
		return uuid.Nil, false, apierr.New(http.StatusUnauthorized, "invalid_token", fmt.Errorf("%w: %v", errs.ErrUnauthorized, err))
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, false, apierr.New(http.StatusUnauthorized, "invalid_token", fmt.Errorf("%w: bad subject", errs.ErrUnauthorized))
	}
	return userID, claims.Lazy, nil
}
