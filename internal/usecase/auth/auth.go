package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/knotless/knot-backend/internal/domain"
)

type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type UseCase struct {
	userStore UserStore
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewUseCase(userStore UserStore, jwtSecret string, expiryDays int) *UseCase {
	return &UseCase{
		userStore: userStore,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  time.Duration(expiryDays) * 24 * time.Hour,
	}
}

// RegisterRequest carries the full signup payload. The dob format is
// validated by the binding layer.
type RegisterRequest struct {
	Fullname      string               `json:"fullname" binding:"required"`
	Username      string               `json:"username" binding:"required,min=3"`
	Email         string               `json:"email" binding:"required,email"`
	Password      string               `json:"password" binding:"required,min=8"`
	DOB           string               `json:"dob" binding:"required,dob"`
	Gender        string               `json:"gender" binding:"required,oneof=Male Female"`
	Location      domain.Location      `json:"location"`
	Qualification domain.Qualification `json:"qualification"`
	Profession    domain.Profession    `json:"profession"`
	Hobbies       []string             `json:"hobbies"`
	Interests     []string             `json:"interests"`
	Description   *string              `json:"description"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (uc *UseCase) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	if _, err := uc.userStore.GetByUsername(ctx, req.Username); err == nil {
		return nil, domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := uc.userStore.GetByEmail(ctx, req.Email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Fullname:      req.Fullname,
		Username:      req.Username,
		Email:         req.Email,
		Password:      string(hash),
		Gender:        req.Gender,
		DOB:           req.DOB,
		Location:      req.Location,
		Qualification: req.Qualification,
		Profession:    req.Profession,
		Hobbies:       req.Hobbies,
		Interests:     req.Interests,
		Description:   req.Description,
	}
	if err := uc.userStore.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := uc.generateToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (uc *UseCase) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := uc.userStore.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := uc.generateToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (uc *UseCase) generateToken(userID int) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(uc.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(uc.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ParseToken validates a token and returns the embedded user id.
func (uc *UseCase) ParseToken(tokenString string) (int, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return uc.jwtSecret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token claims")
	}
	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return 0, fmt.Errorf("invalid token subject: %w", err)
	}
	return userID, nil
}

// LoadUser resolves a user id from a token to the full user record, used
// by the auth middleware.
func (uc *UseCase) LoadUser(ctx context.Context, userID int) (*domain.User, error) {
	return uc.userStore.GetByID(ctx, userID)
}
