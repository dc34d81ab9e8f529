package ops

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"foodline-bot/internal/logger"
)

var ErrInvalidCredentials = errors.New("invalid login or password")

const tokenTTL = 12 * time.Hour

type Operator struct {
	ID           int64
	Login        string
	PasswordHash string
}

type OperatorRepository interface {
	GetByLogin(ctx context.Context, login string) (*Operator, error)
}

type operatorRepository struct {
	db *sql.DB
}

func NewOperatorRepository(db *sql.DB) OperatorRepository {
	return &operatorRepository{db: db}
}

func (r *operatorRepository) GetByLogin(ctx context.Context, login string) (*Operator, error) {
	var op Operator
	err := r.db.QueryRowContext(ctx, `
		SELECT id, login, password_hash FROM operators WHERE login = $1
	`, login).Scan(&op.ID, &op.Login, &op.PasswordHash)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query operator", zap.Error(err))
		return nil, err
	}
	return &op, nil
}

// Auth issues short-lived tokens for the fulfillment API. Credential
// failures are indistinguishable from unknown logins.
type Auth struct {
	repo   OperatorRepository
	secret []byte
}

func NewAuth(repo OperatorRepository, secret []byte) *Auth {
	return &Auth{repo: repo, secret: secret}
}

func (a *Auth) Login(ctx context.Context, login, password string) (string, error) {
	log := logger.FromCtx(ctx).With(zap.String("login", login))

	op, err := a.repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			log.Warn("login attempt for unknown operator")
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		log.Warn("operator password mismatch")
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"login": op.Login,
		"exp":   time.Now().Add(tokenTTL).Unix(),
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		log.Error("failed to sign token", zap.Error(err))
		return "", err
	}

	log.Info("operator logged in")
	return signed, nil
}
