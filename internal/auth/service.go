// Package auth implementa a autenticação do backend (usuários, senhas e
// tokens JWT) e o estado de autenticação de cada cliente.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/utils"
)

const usersTable = "users"

// Claims representa os claims do JWT
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

// Service autentica usuários contra a tabela users e emite tokens HS256
// assinados com a chave anônima do backend
type Service struct {
	tables backend.TableStore
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
}

func NewService(tables backend.TableStore, secret string, ttl time.Duration, clk clock.Clock) *Service {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Service{tables: tables, secret: []byte(secret), ttl: ttl, clock: clk}
}

func (s *Service) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthSession, error) {
	email := utils.NormalizeEmail(req.Email)
	if !strings.Contains(email, "@") {
		return nil, errors.NotValidf("email %q", req.Email)
	}
	if len(req.Password) < 8 {
		return nil, errors.NotValidf("senha curta")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Annotate(err, "failed to hash password")
	}

	values := backend.Row{"email": email, "password_hash": hash}
	if nome := strings.TrimSpace(req.Nome); nome != "" {
		values["nome"] = nome
	}
	row, err := s.tables.Insert(ctx, usersTable, values)
	if errors.Is(err, errors.AlreadyExists) {
		return nil, errors.AlreadyExistsf("email %s", email)
	}
	if err != nil {
		return nil, errors.Annotate(err, "failed to create user")
	}

	var user models.User
	if err := backend.Decode(row, &user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *Service) SignIn(ctx context.Context, req models.SignInRequest) (*models.AuthSession, error) {
	user, err := s.findUser(ctx, backend.Eq("email", utils.NormalizeEmail(req.Email)))
	if errors.Is(err, errors.NotFound) {
		return nil, errors.Unauthorizedf("credenciais inválidas")
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, errors.Unauthorizedf("credenciais inválidas")
	}
	return s.issue(*user)
}

// Verify valida o token e recarrega o usuário
func (s *Service) Verify(ctx context.Context, token string) (*models.AuthSession, error) {
	claims, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}
	user, err := s.findUser(ctx, backend.Eq("id", claims.UserID))
	if errors.Is(err, errors.NotFound) {
		return nil, errors.Unauthorizedf("usuário do token não existe")
	}
	if err != nil {
		return nil, err
	}
	return &models.AuthSession{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        *user,
	}, nil
}

// Refresh troca um token válido por um novo
func (s *Service) Refresh(ctx context.Context, token string) (*models.AuthSession, error) {
	session, err := s.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.issue(session.User)
}

// User carrega um usuário pelo id
func (s *Service) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findUser(ctx, backend.Eq("id", id))
}

// ParseToken valida assinatura e expiração do JWT
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, errors.NewUnauthorized(err, "token inválido ou expirado")
	}
	if !token.Valid {
		return nil, errors.Unauthorizedf("token inválido")
	}
	return claims, nil
}

func (s *Service) issue(user models.User) (*models.AuthSession, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, errors.Annotate(err, "failed to sign token")
	}
	return &models.AuthSession{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

func (s *Service) findUser(ctx context.Context, pred backend.Predicate) (*models.User, error) {
	rows, _, err := s.tables.Select(ctx, backend.From(usersTable).Where(pred).Range(0, 0))
	if err != nil {
		return nil, errors.Annotate(err, "failed to load user")
	}
	if len(rows) == 0 {
		return nil, errors.NotFoundf("usuário")
	}
	var user models.User
	if err := backend.Decode(rows[0], &user); err != nil {
		return nil, err
	}
	return &user, nil
}
