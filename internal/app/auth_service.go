package app

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"studydesk/internal/model"
	"studydesk/internal/repository"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidPassword = errors.New("invalid password")
)

// AuthService exchanges the shared login secret for opaque session tokens.
// A token row in the store is the whole credential: requests carrying a
// stored token are authorized until the token is deleted.
type AuthService struct {
	sessionRepo  *repository.SessionRepository
	password     string
	passwordHash string
}

func NewAuthService(sessionRepo *repository.SessionRepository, password, passwordHash string) *AuthService {
	return &AuthService{
		sessionRepo:  sessionRepo,
		password:     password,
		passwordHash: passwordHash,
	}
}

func (s *AuthService) Login(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", ErrInvalidInput
	}
	if !s.secretMatches(password) {
		return "", ErrInvalidPassword
	}

	session := &model.Session{Token: uuid.NewString()}
	if err := s.sessionRepo.Create(session); err != nil {
		return "", err
	}
	return session.Token, nil
}

// Logout deletes the token. Unknown tokens are not an error.
func (s *AuthService) Logout(token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return s.sessionRepo.DeleteByToken(token)
}

func (s *AuthService) Validate(token string) (bool, error) {
	if strings.TrimSpace(token) == "" {
		return false, nil
	}
	session, err := s.sessionRepo.GetByToken(token)
	if err != nil {
		return false, err
	}
	return session != nil, nil
}

func (s *AuthService) secretMatches(password string) bool {
	if s.passwordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)) == nil
	}
	return password == s.password
}
