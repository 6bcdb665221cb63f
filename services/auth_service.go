//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"fmt"

	"duo-chat/auth"
	"duo-chat/errors"
	"duo-chat/repositories"
)

type IAuthService interface {
	Register(username, password string) (Session, error)
	Login(username, password string) (Session, error)
	People() ([]Person, error)
}

// Session is the outcome of a successful register or login.
type Session struct {
	UserID   string
	Username string
	Token    string
}

// Person is the public projection of a registered account.
type Person struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type AuthService struct {
	users  repositories.IUserRepository
	tokens *auth.TokenManager
}

func NewAuthService(users repositories.IUserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

func (s *AuthService) Register(username, password string) (Session, error) {
	// 1. Validate business rules before any expensive crypto work.
	req := auth.RegisterRequest{Username: username, Password: password}
	if err := auth.ValidateRegister(req); err != nil {
		return Session{}, fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// 2. Hash the password here so the repository never sees plain text.
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist; ErrUserAlreadyExists propagates when the name is taken.
	userID, err := s.users.Create(username, hashed)
	if err != nil {
		return Session{}, err
	}

	// 4. Issue the initial session token.
	token, err := s.tokens.Generate(userID, username)
	if err != nil {
		return Session{}, errors.ErrTokenGeneration
	}
	return Session{UserID: userID, Username: username, Token: token}, nil
}

func (s *AuthService) Login(username, password string) (Session, error) {
	user, err := s.users.GetByUsername(username)
	if err != nil {
		// Generic error to prevent user enumeration.
		return Session{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return Session{}, errors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return Session{}, errors.ErrTokenGeneration
	}
	return Session{UserID: user.ID, Username: user.Username, Token: token}, nil
}

// People lists every known account, without credentials.
func (s *AuthService) People() ([]Person, error) {
	users, err := s.users.All()
	if err != nil {
		return nil, err
	}

	people := make([]Person, 0, len(users))
	for _, user := range users {
		people = append(people, Person{ID: user.ID, Username: user.Username})
	}
	return people, nil
}
