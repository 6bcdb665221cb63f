package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"duo-chat/auth"
	"duo-chat/errors"
	"duo-chat/repositories"
)

type fakeUsers struct {
	byName map[string]repositories.User
	nextID string
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byName: make(map[string]repositories.User), nextID: "id-1"}
}

func (f *fakeUsers) Create(username, passwordHash string) (string, error) {
	if _, ok := f.byName[username]; ok {
		return "", errors.ErrUserAlreadyExists
	}
	f.byName[username] = repositories.User{ID: f.nextID, Username: username, PasswordHash: passwordHash}
	return f.nextID, nil
}

func (f *fakeUsers) GetByUsername(username string) (repositories.User, error) {
	user, ok := f.byName[username]
	if !ok {
		return repositories.User{}, errors.ErrUnknownUser
	}
	return user, nil
}

func (f *fakeUsers) All() ([]repositories.User, error) {
	var users []repositories.User
	for _, user := range f.byName {
		users = append(users, user)
	}
	return users, nil
}

func newAuthFixture() (*AuthService, *fakeUsers, *auth.TokenManager) {
	users := newFakeUsers()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewAuthService(users, tokens), users, tokens
}

func TestAuthService_Register_Issues_Verifiable_Token(t *testing.T) {
	req := require.New(t)
	service, users, tokens := newAuthFixture()

	session, err := service.Register("alice", "Str0ngEnoughPass")
	req.NoError(err)
	req.Equal("id-1", session.UserID)

	// The stored hash is not the plain password
	req.NotEqual("Str0ngEnoughPass", users.byName["alice"].PasswordHash)

	// The issued token carries the identity
	identity, err := tokens.Verify(session.Token)
	req.NoError(err)
	req.Equal("id-1", identity.UserID)
	req.Equal("alice", identity.Username)
}

func TestAuthService_Register_Rejects_Weak_Password(t *testing.T) {
	req := require.New(t)
	service, _, _ := newAuthFixture()

	_, err := service.Register("alice", "short")
	req.ErrorIs(err, errors.ErrInvalidPassword)
}

func TestAuthService_Register_Duplicate_Username(t *testing.T) {
	req := require.New(t)
	service, _, _ := newAuthFixture()

	_, err := service.Register("alice", "Str0ngEnoughPass")
	req.NoError(err)

	_, err = service.Register("alice", "Str0ngEnoughPass")
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
}

func TestAuthService_Login_Happy_Path(t *testing.T) {
	req := require.New(t)
	service, _, _ := newAuthFixture()

	_, err := service.Register("alice", "Str0ngEnoughPass")
	req.NoError(err)

	session, err := service.Login("alice", "Str0ngEnoughPass")
	req.NoError(err)
	req.Equal("id-1", session.UserID)
	req.NotEmpty(session.Token)
}

func TestAuthService_Login_Failures_Are_Indistinguishable(t *testing.T) {
	req := require.New(t)
	service, _, _ := newAuthFixture()

	_, err := service.Register("alice", "Str0ngEnoughPass")
	req.NoError(err)

	// Wrong password and unknown user both come back as the same error,
	// so the endpoint cannot be used to enumerate accounts
	_, wrongPass := service.Login("alice", "WrongPassword123")
	_, unknown := service.Login("mallory", "Str0ngEnoughPass")
	req.ErrorIs(wrongPass, errors.ErrInvalidCredentials)
	req.ErrorIs(unknown, errors.ErrInvalidCredentials)
}

func TestAuthService_People_Omits_Credentials(t *testing.T) {
	req := require.New(t)
	service, _, _ := newAuthFixture()

	_, err := service.Register("alice", "Str0ngEnoughPass")
	req.NoError(err)

	people, err := service.People()
	req.NoError(err)
	req.Len(people, 1)
	req.Equal("alice", people[0].Username)
	req.NotEmpty(people[0].ID)
}
