package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"duo-chat/domain"
	"duo-chat/errors"
	"duo-chat/repositories"
	"duo-chat/services"
)

type fakeAuth struct {
	registerErr error
	loginErr    error
	people      []services.Person
}

func (f fakeAuth) Register(username, _ string) (services.Session, error) {
	if f.registerErr != nil {
		return services.Session{}, f.registerErr
	}
	return services.Session{UserID: "id-" + username, Username: username, Token: "tok-" + username}, nil
}

func (f fakeAuth) Login(username, _ string) (services.Session, error) {
	if f.loginErr != nil {
		return services.Session{}, f.loginErr
	}
	return services.Session{UserID: "id-" + username, Username: username, Token: "tok-" + username}, nil
}

func (f fakeAuth) People() ([]services.Person, error) { return f.people, nil }

type fakeChat struct {
	conversation []domain.Message
	hits         []repositories.SearchHit
	gotQuery     string
	gotLimit     int
}

func (f *fakeChat) HandleInbound(*domain.Connection, []byte) {}

func (f *fakeChat) Conversation(a, b string) ([]domain.Message, error) {
	return f.conversation, nil
}

func (f *fakeChat) Search(_ context.Context, _, query string, limit int) ([]repositories.SearchHit, error) {
	f.gotQuery = query
	f.gotLimit = limit
	return f.hits, nil
}

type fakeVerifier struct{}

func (fakeVerifier) Verify(token string) (domain.Identity, error) {
	if !strings.HasPrefix(token, "tok-") {
		return domain.Identity{}, errors.ErrInvalidCredentials
	}
	username := strings.TrimPrefix(token, "tok-")
	return domain.Identity{UserID: "id-" + username, Username: username}, nil
}

func newAPIUnderTest(t *testing.T, auth services.IAuthService, chat services.IChatService) *httptest.Server {
	t.Helper()
	a := New(slog.Default(), auth, chat, fakeVerifier{}, t.TempDir())
	server := httptest.NewServer(a.Router(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func withToken(req *http.Request, username string) *http.Request {
	req.AddCookie(&http.Cookie{Name: "token", Value: "tok-" + username})
	return req
}

func TestAPI_Register_Sets_Token_Cookie(t *testing.T) {
	req := require.New(t)
	server := newAPIUnderTest(t, fakeAuth{}, &fakeChat{})

	resp, err := http.Post(server.URL+"/register", "application/json",
		strings.NewReader(`{"username":"alice","password":"Str0ngEnoughPass"}`))
	req.NoError(err)
	defer resp.Body.Close()

	req.Equal(http.StatusCreated, resp.StatusCode)
	cookies := resp.Cookies()
	req.Len(cookies, 1)
	req.Equal("token", cookies[0].Name)
	req.Equal("tok-alice", cookies[0].Value)
	req.True(cookies[0].HttpOnly)
}

func TestAPI_Register_Maps_Domain_Errors_To_Status_Codes(t *testing.T) {
	req := require.New(t)

	cases := []struct {
		err  error
		want int
	}{
		{errors.ErrUserAlreadyExists, http.StatusConflict},
		{errors.ErrInvalidPassword, http.StatusBadRequest},
	}
	for _, c := range cases {
		server := newAPIUnderTest(t, fakeAuth{registerErr: c.err}, &fakeChat{})
		resp, err := http.Post(server.URL+"/register", "application/json",
			strings.NewReader(`{"username":"alice","password":"x"}`))
		req.NoError(err)
		resp.Body.Close()
		req.Equal(c.want, resp.StatusCode)
	}
}

func TestAPI_Login_Failure_Is_Unauthorized(t *testing.T) {
	req := require.New(t)
	server := newAPIUnderTest(t, fakeAuth{loginErr: errors.ErrInvalidCredentials}, &fakeChat{})

	resp, err := http.Post(server.URL+"/login", "application/json",
		strings.NewReader(`{"username":"alice","password":"wrong"}`))
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_Protected_Endpoints_Require_A_Valid_Token(t *testing.T) {
	req := require.New(t)
	server := newAPIUnderTest(t, fakeAuth{}, &fakeChat{})

	for _, path := range []string{"/profile", "/messages/id-bob", "/search?q=x", "/people"} {
		// No cookie at all
		resp, err := http.Get(server.URL + path)
		req.NoError(err)
		resp.Body.Close()
		req.Equal(http.StatusUnauthorized, resp.StatusCode, "path %s", path)

		// Garbage cookie
		r, err := http.NewRequest(http.MethodGet, server.URL+path, nil)
		req.NoError(err)
		r.AddCookie(&http.Cookie{Name: "token", Value: "garbage"})
		resp, err = http.DefaultClient.Do(r)
		req.NoError(err)
		resp.Body.Close()
		req.Equal(http.StatusUnauthorized, resp.StatusCode, "path %s", path)
	}
}

func TestAPI_Messages_Returns_Conversation_JSON(t *testing.T) {
	req := require.New(t)
	chat := &fakeChat{conversation: []domain.Message{
		{Sender: "id-alice", Recipient: "id-bob", Text: "hi", At: time.Now().UTC()},
	}}
	server := newAPIUnderTest(t, fakeAuth{}, chat)

	r, err := http.NewRequest(http.MethodGet, server.URL+"/messages/id-bob", nil)
	req.NoError(err)
	resp, err := http.DefaultClient.Do(withToken(r, "alice"))
	req.NoError(err)
	defer resp.Body.Close()

	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("application/json", resp.Header.Get("Content-Type"))

	var got []domain.Message
	req.NoError(jsonDecode(resp, &got))
	req.Len(got, 1)
	req.Equal("hi", got[0].Text)
}

func TestAPI_Search_Validates_And_Forwards_Params(t *testing.T) {
	req := require.New(t)
	chat := &fakeChat{hits: []repositories.SearchHit{{ID: "m1", Text: "needle"}}}
	server := newAPIUnderTest(t, fakeAuth{}, chat)

	// Missing query is a client error
	r, err := http.NewRequest(http.MethodGet, server.URL+"/search", nil)
	req.NoError(err)
	resp, err := http.DefaultClient.Do(withToken(r, "alice"))
	req.NoError(err)
	resp.Body.Close()
	req.Equal(http.StatusBadRequest, resp.StatusCode)

	r, err = http.NewRequest(http.MethodGet, server.URL+"/search?q=needle&limit=5", nil)
	req.NoError(err)
	resp, err = http.DefaultClient.Do(withToken(r, "alice"))
	req.NoError(err)
	defer resp.Body.Close()

	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("needle", chat.gotQuery)
	req.Equal(5, chat.gotLimit)

	var got []repositories.SearchHit
	req.NoError(jsonDecode(resp, &got))
	req.Len(got, 1)
	req.Equal("m1", got[0].ID)
}

func TestAPI_Logout_Expires_The_Cookie(t *testing.T) {
	req := require.New(t)
	server := newAPIUnderTest(t, fakeAuth{}, &fakeChat{})

	resp, err := http.Post(server.URL+"/logout", "application/json", nil)
	req.NoError(err)
	resp.Body.Close()

	req.Equal(http.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()
	req.Len(cookies, 1)
	req.Equal("token", cookies[0].Name)
	req.Negative(cookies[0].MaxAge)
}

func jsonDecode(resp *http.Response, v any) error {
	return json.NewDecoder(resp.Body).Decode(v)
}
