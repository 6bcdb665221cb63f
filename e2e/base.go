package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

// BaseSuite carries the environment configuration and the HTTP/websocket
// plumbing shared by the end-to-end scenarios. It talks to an already
// running server; nothing is started in-process.
type BaseSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping e2e suite")
	}
}

// Banner prints a colorized section header in the test log.
func (s *BaseSuite) Banner(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// RegisterUser creates an account over the REST API and returns a client
// whose cookie jar carries the session token.
func (s *BaseSuite) RegisterUser(username, password string) (*http.Client, string) {
	jar, err := cookiejar.New(nil)
	s.Require().NoError(err)
	client := &http.Client{Jar: jar, Timeout: 10 * time.Second}

	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	s.Require().NoError(err)

	resp, err := client.Post(s.url("/register"), "application/json", bytes.NewReader(body))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&created))
	return client, created.ID
}

// DialWS opens a live connection carrying the client's token cookie.
func (s *BaseSuite) DialWS(client *http.Client) *websocket.Conn {
	wsURL := fmt.Sprintf("ws://%s/ws", s.Config.ServerAddr)
	header := http.Header{}
	u, err := http.NewRequest(http.MethodGet, s.url("/ws"), nil)
	s.Require().NoError(err)
	for _, cookie := range client.Jar.Cookies(u.URL) {
		header.Add("Cookie", cookie.String())
	}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if resp != nil {
		defer resp.Body.Close()
	}
	s.Require().NoError(err)
	return conn
}

func (s *BaseSuite) url(path string) string {
	return fmt.Sprintf("http://%s%s", s.Config.ServerAddr, path)
}
