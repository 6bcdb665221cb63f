package e2e

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ChatScenarioSuite struct {
	BaseSuite
}

func TestChatScenarioSuite(t *testing.T) {
	suite.Run(t, new(ChatScenarioSuite))
}

// Two users register, connect, and exchange one message end to end:
// the recipient must receive the delivery frame, and both must have seen
// a presence roster containing the other.
func (s *ChatScenarioSuite) TestMessageRoundTrip() {
	s.Banner(s.T(), "message round trip")

	stamp := time.Now().UnixNano()
	aliceClient, _ := s.RegisterUser(fmt.Sprintf("alice%d", stamp), "Str0ngPassword!")
	bobClient, bobID := s.RegisterUser(fmt.Sprintf("bob%d", stamp), "Str0ngPassword!")

	alice := s.DialWS(aliceClient)
	defer alice.Close()
	bob := s.DialWS(bobClient)
	defer bob.Close()

	// First frame on connect is the presence roster.
	var presence struct {
		Online []map[string]string `json:"online"`
	}
	s.Require().NoError(bob.SetReadDeadline(time.Now().Add(5 * time.Second)))
	_, payload, err := bob.ReadMessage()
	s.Require().NoError(err)
	s.Require().NoError(json.Unmarshal(payload, &presence))
	s.Require().NotEmpty(presence.Online)

	text := "hello over the wire"
	frame, err := json.Marshal(map[string]string{"recipient": bobID, "text": text})
	s.Require().NoError(err)
	s.Require().NoError(alice.WriteMessage(1, frame))

	// Skip further presence frames until the delivery arrives.
	deadline := time.Now().Add(5 * time.Second)
	for {
		s.Require().NoError(bob.SetReadDeadline(deadline))
		_, payload, err = bob.ReadMessage()
		s.Require().NoError(err)

		var delivery struct {
			Text   string `json:"text"`
			Sender string `json:"sender"`
			ID     string `json:"id"`
		}
		if err := json.Unmarshal(payload, &delivery); err == nil && delivery.ID != "" {
			s.Require().Equal(text, delivery.Text)
			return
		}
	}
}
