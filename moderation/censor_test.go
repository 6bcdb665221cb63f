package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"duo-chat/errors"
)

func TestCensor_Masks_Plain_Words(t *testing.T) {
	req := require.New(t)
	censor, err := NewCensor([]string{"spam"}, '*')
	req.NoError(err)

	masked, hit := censor.Apply("this is spam right here")
	req.True(hit)
	req.Equal("this is **** right here", masked)
}

func TestCensor_Catches_Leet_And_Spacing_Tricks(t *testing.T) {
	req := require.New(t)
	censor, err := NewCensor([]string{"spam"}, '*')
	req.NoError(err)

	cases := map[string]string{
		"sp4m ahead":    "**** ahead",
		"watch for 5pam": "watch for ****",
		"s.p.a.m":       "*******",
		"S P A M":       "*******",
	}
	for in, want := range cases {
		masked, hit := censor.Apply(in)
		req.True(hit, "input %q", in)
		req.Equal(want, masked, "input %q", in)
	}
}

func TestCensor_Leaves_Clean_Text_Alone(t *testing.T) {
	req := require.New(t)
	censor, err := NewCensor([]string{"spam"}, '*')
	req.NoError(err)

	text := "perfectly ordinary sentence"
	masked, hit := censor.Apply(text)
	req.False(hit)
	req.Equal(text, masked)

	masked, hit = censor.Apply("")
	req.False(hit)
	req.Equal("", masked)
}

func TestCensor_Requires_At_Least_One_Word(t *testing.T) {
	req := require.New(t)

	_, err := NewCensor(nil, '*')
	req.ErrorIs(err, errors.ErrEmptyCensoredWords)

	// Words that normalize to nothing do not count either
	_, err = NewCensor([]string{"...", "  "}, '*')
	req.ErrorIs(err, errors.ErrEmptyCensoredWords)
}

func TestDetectLanguage(t *testing.T) {
	req := require.New(t)

	english := "The quick brown fox jumps over the lazy dog while the sun sets slowly behind the distant hills of the countryside."
	req.Equal("en", DetectLanguage(english))

	req.Equal("", DetectLanguage(""))
	req.Equal("", DetectLanguage("ok"))
}
