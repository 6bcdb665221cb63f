package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host string `env:"HOST,default=0.0.0.0"`
	Port int    `env:"PORT,default=4000"`

	LogLevel string `env:"LOG_LEVEL,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	UploadsDir     string `env:"UPLOADS_DIR,required=true"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	HeartbeatInterval    time.Duration `env:"HEARTBEAT_INTERVAL,default=5s"`
	HeartbeatTimeout     time.Duration `env:"HEARTBEAT_TIMEOUT,default=1s"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`

	LimitMessages *int `env:"LIMIT_MESSAGES"`

	CensoredWordsPath string `env:"CENSORED_WORDS_PATH,required=true"`
	CharReplacement   string `env:"CHARACTER_REPLACEMENT,default=*"`

	ReportInterval time.Duration `env:"REPORT_INTERVAL,default=30s"`
	GCInterval     time.Duration `env:"GC_INTERVAL,default=10m"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
