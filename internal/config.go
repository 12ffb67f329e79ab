package internal

import (
	"strings"
	"time"
)

type Config struct {
	WebSocketAddr string `env:"WEBSOCKET_ADDR,default=0.0.0.0:8080"`
	HTTPAddr      string `env:"HTTP_ADDR,default=0.0.0.0:3001"`

	// Comma-separated origin allow-list. "*" disables the check.
	AllowedOrigins string `env:"ALLOWED_ORIGINS,default=*"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	RedisAddr      string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword  string `env:"REDIS_PASSWORD"`
	RedisDB        int    `env:"REDIS_DB,default=0"`

	// Number of chat messages replayed in the Welcome frame.
	HistoryLimit int `env:"HISTORY_LIMIT,default=20"`

	// Outbound frame queue depth per connection.
	ConnectionBufferSize int `env:"CONNECTION_BUFFER_SIZE,default=256"`

	// Upper bound on a single inbound frame, in bytes.
	MaxMessageSize int64 `env:"MAX_MESSAGE_SIZE,default=65536"`

	// Rooms idle longer than this stop showing up in the listing.
	ActiveRoomWindow time.Duration `env:"ACTIVE_ROOM_WINDOW,default=1h"`

	// Must stay below the cache's room counter TTL so refreshed counts
	// never expire between two reports.
	StatsInterval time.Duration `env:"STATS_INTERVAL,default=1m"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
}

// Origins splits the configured allow-list. A single "*" entry means any
// origin is accepted.
func (c Config) Origins() []string {
	var out []string
	for _, part := range strings.Split(c.AllowedOrigins, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
