package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full application configuration, sourced from the
// environment with sane defaults. A .env file is loaded when present.
type Config struct {
	Server    ServerConfig
	WebSocket WebSocketConfig
	Liveness  LivenessConfig
	RateLimit RateLimitConfig
	Client    ClientConfig
}

type ServerConfig struct {
	Port string
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	MaxMessageSize  int64
	WriteTimeout    time.Duration
	SendBufferSize  int
}

// LivenessConfig drives the heartbeat sweep: every SweepInterval a session
// that has not acknowledged the previous probe is terminated.
type LivenessConfig struct {
	SweepInterval time.Duration
}

type RateLimitConfig struct {
	MessagesPerSecond float64
	Burst             int
}

// ClientConfig configures the reconnection controller and its snapshot store.
type ClientConfig struct {
	PingInterval         time.Duration
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
	SnapshotPath         string
}

// Load reads the configuration from the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Skipping .env: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getInt("WS_READ_BUFFER_SIZE", 4096),
			WriteBufferSize: getInt("WS_WRITE_BUFFER_SIZE", 4096),
			MaxMessageSize:  int64(getInt("WS_MAX_MESSAGE_SIZE", 1024*1024)),
			WriteTimeout:    getDuration("WS_WRITE_TIMEOUT", 10*time.Second),
			SendBufferSize:  getInt("WS_SEND_BUFFER_SIZE", 512),
		},
		Liveness: LivenessConfig{
			SweepInterval: getDuration("HEARTBEAT_INTERVAL", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			MessagesPerSecond: float64(getInt("RATE_LIMIT_PER_SECOND", 100)),
			Burst:             getInt("RATE_LIMIT_BURST", 200),
		},
		Client: ClientConfig{
			PingInterval:         getDuration("CLIENT_PING_INTERVAL", 2*time.Second),
			ReconnectDelay:       getDuration("CLIENT_RECONNECT_DELAY", 3*time.Second),
			MaxReconnectAttempts: getInt("CLIENT_MAX_RECONNECT_ATTEMPTS", 5),
			SnapshotPath:         getEnv("CLIENT_SNAPSHOT_PATH", "./data/canvas.db"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return d
}
