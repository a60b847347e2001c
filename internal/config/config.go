package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port      string
	Env       string
	JWTSecret string
	JWTTTLHrs int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ArchiveDSN enables the MySQL session archive when non-empty.
	ArchiveDSN string

	// ProviderBaseURL enables the external room provider when non-empty;
	// otherwise rooms keep their static catalog URLs.
	ProviderBaseURL string
	ProviderAPIKey  string

	// RoomDomain is the domain room URLs are derived from.
	RoomDomain string

	DyadRooms  int
	TriadRooms int
	QuadRooms  int
	KivaRooms  int

	// ShuffleParticipants randomizes breakout group composition.
	ShuffleParticipants bool

	SessionTTLHours int
}

func Load() *Config {
	_ = godotenv.Load()

	c := &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "dev"),
		JWTSecret: mustEnv("JWT_SECRET"),
		JWTTTLHrs: getEnvInt("JWT_TTL_HOURS", 24),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		ArchiveDSN: getEnv("ARCHIVE_DSN", ""),

		ProviderBaseURL: getEnv("PROVIDER_BASE_URL", ""),
		ProviderAPIKey:  getEnv("PROVIDER_API_KEY", ""),

		RoomDomain: getEnv("ROOM_DOMAIN", "rooms.convene.local"),

		DyadRooms:  getEnvInt("DYAD_ROOMS", 8),
		TriadRooms: getEnvInt("TRIAD_ROOMS", 6),
		QuadRooms:  getEnvInt("QUAD_ROOMS", 5),
		KivaRooms:  getEnvInt("KIVA_ROOMS", 4),

		ShuffleParticipants: getEnv("SHUFFLE_PARTICIPANTS", "true") == "true",

		SessionTTLHours: getEnvInt("SESSION_TTL_HOURS", 12),
	}
	logrus.Infof("config loaded: env=%s port=%s redis=%s", c.Env, c.Port, c.RedisAddr)
	return c
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	v, err := strconv.Atoi(getEnv(k, ""))
	if err != nil {
		return def
	}
	return v
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		logrus.Fatalf("missing env: %s", k)
	}
	return v
}
