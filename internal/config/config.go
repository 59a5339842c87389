package config

import (
	"fmt"
	"time"

	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/constants"
	"github.com/narendra12543/Matrimony-Web-App-sub000/pkg/env"
)

// Config aggregates the realtime service settings from the environment
type Config struct {
	Env  string
	Port string

	// CockroachDB
	CockroachHost     string
	CockroachPort     int
	CockroachUser     string
	CockroachPassword string
	CockroachDatabase string
	CockroachSSLMode  string

	// Cassandra
	CassandraHosts    []string
	CassandraKeyspace string
	CassandraUser     string
	CassandraPassword string

	// Redis
	RedisHost     string
	RedisPort     int
	RedisPassword string

	// Object storage
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	// Auth
	JWTSecret string

	// Realtime tuning
	RingTimeout   time.Duration
	SweepInterval time.Duration
}

// Load reads the service configuration from the environment.
// Secrets support the Docker _FILE convention.
func Load() *Config {
	return &Config{
		Env:  env.GetString("ENV", "development"),
		Port: env.GetString("PORT", "8084"),

		CockroachHost:     env.GetString("COCKROACH_HOST", "localhost"),
		CockroachPort:     env.GetInt("COCKROACH_PORT", 26257),
		CockroachUser:     env.GetString("COCKROACH_USER", "root"),
		CockroachPassword: env.GetStringFromFile("COCKROACH_PASSWORD", ""),
		CockroachDatabase: env.GetString("COCKROACH_DATABASE", "matrimony_db"),
		CockroachSSLMode:  env.GetString("COCKROACH_SSLMODE", "disable"),

		CassandraHosts:    []string{env.GetString("CASSANDRA_HOST", "localhost")},
		CassandraKeyspace: env.GetString("CASSANDRA_KEYSPACE", "matrimony_ks"),
		CassandraUser:     env.GetStringFromFile("CASSANDRA_USER", ""),
		CassandraPassword: env.GetStringFromFile("CASSANDRA_PASSWORD", ""),

		RedisHost:     env.GetString("REDIS_HOST", "localhost"),
		RedisPort:     env.GetInt("REDIS_PORT", 6379),
		RedisPassword: env.GetStringFromFile("REDIS_PASSWORD", ""),

		MinIOEndpoint:  env.GetString("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: env.GetStringFromFile("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey: env.GetStringFromFile("MINIO_SECRET_KEY", "minioadmin"),
		MinIOBucket:    env.GetString("MINIO_BUCKET", "matrimony-attachments"),
		MinIOUseSSL:    env.GetBool("MINIO_USE_SSL", false),

		JWTSecret: env.GetStringFromFile("JWT_SECRET", ""),

		RingTimeout:   env.GetDuration("CALL_RING_TIMEOUT", constants.CallRingTimeout),
		SweepInterval: env.GetDuration("CALL_SWEEP_INTERVAL", constants.CallSweepInterval),
	}
}

// CockroachConnString returns the pgx connection string
func (c *Config) CockroachConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.CockroachHost, c.CockroachPort, c.CockroachUser, c.CockroachPassword,
		c.CockroachDatabase, c.CockroachSSLMode)
}
