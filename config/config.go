package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

type Config struct {
	CockroachURL      string        `ff:"long: cockroach-url, default: postgresql://root@127.0.0.1:26257/defaultdb?sslmode=disable, usage: URL for the CockroachDB database"`
	Port              uint32        `ff:"long: port, short: p, default: 4000, usage: Port for the HTTP server"`
	NATSURL           string        `ff:"long: nats-url, default: nats://127.0.0.1:4222, usage: URL for the NATS server backing the propagation channel"`
	MinioEndpoint     string        `ff:"long: minio-endpoint, default: localhost:9000, usage: MinIO endpoint"`
	MinioAccessKey    string        `ff:"long: minio-access-key, default: minioadmin, usage: MinIO access key"`
	MinioSecretKey    string        `ff:"long: minio-secret-key, default: minioadmin, usage: MinIO secret key"`
	MinioSecure       bool          `ff:"long: minio-secure, default: false, usage: Use secure connection to MinIO"`
	MinioPublicURL    string        `ff:"long: minio-public-url, default: http://localhost:9000, usage: Public base URL for attachment links"`
	AppBaseURL        string        `ff:"long: app-base-url, default: http://localhost:4000, usage: Public base URL for deep links in push payloads"`
	VAPIDPublicKey    string        `ff:"long: vapid-public-key, usage: VAPID public key for web push, nodefault"`
	VAPIDPrivateKey   string        `ff:"long: vapid-private-key, usage: VAPID private key for web push, nodefault"`
	VAPIDSubject      string        `ff:"long: vapid-subject, default: mailto:admin@neighbor.local, usage: VAPID subject for web push"`
	PresenceAway      time.Duration `ff:"long: presence-away, default: 1m, usage: Idle time before a user is marked away"`
	PresenceOffline   time.Duration `ff:"long: presence-offline, default: 5m, usage: Idle time before a user is marked offline"`
	BackgroundTimeout time.Duration `ff:"long: background-timeout, default: 15s, usage: Timeout for background fan-out operations"`
	CleanupTimeout    time.Duration `ff:"long: cleanup-timeout, default: 5s, usage: Timeout for background cleanup operations"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	fs := ff.NewFlagSetFrom("neighbor", &cfg)
	err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("NEIGHBOR"))
	if errors.Is(err, ff.ErrHelp) {
		fmt.Println(ffhelp.Flags(fs))
		os.Exit(0)
	}

	return cfg, err
}
