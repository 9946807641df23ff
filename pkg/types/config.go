package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Storage. DATABASE_URL switches the key-value store to Postgres,
	// otherwise everything lives in DATA_FILE.
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DataFile    string `envconfig:"DATA_FILE" default:"foodconnect.json"`

	// Photo uploads go to S3 when a bucket is configured, otherwise they are
	// kept inline on the donation as a data URL.
	S3BucketName    string `envconfig:"S3_BUCKET_NAME"`
	S3PublicBaseURL string `envconfig:"S3_PUBLIC_BASE_URL"`
	MaxPhotoBytes   int64  `envconfig:"MAX_PHOTO_BYTES" default:"5242880"` // 5 MiB

	// Auth Configuration
	CookieName        string `envconfig:"SESSION_COOKIE_NAME" default:"session_id"`
	SessionMaxAgeSec  int    `envconfig:"SESSION_MAX_AGE_SEC" default:"604800"` // 7 days
	SessionSigningKey string `envconfig:"SESSION_SIGNING_KEY"`                  // base64, 32+ bytes

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes
	CSRFAuthKey    string `envconfig:"CSRF_AUTH_KEY"`    // 32 bytes

	// Seeded administrator
	AdminEmail    string `envconfig:"ADMIN_EMAIL" default:"admin@foodconnect.com"`
	AdminName     string `envconfig:"ADMIN_NAME" default:"FoodConnect Admin"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
