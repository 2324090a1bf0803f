package types

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort  uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// No write timeout knob: the event stream endpoints hold their
	// connections open indefinitely.
	ReadTimeoutSec uint `envconfig:"READ_TIMEOUT_SEC" default:"10"`

	// Cognito Auth
	CognitoUserPoolID string `envconfig:"COGNITO_USER_POOL_ID"`
	CognitoClientID   string `envconfig:"COGNITO_CLIENT_ID"`
	CognitoIssuerURL  string `envconfig:"COGNITO_ISSUER_URL"`

	// Object storage
	StorageBucketName string `envconfig:"STORAGE_BUCKET_NAME" default:"obraflow-images"`
	StoragePublicURL  string `envconfig:"STORAGE_PUBLIC_URL"`

	// Role assigned when a profile row doesn't exist yet
	DefaultRole string `envconfig:"DEFAULT_ROLE" default:"field"`

	// Image handling
	ImageMaxWidth     int   `envconfig:"IMAGE_MAX_WIDTH" default:"1200"`
	ImageQuality      int   `envconfig:"IMAGE_QUALITY" default:"80"`
	ImageMaxSizeBytes int64 `envconfig:"IMAGE_MAX_SIZE_BYTES" default:"3145728"` // 3MB

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes
}
