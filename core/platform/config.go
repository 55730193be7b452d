package platform

// Config holds connection details for the analytics platform.
type Config struct {
	// URL is the root platform URL, e.g. https://company.example.com.
	URL string `mapstructure:"url" default:""`
	// Username is the admin login used for API calls.
	Username string `mapstructure:"username" default:""`
	// Password is the password for the admin login.
	Password string `mapstructure:"password" default:""`
	// DisableSSL skips TLS certificate verification.
	DisableSSL bool `mapstructure:"disable_ssl" default:"false"`
	// TimeoutSeconds bounds connection setup and I/O.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"120"`
}
