package configuration

type Configuration struct {
	HttpAddr          string  `usage:"HTTP address"`
	Dir               string  `usage:"data directory, one <view>.yaml definition and <view>.jsonl log per view"`
	Version           bool    `usage:"show version and exit"`
	ShowBanner        bool    `usage:"show big banner"`
	ShowConfig        bool    `usage:"print config"`
	EnableCompression bool    `usage:"gzip responses when the client accepts it"`
	HttpsEnabled      bool    `usage:"serve HTTPS"`
	HttpsSelfsigned   bool    `usage:"serve HTTPS with a self signed certificate"`
	ApiKey            string  `usage:"API key, empty disables authentication"`
	ApiSecret         string  `usage:"API secret"`
	LogLevel          string  `usage:"log level: debug, info, warn or error"`
	LogFormat         string  `usage:"log format: text or json"`
	Metrics           bool    `usage:"expose prometheus metrics at /metrics"`
	RateLimit         float64 `usage:"requests per second allowed per client, 0 disables the limit"`
	RateBurst         int     `usage:"requests a client can burst over the rate limit"`

	MaxConflictRetries int `usage:"times a read restarts after the index changed before giving up"`
	BatchSize          int `usage:"entries requested per read, 0 lets the buffer decide"`
	BuildVersion       int `usage:"index build version reported to clients, below 400 disables atomic lookups"`
	MaxBufferSize      int `usage:"bytes returned by a single index read"`
}

func Default() Configuration {
	return Configuration{
		HttpAddr:          "127.0.0.1:8080",
		Dir:               "data",
		ShowBanner:        true,
		EnableCompression: true,
		LogLevel:          "info",
		LogFormat:         "text",
		Metrics:           true,

		MaxConflictRetries: 16,
		MaxBufferSize:      64 * 1024,
	}
}
