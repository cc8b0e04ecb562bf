package config

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

var (
	cfg *APIConfig
	mu  sync.RWMutex
)

// APIConfig represents the root element.
type APIConfig struct {
	XMLName        xml.Name             `xml:"API"`
	RequestDump    bool                 `xml:"REQUEST_DUMP,attr"`
	Context        ContextConfig        `xml:"CONTEXT"`
	Authentication AuthenticationConfig `xml:"AUTHENTICATION"`
	Quiz           QuizConfig           `xml:"QUIZ"`
	Telemetry      TelemetryConfig      `xml:"TELEMETRY"`
	DB             DBConfig             `xml:"DB"`
	Logging        LoggingConfig        `xml:"LOGGING"`
}

// ContextConfig holds basic server settings.
type ContextConfig struct {
	Port           int    `xml:"PORT"`
	Host           string `xml:"HOST"`
	Path           string `xml:"PATH"`
	TimeZone       string `xml:"TIME_ZONE"`
	MaxConnections int    `xml:"MAX_CONNECTIONS"`

	// TrustedProxies lists the proxies whose X-Forwarded-For is believed.
	// Empty means the peer address is the client.
	TrustedProxies []string `xml:"TRUSTED_PROXIES>PROXY"`
}

// AuthenticationConfig holds the credential gate settings.
type AuthenticationConfig struct {
	EnablePlaintextFallback bool    `xml:"PLAINTEXT_FALLBACK,attr"`
	PasswordHash            string  `xml:"PASSWORD_HASH"`   // sha256 hex
	PasswordBcrypt          string  `xml:"PASSWORD_BCRYPT"` // preferred when set
	PlaintextPassword       string  `xml:"PLAINTEXT_PASSWORD"`
	TokenTTL                int     `xml:"TOKEN_TTL"` // minutes
	JWTSecret               string  `xml:"-"`
	LoginRate               float64 `xml:"LOGIN_RATE"` // attempts per second per client
	LoginBurst              int     `xml:"LOGIN_BURST"`
}

// QuizConfig holds question bank and session settings.
type QuizConfig struct {
	BankPath       string `xml:"BANK_PATH"`
	DefaultCount   int    `xml:"DEFAULT_COUNT"`
	CountOptions   []int  `xml:"COUNT_OPTIONS>COUNT"`
	SessionTimeout int    `xml:"SESSION_TIMEOUT"` // minutes
	MaxSessions    int    `xml:"MAX_SESSIONS"`
	ReportFont     string `xml:"REPORT_FONT"` // TrueType file for the review PDF
	ReportFontBold string `xml:"REPORT_FONT_BOLD"`
}

// TelemetryConfig holds the result side channel settings.
type TelemetryConfig struct {
	Collector bool    `xml:"COLLECTOR,attr"`
	Endpoint  string  `xml:"ENDPOINT"`
	Timeout   int     `xml:"TIMEOUT"` // seconds
	Rate      float64 `xml:"RATE"`    // submissions per second
	Burst     int     `xml:"BURST"`
}

// DBConfig holds database connection settings for the result collector.
type DBConfig struct {
	Initialize bool         `xml:"INITIALIZE"`
	Host       string       `xml:"HOST"`
	Port       int          `xml:"PORT"`
	SSLMode    string       `xml:"SSL_MODE"`
	Name       string       `xml:"NAME"`
	Username   string       `xml:"USERNAME"`
	Password   DBPassword   `xml:"PASSWORD"`
	Pool       DBPoolConfig `xml:"POOL"`
}

// DBPassword holds password details.
type DBPassword struct {
	Type  string `xml:"TYPE,attr"`
	Value string `xml:",chardata"`
}

// DBPoolConfig holds database connection pooling settings.
type DBPoolConfig struct {
	MaxOpenConns    int `xml:"MAX_OPEN_CONNS"`
	MaxIdleConns    int `xml:"MAX_IDLE_CONNS"`
	ConnMaxLifetime int `xml:"CONN_MAX_LIFETIME"` // minutes
}

// LoggingConfig holds log file rotation settings.
type LoggingConfig struct {
	Dir        string `xml:"DIR"`
	MaxSizeMB  int    `xml:"MAX_SIZE_MB"`
	MaxBackups int    `xml:"MAX_BACKUPS"`
	MaxAgeDays int    `xml:"MAX_AGE_DAYS"`
}

// DSN builds the postgres connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.Username, d.Password.Value, d.Name, d.SSLMode)
}

// LoadConfig loads and parses the XML configuration from the given file, then
// applies environment overrides. A .env file next to the process is honoured.
func LoadConfig(xmlPath string) (*APIConfig, error) {
	data, err := os.ReadFile(xmlPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// A missing .env is normal in production.
	_ = godotenv.Load()

	newCfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	ApplyEnv(newCfg)
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	mu.Lock()
	cfg = newCfg
	mu.Unlock()
	return newCfg, nil
}

// Parse decodes an XML document and fills defaults.
func Parse(data []byte) (*APIConfig, error) {
	var newCfg APIConfig
	if err := xml.Unmarshal(data, &newCfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	newCfg.applyDefaults()
	return &newCfg, nil
}

func (c *APIConfig) applyDefaults() {
	if c.Context.Host == "" {
		c.Context.Host = "0.0.0.0"
	}
	if c.Context.Port == 0 {
		c.Context.Port = 8080
	}
	if c.Authentication.TokenTTL == 0 {
		c.Authentication.TokenTTL = 12 * 60
	}
	if c.Authentication.LoginRate == 0 {
		c.Authentication.LoginRate = 0.5
	}
	if c.Authentication.LoginBurst == 0 {
		c.Authentication.LoginBurst = 5
	}
	if len(c.Quiz.CountOptions) == 0 {
		c.Quiz.CountOptions = []int{5, 10, 0}
	}
	if c.Quiz.SessionTimeout == 0 {
		c.Quiz.SessionTimeout = 120
	}
	if c.Quiz.MaxSessions == 0 {
		c.Quiz.MaxSessions = 1000
	}
	if c.Telemetry.Timeout == 0 {
		c.Telemetry.Timeout = 5
	}
	if c.Telemetry.Rate == 0 {
		c.Telemetry.Rate = 10
	}
	if c.Telemetry.Burst == 0 {
		c.Telemetry.Burst = 20
	}
	if c.DB.SSLMode == "" {
		c.DB.SSLMode = "disable"
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "logs"
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 50
	}
}

// ApplyEnv overrides secrets from the environment.
func ApplyEnv(c *APIConfig) {
	if v := os.Getenv("QUIZ_JWT_SECRET"); v != "" {
		c.Authentication.JWTSecret = v
	}
	if v := os.Getenv("QUIZ_PASSWORD_HASH"); v != "" {
		c.Authentication.PasswordHash = v
	}
	if v := os.Getenv("QUIZ_PASSWORD_BCRYPT"); v != "" {
		c.Authentication.PasswordBcrypt = v
	}
	if v := os.Getenv("QUIZ_DB_PASSWORD"); v != "" {
		c.DB.Password.Value = v
	}
	if v := os.Getenv("QUIZ_TELEMETRY_ENDPOINT"); v != "" {
		c.Telemetry.Endpoint = v
	}
	if v := os.Getenv("QUIZ_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Context.Port = port
		}
	}
}

// Validate rejects settings the server cannot run with.
func (c *APIConfig) Validate() error {
	var errs []error
	if c.Context.Port <= 0 || c.Context.Port > 65535 {
		errs = append(errs, fmt.Errorf("CONTEXT/PORT %d out of range", c.Context.Port))
	}
	if c.Context.MaxConnections < 0 {
		errs = append(errs, errors.New("CONTEXT/MAX_CONNECTIONS must not be negative"))
	}
	if c.Quiz.DefaultCount < 0 {
		errs = append(errs, errors.New("QUIZ/DEFAULT_COUNT must not be negative"))
	}
	for _, n := range c.Quiz.CountOptions {
		if n < 0 {
			errs = append(errs, fmt.Errorf("QUIZ/COUNT_OPTIONS contains negative count %d", n))
		}
	}
	a := c.Authentication
	if a.PasswordBcrypt == "" && a.PasswordHash == "" && !a.EnablePlaintextFallback {
		errs = append(errs, errors.New("AUTHENTICATION needs PASSWORD_BCRYPT, PASSWORD_HASH or PLAINTEXT_FALLBACK"))
	}
	if a.EnablePlaintextFallback && a.PlaintextPassword == "" && a.PasswordBcrypt == "" && a.PasswordHash == "" {
		errs = append(errs, errors.New("AUTHENTICATION PLAINTEXT_FALLBACK needs PLAINTEXT_PASSWORD"))
	}
	if c.Telemetry.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("TELEMETRY/TIMEOUT %d must be positive", c.Telemetry.Timeout))
	}
	if c.Telemetry.Rate <= 0 || c.Telemetry.Burst <= 0 {
		errs = append(errs, errors.New("TELEMETRY/RATE and TELEMETRY/BURST must be positive"))
	}
	if c.Authentication.LoginRate <= 0 || c.Authentication.LoginBurst <= 0 {
		errs = append(errs, errors.New("AUTHENTICATION/LOGIN_RATE and LOGIN_BURST must be positive"))
	}
	if c.Quiz.ReportFontBold != "" && c.Quiz.ReportFont == "" {
		errs = append(errs, errors.New("QUIZ/REPORT_FONT_BOLD needs REPORT_FONT"))
	}
	if c.Telemetry.Collector && !c.DB.Initialize {
		errs = append(errs, errors.New("TELEMETRY COLLECTOR needs DB/INITIALIZE"))
	}
	return errors.Join(errs...)
}

// GetConfig returns the loaded configuration.
func GetConfig() *APIConfig {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}
