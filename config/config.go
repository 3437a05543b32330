package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/andreyxaxa/payout-controller/internal/infrastructure/paypal"
	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

type (
	Config struct {
		App      App
		HTTP     HTTP
		Log      Log
		PG       PG
		PayPal   PayPal
		Payout   Payout
		Retry    Retry
		Schedule Schedule
		Balance  Balance
		Kafka    Kafka
		Recorder Recorder
		Queue    Queue
	}

	App struct {
		Name string `env:"APP_NAME" envDefault:"payout-controller"`
	}

	HTTP struct {
		Enabled bool   `env:"HTTP_ENABLED" envDefault:"true"`
		Port    string `env:"HTTP_PORT" envDefault:"8080"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}

	// PG is optional: the store counts as configured only when host, user,
	// password and database are all set.
	PG struct {
		Host           string        `env:"PG_HOST"`
		Port           string        `env:"PG_PORT" envDefault:"5432"`
		User           string        `env:"PG_USER"`
		Password       string        `env:"PG_PASSWORD"`
		Database       string        `env:"PG_DATABASE"`
		SSLMode        string        `env:"PG_SSLMODE" envDefault:"disable"`
		PoolMax        int           `env:"PG_POOL_MAX" envDefault:"4"`
		ConnAttempts   int           `env:"PG_CONN_ATTEMPTS" envDefault:"3"`
		ConnTimeout    time.Duration `env:"PG_CONN_TIMEOUT" envDefault:"1s"`
		MigrationsPath string        `env:"PG_MIGRATIONS_PATH"`
	}

	PayPal struct {
		ClientID     string        `env:"PAYPAL_CLIENT_ID,required"`
		ClientSecret string        `env:"PAYPAL_CLIENT_SECRET,required"`
		Mode         string        `env:"PAYPAL_MODE" envDefault:"sandbox"`
		Timeout      time.Duration `env:"GATEWAY_TIMEOUT" envDefault:"30s"`
	}

	Payout struct {
		Recipient    string          `env:"PAYOUT_RECIPIENT,required"`
		Currency     string          `env:"PAYOUT_CURRENCY" envDefault:"USD"`
		MinReserve   decimal.Decimal `env:"PAYOUT_MIN_RESERVE" envDefault:"20.00"`
		EmailSubject string          `env:"PAYOUT_EMAIL_SUBJECT" envDefault:"You have a payout!"`
		Note         string          `env:"PAYOUT_NOTE" envDefault:"Scheduled payout"`
	}

	Retry struct {
		MaxRetries        int           `env:"MAX_RETRIES" envDefault:"3"`
		BackoffMultiplier float64       `env:"BACKOFF_MULTIPLIER" envDefault:"2"`
		BaseDelay         time.Duration `env:"RETRY_BASE_DELAY" envDefault:"1s"`
	}

	Schedule struct {
		Cron       string        `env:"SCHEDULE_CRON" envDefault:"0 0 * * *"`
		Timezone   string        `env:"SCHEDULE_TIMEZONE" envDefault:"UTC"`
		RunOnStart bool          `env:"SCHEDULE_RUN_ON_START" envDefault:"false"`
		RunTimeout time.Duration `env:"SCHEDULE_RUN_TIMEOUT" envDefault:"1m"`
	}

	Balance struct {
		StaticAmount decimal.Decimal `env:"BALANCE_STATIC_AMOUNT" envDefault:"0"`
	}

	Kafka struct {
		Brokers []string `env:"KAFKA_BROKERS"`
		Topic   string   `env:"KAFKA_TOPIC" envDefault:"payout-outcomes"`
	}

	Recorder struct {
		ErrorLogPath   string        `env:"RECORDER_ERROR_LOG" envDefault:"payout_errors.log"`
		SuccessLogPath string        `env:"RECORDER_SUCCESS_LOG" envDefault:"payout_success.log"`
		WriteTimeout   time.Duration `env:"RECORDER_WRITE_TIMEOUT" envDefault:"5s"`
	}

	Queue struct {
		ShutdownTimeout time.Duration `env:"QUEUE_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Retry.MaxRetries <= 0 {
		errs = append(errs, fmt.Errorf("MAX_RETRIES must be a positive integer, got %d", c.Retry.MaxRetries))
	}

	m := c.Retry.BackoffMultiplier
	if !(m > 0) || math.IsInf(m, 0) {
		errs = append(errs, fmt.Errorf("BACKOFF_MULTIPLIER must be a positive number, got %v", m))
	}

	if c.Retry.BaseDelay <= 0 {
		errs = append(errs, fmt.Errorf("RETRY_BASE_DELAY must be positive, got %s", c.Retry.BaseDelay))
	}

	if c.PayPal.Mode != paypal.ModeSandbox && c.PayPal.Mode != paypal.ModeLive {
		errs = append(errs, fmt.Errorf("PAYPAL_MODE must be %q or %q, got %q", paypal.ModeSandbox, paypal.ModeLive, c.PayPal.Mode))
	}

	if c.Payout.MinReserve.IsNegative() {
		errs = append(errs, fmt.Errorf("PAYOUT_MIN_RESERVE must not be negative, got %s", c.Payout.MinReserve))
	}

	if len(c.Payout.Currency) != 3 {
		errs = append(errs, fmt.Errorf("PAYOUT_CURRENCY must be an ISO-4217 code, got %q", c.Payout.Currency))
	}

	if c.Balance.StaticAmount.IsNegative() {
		errs = append(errs, fmt.Errorf("BALANCE_STATIC_AMOUNT must not be negative, got %s", c.Balance.StaticAmount))
	}

	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("SCHEDULE_TIMEZONE: %w", err))
	}

	if _, err := c.Schedule.Parse(); err != nil {
		errs = append(errs, fmt.Errorf("SCHEDULE_CRON: %w", err))
	}

	return errors.Join(errs...)
}

// Configured reports whether all four store parameters are present.
func (pg PG) Configured() bool {
	return pg.Host != "" && pg.User != "" && pg.Password != "" && pg.Database != ""
}

func (pg PG) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(pg.User, pg.Password),
		Host:   net.JoinHostPort(pg.Host, pg.Port),
		Path:   "/" + pg.Database,
	}

	q := url.Values{}
	q.Set("sslmode", pg.SSLMode)
	u.RawQuery = q.Encode()

	return u.String()
}

func (s Schedule) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}

// Parse reads a standard five-field expression. The zone comes from
// SCHEDULE_TIMEZONE, so inline TZ prefixes are rejected.
func (s Schedule) Parse() (cron.Schedule, error) {
	expr := strings.TrimSpace(s.Cron)
	if strings.HasPrefix(expr, "TZ=") || strings.HasPrefix(expr, "CRON_TZ=") {
		return nil, fmt.Errorf("timezone prefix not allowed, use SCHEDULE_TIMEZONE")
	}

	return cron.ParseStandard(expr)
}
