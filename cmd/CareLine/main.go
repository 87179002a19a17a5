package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/CareBridge/CareLine/internal/api"
	"github.com/CareBridge/CareLine/internal/flow"
	"github.com/CareBridge/CareLine/internal/session"
	"github.com/CareBridge/CareLine/internal/store"
	"github.com/CareBridge/CareLine/internal/twiliowhatsapp"
	"github.com/CareBridge/CareLine/internal/util"
	"github.com/CareBridge/CareLine/internal/whatsapp"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for CareLine state data
	DefaultStateDir = "/var/lib/careline"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "careline.db"
	// DefaultWhatsAppDBFileName is the default whatsmeow SQLite database filename
	DefaultWhatsAppDBFileName = "whatsmeow.db"
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	opts := buildRunOpts(flags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping CareLine")
	if err := api.Run(ctx, opts); err != nil {
		slog.Error("CareLine failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("CareLine exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL     string
	StateDir        string
	APIAddr         string
	BaseURL         string
	SupportContact  string
	CareTeamNumber  string
	PublicURL       string
	TwilioAuthToken string
	WhatsAppDSN     string
	WhatsAppEnabled bool
	SessionTTLMin   int
}

// Flags holds command line flag values
type Flags struct {
	stateDir       *string
	dbDSN          *string
	apiAddr        *string
	baseURL        *string
	supportContact *string
	careTeam       *string
	publicURL      *string
	whatsappDSN    *string
	whatsapp       *bool
	qrOutput       *string
	numeric        *bool
	sessionTTLMin  *int
}

// initializeLogger sets up structured logging
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StateDir:        os.Getenv("CARELINE_STATE_DIR"),
		APIAddr:         os.Getenv("API_ADDR"),
		BaseURL:         os.Getenv("BASE_URL"),
		SupportContact:  os.Getenv("SUPPORT_CONTACT"),
		CareTeamNumber:  os.Getenv("CARE_TEAM_NUMBER"),
		PublicURL:       os.Getenv("PUBLIC_URL"),
		TwilioAuthToken: os.Getenv("TWILIO_AUTH_TOKEN"),
		WhatsAppDSN:     os.Getenv("WHATSAPP_DB_DSN"),
		WhatsAppEnabled: util.ParseBoolEnv("WHATSAPP_ENABLED", false),
	}

	if ttl := os.Getenv("SESSION_TTL_MINUTES"); ttl != "" {
		if minutes, err := strconv.Atoi(ttl); err == nil && minutes > 0 {
			config.SessionTTLMin = minutes
		} else {
			slog.Warn("Invalid SESSION_TTL_MINUTES, using default", "value", ttl)
		}
	}

	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No CARELINE_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = filepath.Join(config.StateDir, DefaultWhatsAppDBFileName)
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://careline.example.org"
		slog.Debug("No BASE_URL set, using placeholder", "base_url", config.BaseURL)
	}
	if config.SupportContact == "" {
		config.SupportContact = "+31 88 123 4567"
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"CARELINE_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr,
		"BASE_URL", config.BaseURL,
		"WHATSAPP_ENABLED", config.WhatsAppEnabled,
		"TWILIO_AUTH_TOKEN_SET", config.TwilioAuthToken != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:       flag.String("state-dir", config.StateDir, "state directory for CareLine data (overrides $CARELINE_STATE_DIR)"),
		dbDSN:          flag.String("db-dsn", config.DatabaseURL, "database DSN for the persistence store (overrides $DATABASE_URL)"),
		apiAddr:        flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		baseURL:        flag.String("base-url", config.BaseURL, "base URL for links embedded in replies (overrides $BASE_URL)"),
		supportContact: flag.String("support-contact", config.SupportContact, "support phone number shown in replies (overrides $SUPPORT_CONTACT)"),
		careTeam:       flag.String("care-team-number", config.CareTeamNumber, "number notified on human-contact requests (overrides $CARE_TEAM_NUMBER)"),
		publicURL:      flag.String("public-url", config.PublicURL, "externally visible webhook URL for signature validation (overrides $PUBLIC_URL)"),
		whatsappDSN:    flag.String("whatsapp-db-dsn", config.WhatsAppDSN, "database DSN for the WhatsApp channel (overrides $WHATSAPP_DB_DSN)"),
		whatsapp:       flag.Bool("whatsapp", config.WhatsAppEnabled, "enable the direct WhatsApp channel (overrides $WHATSAPP_ENABLED)"),
		qrOutput:       flag.String("qr-output", "", "path to write the WhatsApp login QR code"),
		numeric:        flag.Bool("numeric-code", false, "use numeric WhatsApp login code instead of QR code"),
		sessionTTLMin:  flag.Int("session-ttl", config.SessionTTLMin, "session time-to-live in minutes (overrides $SESSION_TTL_MINUTES)"),
	}
	flag.Parse()
	return flags
}

// ensureDirectoriesExist creates the state directory if needed
func ensureDirectoriesExist(flags Flags) error {
	return os.MkdirAll(*flags.stateDir, 0755)
}

// buildRunOpts assembles per-module options from the parsed flags
func buildRunOpts(flags Flags) api.RunOpts {
	opts := api.RunOpts{
		StoreOpts: []store.Option{store.WithDSN(*flags.dbDSN)},
		BaseURL:   *flags.baseURL,
		Support:   *flags.supportContact,
	}

	if *flags.sessionTTLMin > 0 {
		opts.SessionOpts = append(opts.SessionOpts, session.WithTTL(time.Duration(*flags.sessionTTLMin)*time.Minute))
	}

	if *flags.apiAddr != "" {
		opts.APIOpts = append(opts.APIOpts, api.WithAddr(*flags.apiAddr))
	}
	if token := os.Getenv("TWILIO_AUTH_TOKEN"); token != "" {
		opts.APIOpts = append(opts.APIOpts, api.WithTwilioAuthToken(token))
	}
	if *flags.publicURL != "" {
		opts.APIOpts = append(opts.APIOpts, api.WithPublicURL(*flags.publicURL))
	}

	// The care-team notifier needs Twilio credentials; without them the
	// contact command still works, it just doesn't alert anyone.
	if *flags.careTeam != "" {
		notifier, err := twiliowhatsapp.NewClient()
		if err != nil {
			slog.Warn("Care-team notifier disabled", "error", err)
		} else {
			opts.EngineOpts = append(opts.EngineOpts, flow.WithNotifier(notifier, *flags.careTeam))
		}
	}

	if *flags.whatsapp {
		opts.WhatsAppEnabled = true
		opts.WhatsAppOpts = append(opts.WhatsAppOpts, whatsapp.WithDBDSN(*flags.whatsappDSN))
		if *flags.qrOutput != "" {
			opts.WhatsAppOpts = append(opts.WhatsAppOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
		}
		if *flags.numeric {
			opts.WhatsAppOpts = append(opts.WhatsAppOpts, whatsapp.WithNumericCode())
		}
	}

	return opts
}
