package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"time"
	"unicode"

	"github.com/ArkLabsHQ/dunder/internal/core/application"
	"github.com/ArkLabsHQ/dunder/internal/core/domain"
	"github.com/ArkLabsHQ/dunder/utils"
	"github.com/spf13/viper"
)

const (
	sqliteDb = "sqlite"
	badgerDb = "badger"

	envPrefix = "DUNDER"
	appName   = "dunder"
)

type Config struct {
	Datadir          string `mapstructure:"DATADIR" envDefault:"dunder" envInfo:"Data directory for Dunder state"`
	DbType           string `mapstructure:"DB_TYPE" envDefault:"sqlite" envInfo:"Database backend: sqlite | badger"`
	HTTPPort         uint32 `mapstructure:"HTTP_PORT" envDefault:"8089" envInfo:"Wallet-facing HTTP server port"`
	LogLevel         uint32 `mapstructure:"LOG_LEVEL" envDefault:"4" envInfo:"Log verbosity (higher = more verbose)"`
	DisableTelemetry bool   `mapstructure:"DISABLE_TELEMETRY" envDefault:"false" envInfo:"Disable telemetry"`

	LndUrl     string `mapstructure:"LND_URL" envDefault:"" envInfo:"LND connection URL (lndconnect:// or https://host:port)"`
	LndDatadir string `mapstructure:"LND_DATADIR" envDefault:"" envInfo:"LND data directory (required if not using lndconnect://)"`
	LndNetwork string `mapstructure:"LND_NETWORK" envDefault:"mainnet" envInfo:"Chain of the LND node, used to find admin.macaroon"`
	LndNode    string `mapstructure:"LND_NODE" envDefault:"" envInfo:"Public host:port of the LND node advertised to wallets"`

	HtlcWait                 uint32 `mapstructure:"HTLC_WAIT" envDefault:"60" envInfo:"Seconds to wait for all parts of a payment to settle"`
	SettlementPollIntervalMs uint32 `mapstructure:"SETTLEMENT_POLL_INTERVAL_MS" envDefault:"1000" envInfo:"Settlement watcher poll period in milliseconds"`

	MinChannelSizeSat        uint64  `mapstructure:"MIN_CHANNEL_SIZE_SAT" envDefault:"20000" envInfo:"Floor of the minimum payment (LND minchansize)"`
	MinimumPaymentMultiplier uint64  `mapstructure:"MINIMUM_PAYMENT_MULTIPLIER" envDefault:"5" envInfo:"Fee multiplier for the minimum payment"`
	MaximumPaymentSat        uint64  `mapstructure:"MAXIMUM_PAYMENT_SAT" envDefault:"1000000" envInfo:"Maximum payment, also the fee estimate target amount"`
	FeeMaxSat                uint64  `mapstructure:"FEE_MAX_SAT" envDefault:"33140" envInfo:"Channel open fee above which the service closes"`
	FeeMaxSatPerVByte        uint64  `mapstructure:"FEE_MAX_SAT_PER_VBYTE" envDefault:"200" envInfo:"Fee rate above which the service closes"`
	FeeSubsidyFactor         float64 `mapstructure:"FEE_SUBSIDY_FACTOR" envDefault:"1.0" envInfo:"Share of the channel open fee charged to the payer"`
	FeeTargetConf            int32   `mapstructure:"FEE_TARGET_CONF" envDefault:"1" envInfo:"Confirmation target for fee estimates"`

	FundingSafetyMarginSat uint64 `mapstructure:"FUNDING_SAFETY_MARGIN_SAT" envDefault:"10000" envInfo:"Added to the local funding of every channel"`
	ChannelOpenAttempts    uint64 `mapstructure:"CHANNEL_OPEN_ATTEMPTS" envDefault:"3" envInfo:"Channel open attempts after a payment settled"`
	ChannelOpenRetryDelay  uint32 `mapstructure:"CHANNEL_OPEN_RETRY_DELAY" envDefault:"5" envInfo:"Seconds between channel open attempts"`
	AllowZeroConfChannels  bool   `mapstructure:"ALLOW_ZERO_CONF_CHANNELS" envDefault:"false" envInfo:"Try zero-conf channels first when claiming"`

	CltvExpiryDelta           uint32 `mapstructure:"CLTV_EXPIRY_DELTA" envDefault:"40" envInfo:"Route hint cltv expiry delta returned on register"`
	FeeBaseMsat               uint64 `mapstructure:"FEE_BASE_MSAT" envDefault:"1" envInfo:"Route hint base fee returned on register"`
	FeeProportionalMillionths uint64 `mapstructure:"FEE_PROPORTIONAL_MILLIONTHS" envDefault:"1" envInfo:"Route hint proportional fee returned on register"`

	AutoHealInterval uint32 `mapstructure:"AUTO_HEAL_INTERVAL" envDefault:"600" envInfo:"Seconds between auto-heal sweeps, 0 disables them"`

	lnConnectionOpts *domain.LnConnectionOpts
}

func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := setDefaultConfig(v); err != nil {
		return nil, fmt.Errorf("error setting default config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %v", err)
	}

	if err := config.initDb(); err != nil {
		return nil, fmt.Errorf("error initializing data directory: %w", err)
	}

	opts, err := deriveLnConfig(config.LndUrl, config.LndDatadir, config.LndNetwork)
	if err != nil {
		return nil, fmt.Errorf("error deriving lightning connection config: %w", err)
	}
	config.lnConnectionOpts = opts

	return &config, nil
}

func (c *Config) GetLnConnectionOpts() *domain.LnConnectionOpts {
	return c.lnConnectionOpts
}

// AppConfig returns the settings of the lsp service.
func (c *Config) AppConfig() application.Config {
	return application.Config{
		LndNode:                   c.LndNode,
		HtlcWait:                  time.Duration(c.HtlcWait) * time.Second,
		SettlementPollInterval:    time.Duration(c.SettlementPollIntervalMs) * time.Millisecond,
		MinChannelSizeSat:         c.MinChannelSizeSat,
		MinimumPaymentMultiplier:  c.MinimumPaymentMultiplier,
		MaximumPaymentSat:         c.MaximumPaymentSat,
		FeeMaxSat:                 c.FeeMaxSat,
		FeeMaxSatPerVByte:         c.FeeMaxSatPerVByte,
		FeeSubsidyFactor:          c.FeeSubsidyFactor,
		FeeTargetConf:             c.FeeTargetConf,
		FundingSafetyMarginSat:    c.FundingSafetyMarginSat,
		ChannelOpenAttempts:       c.ChannelOpenAttempts,
		ChannelOpenRetryDelay:     time.Duration(c.ChannelOpenRetryDelay) * time.Second,
		AllowZeroConfChannels:     c.AllowZeroConfChannels,
		CltvExpiryDelta:           c.CltvExpiryDelta,
		FeeBaseMsat:               c.FeeBaseMsat,
		FeeProportionalMillionths: c.FeeProportionalMillionths,
		AutoHealInterval:          time.Duration(c.AutoHealInterval) * time.Second,
	}
}

func deriveLnConfig(lndUrl, lndDatadir, network string) (*domain.LnConnectionOpts, error) {
	lndDatadir = cleanAndExpandPath(lndDatadir)

	if lndUrl == "" {
		return nil, fmt.Errorf("missing LND URL")
	}

	if strings.HasPrefix(lndUrl, "lndconnect://") {
		if lndDatadir != "" {
			return nil, fmt.Errorf("cannot set LND datadir with an lndconnect URL")
		}
		return &domain.LnConnectionOpts{LnUrl: lndUrl, Network: network}, nil
	}

	if lndDatadir == "" {
		return nil, fmt.Errorf("LND URL provided without LND datadir")
	}

	host, err := utils.ValidateURL(lndUrl)
	if err != nil {
		return nil, fmt.Errorf("invalid LND URL: %v", err)
	}
	return &domain.LnConnectionOpts{
		LnUrl:     host,
		LnDatadir: lndDatadir,
		Network:   network,
	}, nil
}

func (c *Config) initDb() error {
	supportedDbType := map[string]struct{}{
		sqliteDb: {},
		badgerDb: {},
	}

	if _, ok := supportedDbType[c.DbType]; !ok {
		return fmt.Errorf("unsupported db type: %s", c.DbType)
	}

	if c.Datadir == appName {
		c.Datadir = appDatadir(appName, false)
	} else {
		c.Datadir = cleanAndExpandPath(c.Datadir)
	}

	return makeDirectoryIfNotExists(c.Datadir)
}

func setDefaultConfig(v *viper.Viper) error {
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := f.Tag.Get("mapstructure")
		def := f.Tag.Get("envDefault")
		if def != "" {
			v.SetDefault(key, def)
		}
		err := v.BindEnv(key)
		if err != nil {
			return fmt.Errorf("error binding env variable for key %s: %w", key, err)
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

// appDatadir returns an operating system specific directory to be used for
// storing application data for an application.
func appDatadir(appName string, roaming bool) string {
	if appName == "" || appName == "." {
		return "."
	}

	appName = strings.TrimPrefix(appName, ".")
	appNameUpper := string(unicode.ToUpper(rune(appName[0]))) + appName[1:]
	appNameLower := string(unicode.ToLower(rune(appName[0]))) + appName[1:]

	var homeDir string
	usr, err := user.Current()
	if err == nil {
		homeDir = usr.HomeDir
	}
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}

	switch runtime.GOOS {
	case "windows":
		// Windows XP and before didn't have a LOCALAPPDATA
		appData := os.Getenv("LOCALAPPDATA")
		if roaming || appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData != "" {
			return filepath.Join(appData, appNameUpper)
		}

	case "darwin":
		if homeDir != "" {
			return filepath.Join(homeDir, "Library", "Application Support", appNameUpper)
		}

	case "plan9":
		if homeDir != "" {
			return filepath.Join(homeDir, appNameLower)
		}

	default:
		if homeDir != "" {
			return filepath.Join(homeDir, "."+appNameLower)
		}
	}

	return "."
}

func cleanAndExpandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

//go:generate go run ../../tools/gen-env-doc/main.go
