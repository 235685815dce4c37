package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/CryptoManufaktur-io/sync-keys/cli/config"
	"github.com/CryptoManufaktur-io/sync-keys/cli/flags"
	"github.com/CryptoManufaktur-io/sync-keys/keysync"
	"github.com/CryptoManufaktur-io/sync-keys/logging"
	"github.com/CryptoManufaktur-io/sync-keys/logging/fields"
	"github.com/CryptoManufaktur-io/sync-keys/storage/keysource"
	"github.com/CryptoManufaktur-io/sync-keys/validation"
)

const defaultDBTimeout = 30 * time.Second

// loadConfig reads the config file or env and applies command line overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if err := config.Load(globalArgs.ConfigPath, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", validation.ErrConfigValidation, err)
	}
	if err := flags.Apply(cmd, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %w", validation.ErrConfigValidation, err)
	}
	if cfg.DB.Timeout <= 0 {
		cfg.DB.Timeout = defaultDBTimeout
	}
	return cfg, nil
}

// setupLogger installs the global logger and returns a named logger tagged with a fresh run id.
func setupLogger(cfg config.Config, name string) (*zap.Logger, error) {
	if err := logging.SetGlobalLogger(cfg.Global.LogLevel, cfg.Global.LogLevelFormat, cfg.Global.LogFormat, cfg.Global.LogFilePath); err != nil {
		return nil, fmt.Errorf("%w: logger: %w", validation.ErrConfigValidation, err)
	}
	return zap.L().Named(name).With(fields.RunID(uuid.NewString())), nil
}

func validateCommon(cfg config.Config) error {
	if err := validation.ValidateDBURL(cfg.DB.URL); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return fmt.Errorf("%w: output dir is required", validation.ErrConfigValidation)
	}
	return nil
}

// withKeySource connects to the key database, runs fn and releases the connection on every path.
// The connect and fetch steps share one deadline.
func withKeySource(ctx context.Context, logger *zap.Logger, opts keysource.Options, fn func(context.Context, keysource.KeySource) (keysync.Result, error)) (res keysync.Result, err error) {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	src, err := keysource.Open(ctx, logger.Named(logging.NameKeySource), opts)
	if err != nil {
		return keysync.Result{}, err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(src))

	return fn(ctx, src)
}

// podOrdinal extracts the StatefulSet ordinal from a pod hostname,
// ex. validator-3.validator.ns.svc -> 3.
func podOrdinal(hostname string) (uint64, error) {
	short := strings.SplitN(hostname, ".", 2)[0]
	idx := strings.LastIndex(short, "-")
	if idx < 0 || idx == len(short)-1 {
		return 0, fmt.Errorf("%w: hostname %q has no ordinal suffix", validation.ErrConfigValidation, hostname)
	}

	ordinal, err := strconv.ParseUint(short[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: hostname %q has no ordinal suffix", validation.ErrConfigValidation, hostname)
	}
	return ordinal, nil
}

// validatorIndex returns the configured index, falling back to the pod hostname ordinal.
func validatorIndex(configured string, hostname func() (string, error)) (uint64, error) {
	if configured != "" {
		index, err := strconv.ParseUint(configured, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid validator index %q", validation.ErrConfigValidation, configured)
		}
		return index, nil
	}

	host, err := hostname()
	if err != nil {
		return 0, fmt.Errorf("%w: resolve hostname: %w", validation.ErrConfigValidation, err)
	}
	return podOrdinal(host)
}

var osHostname = os.Hostname
