package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/CryptoManufaktur-io/sync-keys/cli/config"
	"github.com/CryptoManufaktur-io/sync-keys/cli/flags"
	"github.com/CryptoManufaktur-io/sync-keys/configgen"
	"github.com/CryptoManufaktur-io/sync-keys/keycrypto"
	"github.com/CryptoManufaktur-io/sync-keys/keysync"
	"github.com/CryptoManufaktur-io/sync-keys/logging"
	"github.com/CryptoManufaktur-io/sync-keys/logging/fields"
	"github.com/CryptoManufaktur-io/sync-keys/storage/keysource"
	"github.com/CryptoManufaktur-io/sync-keys/validation"
)

func newSyncWeb3SignerKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync-web3signer-keys",
		Short: "Writes decrypted web3signer keystores for every key in the database",
		Long: `Fetches and decrypts every private key in the database and writes one raw
keystore file per key for web3signer. Keystores are left untouched when they
already hold the same keys, keystores of removed keys are deleted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger, err := setupLogger(cfg, logging.NameSyncWeb3Signer)
			if err != nil {
				return err
			}
			defer logging.CapturePanic(logger)

			syncCfg, err := web3SignerKeysConfig(cfg)
			if err != nil {
				return err
			}

			logger.Info("syncing web3signer keys",
				fields.Path(cfg.OutputDir),
				zap.Stringer("naming", syncCfg.Naming),
				zap.Bool("verify_public_keys", syncCfg.VerifyPublicKeys),
			)

			res, err := withKeySource(cmd.Context(), logger, cfg.DB,
				func(ctx context.Context, src keysource.KeySource) (keysync.Result, error) {
					return keysync.New(logger.Named(logging.NameKeySync), src, syncCfg).SyncWeb3SignerKeys(ctx)
				})
			if err != nil {
				logger.Error("failed to sync web3signer keys", zap.Error(err))
				return err
			}

			logger.Info("web3signer keys synced",
				fields.Changed(res.Changed),
				fields.Count(res.Keys),
				zap.Int("removed", len(res.Removed)),
			)
			return nil
		},
	}

	flags.AddDBFlags(cmd)
	flags.AddOutputDirFlag(cmd, "Folder the keystore files are saved to")
	flags.AddWeb3SignerKeysFlags(cmd)

	return cmd
}

// web3SignerKeysConfig validates cfg and resolves the decryption secret from the environment.
func web3SignerKeysConfig(cfg config.Config) (keysync.Config, error) {
	if err := validateCommon(cfg); err != nil {
		return keysync.Config{}, err
	}

	rawSecret, err := validation.LookupEnv(cfg.DecryptionKeyEnv)
	if err != nil {
		return keysync.Config{}, err
	}
	secret, err := keycrypto.ParseSecret(rawSecret)
	if err != nil {
		return keysync.Config{}, fmt.Errorf("%w: %s: %w", validation.ErrConfigValidation, cfg.DecryptionKeyEnv, err)
	}

	naming := configgen.NamingPositional
	if cfg.StableFilenames {
		naming = configgen.NamingStable
	}

	return keysync.Config{
		OutputDir:        cfg.OutputDir,
		Secret:           secret,
		Naming:           naming,
		VerifyPublicKeys: cfg.VerifyPublicKeys,
	}, nil
}
