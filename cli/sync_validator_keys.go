package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/CryptoManufaktur-io/sync-keys/cli/config"
	"github.com/CryptoManufaktur-io/sync-keys/cli/flags"
	"github.com/CryptoManufaktur-io/sync-keys/keysync"
	"github.com/CryptoManufaktur-io/sync-keys/logging"
	"github.com/CryptoManufaktur-io/sync-keys/logging/fields"
	"github.com/CryptoManufaktur-io/sync-keys/storage/keysource"
	"github.com/CryptoManufaktur-io/sync-keys/validation"
)

type validatorKeysJob struct {
	index            uint64
	signerURL        string
	defaultRecipient string
}

func newSyncValidatorKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync-validator-keys",
		Short: "Writes validator client definitions for the keys of this pod's group",
		Long: `Fetches the public keys assigned to the validator group of this pod and writes
validator_definitions.yml and signer_keys.yml pointing at web3signer.
Files are left untouched when they already describe the same keys.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger, err := setupLogger(cfg, logging.NameSyncValidatorKeys)
			if err != nil {
				return err
			}
			defer logging.CapturePanic(logger)

			job, err := validatorKeysJobFromConfig(cfg)
			if err != nil {
				return err
			}

			logger = logger.With(fields.ValidatorIndex(job.index), fields.SignerURL(job.signerURL))
			logger.Info("syncing validator keys",
				fields.Path(cfg.OutputDir),
				fields.FeeRecipient(job.defaultRecipient),
			)

			res, err := withKeySource(cmd.Context(), logger, cfg.DB,
				func(ctx context.Context, src keysource.KeySource) (keysync.Result, error) {
					syncer := keysync.New(logger.Named(logging.NameKeySync), src, keysync.Config{
						OutputDir:        cfg.OutputDir,
						SignerURL:        job.signerURL,
						DefaultRecipient: job.defaultRecipient,
					})
					return syncer.SyncValidatorKeys(ctx, job.index)
				})
			if err != nil {
				logger.Error("failed to sync validator keys", zap.Error(err))
				return err
			}

			logger.Info("validator keys synced", fields.Changed(res.Changed), fields.Count(res.Keys))
			return nil
		},
	}

	flags.AddDBFlags(cmd)
	flags.AddOutputDirFlag(cmd, "Folder validator_definitions.yml and signer_keys.yml are saved to")
	flags.AddValidatorKeysFlags(cmd)

	return cmd
}

// validatorKeysJobFromConfig validates cfg and resolves the values read from the environment.
// It performs no I/O besides env lookups and the hostname query.
func validatorKeysJobFromConfig(cfg config.Config) (validatorKeysJob, error) {
	if err := validateCommon(cfg); err != nil {
		return validatorKeysJob{}, err
	}

	signerURL, err := validation.LookupEnv(cfg.Web3SignerURLEnv)
	if err != nil {
		return validatorKeysJob{}, err
	}
	if err := validation.ValidateSignerURL(signerURL); err != nil {
		return validatorKeysJob{}, err
	}

	recipient, err := validation.NormalizeFeeRecipient(cfg.DefaultRecipient)
	if err != nil {
		return validatorKeysJob{}, err
	}

	index, err := validatorIndex(cfg.ValidatorIndex, osHostname)
	if err != nil {
		return validatorKeysJob{}, err
	}

	return validatorKeysJob{
		index:            index,
		signerURL:        signerURL,
		defaultRecipient: recipient,
	}, nil
}
