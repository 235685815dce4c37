package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/CryptoManufaktur-io/sync-keys/cli/config"
	"github.com/CryptoManufaktur-io/sync-keys/cli/flags"
)

var (
	globalArgs config.Args
	globalCfg  config.Config
)

// RootCmd represents the root command of the sync-keys CLI
var RootCmd = &cobra.Command{
	Use:   "sync-keys",
	Short: "sync-keys",
	Long: `sync-keys synchronizes validator keys from the key database into
validator client and web3signer configuration. It is meant to run as an init container.`,
	SilenceUsage: true,
}

// Execute executes the root command
func Execute(appName, version string) {
	RootCmd.Short = appName
	RootCmd.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		zap.L().Error("failed to execute root command", zap.Error(err))
		_ = zap.L().Sync()
		stop()
		os.Exit(1)
	}
}

func init() {
	config.ProcessArgs(&globalCfg, &globalArgs, RootCmd)
	flags.AddLogFlags(RootCmd)

	RootCmd.AddCommand(newSyncValidatorKeysCmd())
	RootCmd.AddCommand(newSyncWeb3SignerKeysCmd())
}
