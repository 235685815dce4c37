package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/cobra"

	"github.com/CryptoManufaktur-io/sync-keys/storage/keysource"
)

const (
	DefaultWeb3SignerURLEnv = "WEB3SIGNER_URL"
	DefaultDecryptionKeyEnv = "DECRYPTION_KEY"
)

type Args struct {
	ConfigPath string
}

type GlobalConfig struct {
	LogLevel       string `yaml:"LogLevel" env:"LOG_LEVEL" env-default:"info" env-description:"Defines logger's log level"`
	LogLevelFormat string `yaml:"LogLevelFormat" env:"LOG_LEVEL_FORMAT" env-default:"capitalColor" env-description:"Log level format (capital, capitalColor, lowercase)"`
	LogFormat      string `yaml:"LogFormat" env:"LOG_FORMAT" env-default:"console" env-description:"Log format (console, json)"`
	LogFilePath    string `yaml:"LogFilePath" env:"LOG_FILE_PATH" env-description:"Optional file to additionally write rotated JSON logs to"`
}

// Config is shared by the sync commands. Values come from the config file or env,
// command line flags override them.
type Config struct {
	Global GlobalConfig      `yaml:"global"`
	DB     keysource.Options `yaml:"db"`

	OutputDir string `yaml:"OutputDir" env:"OUTPUT_DIR" env-description:"Folder the generated files are saved to"`

	Web3SignerURLEnv string `yaml:"Web3SignerURLEnv" env:"WEB3SIGNER_URL_ENV" env-default:"WEB3SIGNER_URL" env-description:"Environment variable holding the web3signer url"`
	DefaultRecipient string `yaml:"DefaultRecipient" env:"DEFAULT_RECIPIENT" env-description:"Default fee recipient starting with 0x"`
	ValidatorIndex   string `yaml:"ValidatorIndex" env:"VALIDATOR_INDEX" env-description:"Validator group index, derived from the pod hostname when empty"`

	DecryptionKeyEnv string `yaml:"DecryptionKeyEnv" env:"DECRYPTION_KEY_ENV" env-default:"DECRYPTION_KEY" env-description:"Environment variable holding the private key decryption secret"`
	StableFilenames  bool   `yaml:"StableFilenames" env:"STABLE_FILENAMES" env-default:"false" env-description:"Name keystores after a hash of the public key instead of their position"`
	VerifyPublicKeys bool   `yaml:"VerifyPublicKeys" env:"VERIFY_PUBLIC_KEYS" env-default:"false" env-description:"Check that every decrypted private key matches its public key"`
}

// Load reads cfg from the YAML file at path, or from env only when path is empty.
func Load(path string, cfg *Config) error {
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return fmt.Errorf("read config from env: %w", err)
		}
		return nil
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	return nil
}

// ProcessArgs registers the config flag and documents the env variables in the usage text.
func ProcessArgs(cfg interface{}, a *Args, cmd *cobra.Command) {
	configFlag := "config"
	cmd.PersistentFlags().StringVarP(&a.ConfigPath, configFlag, "c", "", "Path to configuration file")

	envHelp, _ := cleanenv.GetDescription(cfg, nil)
	cmd.SetUsageTemplate(envHelp + "\n" + cmd.UsageTemplate())
}
