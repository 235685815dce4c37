// Package keysync sequences key fetching, decryption, change detection and
// config rendering into one idempotent run.
//
// A run moves strictly forward through
//
//	FETCH -> [DECRYPT] -> LOAD_CURRENT -> COMPARE -> UNCHANGED | ENSURE_DIR -> WRITE_ALL -> REPORT
//
// and aborts on the first error. Connecting to the key database happens before
// a Syncer is built, see keysource.Open.
package keysync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/CryptoManufaktur-io/sync-keys/configgen"
	"github.com/CryptoManufaktur-io/sync-keys/keycrypto"
	"github.com/CryptoManufaktur-io/sync-keys/keystate"
	"github.com/CryptoManufaktur-io/sync-keys/logging/fields"
	"github.com/CryptoManufaktur-io/sync-keys/storage/keysource"
)

const (
	dirPermissions      = 0o755
	configPermissions   = 0o644
	keystorePermissions = 0o600
)

// ErrFilesystem is returned when output files cannot be created, written or removed.
var ErrFilesystem = errors.New("filesystem")

// Config holds everything a run needs besides the key source. Secrets and URLs are
// resolved by the caller; the syncer never reads the environment.
type Config struct {
	OutputDir string

	// validator client flow
	SignerURL        string
	DefaultRecipient string

	// web3signer flow
	Secret           keycrypto.Secret
	Naming           configgen.Naming
	VerifyPublicKeys bool
}

// Result reports the outcome of a run.
type Result struct {
	Changed bool
	Keys    int
	Written []string
	Removed []string
}

// Syncer renders key configuration into Config.OutputDir.
type Syncer struct {
	logger *zap.Logger
	source keysource.KeySource
	fs     afero.Fs
	cfg    Config
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithFs replaces the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(s *Syncer) {
		s.fs = fs
	}
}

// New returns a Syncer reading from source.
func New(logger *zap.Logger, source keysource.KeySource, cfg Config, opts ...Option) *Syncer {
	s := &Syncer{
		logger: logger,
		source: source,
		fs:     afero.NewOsFs(),
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncValidatorKeys renders the Lighthouse definitions and the Teku/Prysm signer key list
// for validator group index.
func (s *Syncer) SyncValidatorKeys(ctx context.Context, index uint64) (Result, error) {
	logger := s.logger.With(fields.ValidatorIndex(index), fields.Path(s.cfg.OutputDir))
	start := time.Now()

	keys, err := s.source.FetchPublicKeysByGroup(ctx, index)
	if err != nil {
		return Result{}, fmt.Errorf("fetch public keys: %w", err)
	}
	logger.Debug("fetched public keys", fields.Count(len(keys)))

	defs := configgen.BuildLighthouseDefinitions(keys, s.cfg.SignerURL, s.cfg.DefaultRecipient)
	publicKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		publicKeys = append(publicKeys, k.PublicKey)
	}

	lighthousePath := filepath.Join(s.cfg.OutputDir, configgen.LighthouseFilename)
	signerPath := filepath.Join(s.cfg.OutputDir, configgen.SignerKeysFilename)

	currentDefs, defsOK := keystate.LoadLighthouseDefinitions(s.fs, lighthousePath)
	currentSigner, signerOK := keystate.LoadSignerKeys(s.fs, signerPath)
	if !defsOK {
		logger.Debug("current lighthouse definitions unavailable, resync needed", fields.Path(lighthousePath))
	}
	if !signerOK {
		logger.Debug("current signer keys unavailable, resync needed", fields.Path(signerPath))
	}

	if defsOK && signerOK &&
		keystate.EqualsAsMultiset(keystate.DefinitionKeys(defs), keystate.DefinitionKeys(currentDefs)) &&
		keystate.EqualsAsMultiset(publicKeys, currentSigner) {
		logger.Info("Keys already synced to the last version", fields.Count(len(keys)), fields.Took(time.Since(start)))
		return Result{Keys: len(keys)}, nil
	}

	lighthouseConfig, err := configgen.MarshalLighthouseDefinitions(defs)
	if err != nil {
		return Result{}, fmt.Errorf("render lighthouse config: %w", err)
	}

	files := []outputFile{
		{name: configgen.LighthouseFilename, data: lighthouseConfig, perm: configPermissions},
		{name: configgen.SignerKeysFilename, data: configgen.SignerKeys(publicKeys), perm: configPermissions},
	}

	written, err := s.writeAll(files)
	if err != nil {
		return Result{}, err
	}

	logger.Info(fmt.Sprintf("The validator now uses %d public keys", len(keys)),
		fields.Count(len(keys)),
		fields.Changed(true),
		fields.Took(time.Since(start)))

	return Result{Changed: true, Keys: len(keys), Written: written}, nil
}

// SyncWeb3SignerKeys decrypts every key record and renders one Web3Signer keystore per key.
// Keystores left over from earlier runs are removed so that the directory holds exactly
// the current key set.
func (s *Syncer) SyncWeb3SignerKeys(ctx context.Context) (Result, error) {
	logger := s.logger.With(fields.Path(s.cfg.OutputDir))
	start := time.Now()

	records, err := s.source.FetchKeyRecords(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch key records: %w", err)
	}
	logger.Debug("fetched key records", fields.Count(len(records)))

	privateKeys := make([]string, 0, len(records))
	publicKeys := make([]string, 0, len(records))
	for _, record := range records {
		scalar, err := keycrypto.Decrypt(record.EncryptedPrivateKey, record.Nonce, s.cfg.Secret)
		if err != nil {
			logger.Error("failed to decrypt private key", fields.PubKey(record.PublicKey))
			return Result{}, fmt.Errorf("decrypt key %s: %w", record.PublicKey, err)
		}
		if s.cfg.VerifyPublicKeys {
			if err := keycrypto.VerifyPublicKey(scalar, record.PublicKey); err != nil {
				logger.Error("private key does not match public key", fields.PubKey(record.PublicKey))
				return Result{}, fmt.Errorf("verify key %s: %w", record.PublicKey, err)
			}
		}
		privateKeys = append(privateKeys, keycrypto.Canonicalize(scalar))
		publicKeys = append(publicKeys, record.PublicKey)
	}

	names := configgen.KeystoreFilenames(s.cfg.Naming, publicKeys)

	currentNames, currentKeys, ok := keystate.LoadKeystoreKeys(s.fs, s.cfg.OutputDir)
	if !ok {
		logger.Debug("current keystores unavailable, resync needed")
	}

	// File names are compared as well so that switching the naming mode renames keystores.
	if ok && keystate.EqualsAsMultiset(currentKeys, privateKeys) && keystate.EqualsAsMultiset(currentNames, names) {
		logger.Info("Keys already synced to the last version", fields.Count(len(privateKeys)), fields.Took(time.Since(start)))
		return Result{Keys: len(privateKeys)}, nil
	}

	files := make([]outputFile, 0, len(privateKeys))
	for i, key := range privateKeys {
		data, err := configgen.KeystoreFile(key)
		if err != nil {
			return Result{}, fmt.Errorf("render keystore for %s: %w", publicKeys[i], err)
		}
		files = append(files, outputFile{name: names[i], data: data, perm: keystorePermissions})
	}

	written, err := s.writeAll(files)
	if err != nil {
		return Result{}, err
	}

	removed, err := s.removeStaleKeystores(written)
	if err != nil {
		return Result{}, err
	}

	logger.Info(fmt.Sprintf("Web3Signer now uses %d private keys", len(privateKeys)),
		fields.Count(len(privateKeys)),
		fields.Changed(true),
		zap.Int("removed", len(removed)),
		zap.Stringer("naming", s.cfg.Naming),
		fields.Took(time.Since(start)))

	return Result{Changed: true, Keys: len(privateKeys), Written: written, Removed: removed}, nil
}

// removeStaleKeystores deletes keystores this tool generated earlier that are not in keep.
// Files with foreign names are never touched.
func (s *Syncer) removeStaleKeystores(keep []string) ([]string, error) {
	existing, err := keystate.ListKeystoreFiles(s.fs, s.cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: list keystores in %s: %w", ErrFilesystem, s.cfg.OutputDir, err)
	}

	wanted := make(map[string]struct{}, len(keep))
	for _, name := range keep {
		wanted[name] = struct{}{}
	}

	var removed []string
	for _, name := range existing {
		if _, ok := wanted[name]; ok {
			continue
		}
		path := filepath.Join(s.cfg.OutputDir, name)
		if err := s.fs.Remove(path); err != nil {
			return removed, fmt.Errorf("%w: remove stale keystore %s: %w", ErrFilesystem, path, err)
		}
		s.logger.Debug("removed stale keystore", fields.Path(path))
		removed = append(removed, name)
	}

	return removed, nil
}
