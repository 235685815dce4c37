// Package keystate loads the key set currently rendered on disk and decides
// whether it differs from freshly fetched data.
//
// Loading is best effort. Whenever the current state cannot be determined the
// loaders report ok=false and an empty set, and callers must assume a resync is
// needed, never that the files are up to date.
package keystate

import (
	"bytes"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/CryptoManufaktur-io/sync-keys/configgen"
)

// EqualsAsMultiset reports whether a and b hold the same elements with the same
// multiplicities, ignoring order. Duplicates are significant: [x, x] != [x].
func EqualsAsMultiset(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	counts := make(map[string]int, len(a))
	for _, v := range a {
		counts[v]++
	}
	for _, v := range b {
		counts[v]--
		if counts[v] < 0 {
			return false
		}
	}
	return true
}

// DefinitionKey identifies a Lighthouse definition for change detection. Besides the
// public key it covers every rendered field, so a hand edited entry (ex. enabled: false)
// is restored on the next run.
func DefinitionKey(def configgen.LighthouseDefinition) string {
	return strings.Join([]string{
		strconv.FormatBool(def.Enabled),
		def.VotingPublicKey,
		def.SuggestedFeeRecipient,
		def.URL,
		def.Type,
	}, "\x00")
}

// DefinitionKeys maps defs through DefinitionKey.
func DefinitionKeys(defs []configgen.LighthouseDefinition) []string {
	keys := make([]string, 0, len(defs))
	for _, def := range defs {
		keys = append(keys, DefinitionKey(def))
	}
	return keys
}

// LoadLighthouseDefinitions reads validator_definitions.yml.
func LoadLighthouseDefinitions(fs afero.Fs, path string) ([]configgen.LighthouseDefinition, bool) {
	data, err := afero.ReadFile(fs, path)
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return nil, false
	}

	var defs []configgen.LighthouseDefinition
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, false
	}
	for _, def := range defs {
		if def.VotingPublicKey == "" {
			return nil, false
		}
	}

	return defs, true
}

// LoadSignerKeys reads the public keys listed in signer_keys.yml.
func LoadSignerKeys(fs afero.Fs, path string) ([]string, bool) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, false
	}

	var cfg map[string][]string
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, false
	}

	keys, ok := cfg[configgen.SignerKeysField]
	if !ok {
		return nil, false
	}

	return keys, true
}

// ListKeystoreFiles returns the sorted keystore file names (not paths) in dir.
// Only names matching configgen.IsKeystoreFilename count, other files are ignored.
func ListKeystoreFiles(fs afero.Fs, dir string) ([]string, error) {
	matches, err := afero.Glob(fs, filepath.Join(dir, "key_*"+configgen.KeystoreExtension))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if name := filepath.Base(m); configgen.IsKeystoreFilename(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return names, nil
}

// LoadKeystoreKeys reads every keystore in dir and returns the file names along with
// the private keys they hold, index aligned.
// A missing dir or any unreadable keystore makes the whole set undetermined.
func LoadKeystoreKeys(fs afero.Fs, dir string) (names, keys []string, ok bool) {
	if exists, err := afero.DirExists(fs, dir); err != nil || !exists {
		return nil, nil, false
	}

	names, err := ListKeystoreFiles(fs, dir)
	if err != nil {
		return nil, nil, false
	}

	keys = make([]string, 0, len(names))
	for _, name := range names {
		data, err := afero.ReadFile(fs, filepath.Join(dir, name))
		if err != nil {
			return nil, nil, false
		}

		var ks configgen.Keystore
		if err := yaml.Unmarshal(data, &ks); err != nil || ks.PrivateKey == "" {
			return nil, nil, false
		}
		keys = append(keys, ks.PrivateKey)
	}

	return names, keys, true
}
