// Package configgen renders validator client and remote signer configuration files.
// Every function here is pure: output depends only on the arguments.
package configgen

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/CryptoManufaktur-io/sync-keys/storage/keysource"
)

const (
	LighthouseFilename = "validator_definitions.yml"
	SignerKeysFilename = "signer_keys.yml"
	KeystoreExtension  = ".yaml"

	// SignerKeysField is the Teku/Prysm option listing remote signer public keys.
	SignerKeysField = "validators-external-signer-public-keys"

	DefinitionTypeWeb3Signer = "web3signer"
	KeystoreTypeFileRaw      = "file-raw"
	KeyTypeBLS               = "BLS"
)

// keystoreNamePattern matches every name KeystoreFilenames can produce in either naming mode.
var keystoreNamePattern = regexp.MustCompile(`^key_(?:[0-9]+|[0-9a-f]{16}(?:-[0-9]+)?)` + regexp.QuoteMeta(KeystoreExtension) + `$`)

// LighthouseDefinition is one entry of Lighthouse's validator_definitions.yml.
type LighthouseDefinition struct {
	Enabled               bool   `yaml:"enabled"`
	VotingPublicKey       string `yaml:"voting_public_key"`
	Type                  string `yaml:"type"`
	URL                   string `yaml:"url"`
	SuggestedFeeRecipient string `yaml:"suggested_fee_recipient"`
}

// Keystore is a Web3Signer raw key configuration file.
type Keystore struct {
	Type       string `yaml:"type"`
	KeyType    string `yaml:"keyType"`
	PrivateKey string `yaml:"privateKey"`
}

// BuildLighthouseDefinitions maps keys to web3signer backed definitions.
// Keys without a fee recipient get defaultRecipient.
func BuildLighthouseDefinitions(keys []keysource.PublicKey, signerURL, defaultRecipient string) []LighthouseDefinition {
	defs := make([]LighthouseDefinition, 0, len(keys))
	for _, key := range keys {
		recipient := defaultRecipient
		if key.FeeRecipient != nil {
			recipient = *key.FeeRecipient
		}

		defs = append(defs, LighthouseDefinition{
			Enabled:               true,
			VotingPublicKey:       key.PublicKey,
			Type:                  DefinitionTypeWeb3Signer,
			URL:                   signerURL,
			SuggestedFeeRecipient: recipient,
		})
	}
	return defs
}

// MarshalLighthouseDefinitions renders defs as a YAML block sequence with an explicit document start.
func MarshalLighthouseDefinitions(defs []LighthouseDefinition) ([]byte, error) {
	if defs == nil {
		defs = []LighthouseDefinition{}
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(defs); err != nil {
		return nil, fmt.Errorf("encode lighthouse definitions: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close lighthouse encoder: %w", err)
	}

	return buf.Bytes(), nil
}

// LighthouseDefinitions renders validator_definitions.yml for keys.
func LighthouseDefinitions(keys []keysource.PublicKey, signerURL, defaultRecipient string) ([]byte, error) {
	return MarshalLighthouseDefinitions(BuildLighthouseDefinitions(keys, signerURL, defaultRecipient))
}

// SignerKeys renders signer_keys.yml: a single line listing the public keys in the given order.
func SignerKeys(publicKeys []string) []byte {
	quoted := make([]string, 0, len(publicKeys))
	for _, pk := range publicKeys {
		quoted = append(quoted, `"`+pk+`"`)
	}
	return []byte(SignerKeysField + ": [" + strings.Join(quoted, ",") + "]")
}

// KeystoreFile renders a Web3Signer file-raw keystore. canonicalKey must already be canonical.
func KeystoreFile(canonicalKey string) ([]byte, error) {
	data, err := yaml.Marshal(Keystore{
		Type:       KeystoreTypeFileRaw,
		KeyType:    KeyTypeBLS,
		PrivateKey: canonicalKey,
	})
	if err != nil {
		return nil, fmt.Errorf("encode keystore: %w", err)
	}
	return data, nil
}

// Naming selects how keystore files are named.
type Naming int

const (
	// NamingPositional names files key_<n>.yaml by position in the current key list.
	// Names shift when keys are inserted or removed mid-list.
	NamingPositional Naming = iota
	// NamingStable names files after a hash of the validator public key.
	NamingStable
)

func (n Naming) String() string {
	switch n {
	case NamingPositional:
		return "positional"
	case NamingStable:
		return "stable"
	default:
		return fmt.Sprintf("Naming(%d)", int(n))
	}
}

// KeystoreFilename returns the file name of the keystore at index for publicKey.
func KeystoreFilename(naming Naming, index int, publicKey string) string {
	if naming == NamingStable {
		sum := xxhash.Sum64String(strings.ToLower(publicKey))
		return fmt.Sprintf("key_%016x%s", sum, KeystoreExtension)
	}
	return fmt.Sprintf("key_%d%s", index, KeystoreExtension)
}

// KeystoreFilenames names a keystore per public key. Under stable naming a repeated
// public key gets a -<n> suffix so that duplicates still map to distinct files.
func KeystoreFilenames(naming Naming, publicKeys []string) []string {
	names := make([]string, 0, len(publicKeys))
	seen := make(map[string]int, len(publicKeys))
	for i, pk := range publicKeys {
		name := KeystoreFilename(naming, i, pk)
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = strings.TrimSuffix(name, KeystoreExtension) + fmt.Sprintf("-%d", n) + KeystoreExtension
		} else {
			seen[name] = 1
		}
		names = append(names, name)
	}
	return names
}

// IsKeystoreFilename reports whether name is a keystore file name this package generates.
// Other files sharing the output dir are left alone.
func IsKeystoreFilename(name string) bool {
	return keystoreNamePattern.MatchString(name)
}
