package keystate

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/CryptoManufaktur-io/sync-keys/configgen"
	"github.com/CryptoManufaktur-io/sync-keys/storage/keysource"
)

func TestEqualsAsMultiset(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want bool
	}{
		{name: "both empty", a: nil, b: []string{}, want: true},
		{name: "same order", a: []string{"a", "b"}, b: []string{"a", "b"}, want: true},
		{name: "permuted", a: []string{"a", "b", "c"}, b: []string{"c", "a", "b"}, want: true},
		{name: "different element", a: []string{"a", "b"}, b: []string{"a", "c"}, want: false},
		{name: "subset", a: []string{"a"}, b: []string{"a", "b"}, want: false},
		// Duplicates are significant, they are not collapsed.
		{name: "duplicate vs single", a: []string{"a", "a"}, b: []string{"a"}, want: false},
		{name: "same length different multiplicity", a: []string{"a", "a", "b"}, b: []string{"a", "b", "b"}, want: false},
		{name: "duplicates permuted", a: []string{"a", "b", "a"}, b: []string{"b", "a", "a"}, want: true},
		{name: "empty vs non-empty", a: nil, b: []string{"a"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, EqualsAsMultiset(tt.a, tt.b))
			require.Equal(t, tt.want, EqualsAsMultiset(tt.b, tt.a), "must be symmetric")
		})
	}
}

func TestLoadLighthouseDefinitions(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join("/out", configgen.LighthouseFilename)

	t.Run("missing file", func(t *testing.T) {
		defs, ok := LoadLighthouseDefinitions(fs, path)
		require.False(t, ok)
		require.Empty(t, defs)
	})

	t.Run("round trip", func(t *testing.T) {
		recipient := "0xcc"
		want := configgen.BuildLighthouseDefinitions([]keysource.PublicKey{
			{PublicKey: "0xaa"},
			{PublicKey: "0xbb", FeeRecipient: &recipient},
		}, "http://signer", "0xdd")

		data, err := configgen.MarshalLighthouseDefinitions(want)
		require.NoError(t, err)
		require.NoError(t, afero.WriteFile(fs, path, data, 0o644))

		defs, ok := LoadLighthouseDefinitions(fs, path)
		require.True(t, ok)
		require.Equal(t, want, defs)
	})

	t.Run("empty list", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, path, []byte("---\n[]\n"), 0o644))
		defs, ok := LoadLighthouseDefinitions(fs, path)
		require.True(t, ok)
		require.Empty(t, defs)
	})

	for name, content := range map[string]string{
		"corrupt yaml":      "- enabled: [true\n  voting_public_key",
		"not a list":        "hello: world\n",
		"missing key field": "- enabled: true\n  type: web3signer\n",
		"empty file":        "",
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
			defs, ok := LoadLighthouseDefinitions(fs, path)
			require.False(t, ok)
			require.Empty(t, defs)
		})
	}
}

func TestLoadSignerKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join("/out", configgen.SignerKeysFilename)

	_, ok := LoadSignerKeys(fs, path)
	require.False(t, ok)

	require.NoError(t, afero.WriteFile(fs, path, configgen.SignerKeys([]string{"0xaa", "0xbb"}), 0o644))
	keys, ok := LoadSignerKeys(fs, path)
	require.True(t, ok)
	require.Equal(t, []string{"0xaa", "0xbb"}, keys)

	require.NoError(t, afero.WriteFile(fs, path, configgen.SignerKeys(nil), 0o644))
	keys, ok = LoadSignerKeys(fs, path)
	require.True(t, ok)
	require.Empty(t, keys)

	require.NoError(t, afero.WriteFile(fs, path, []byte("other: [1"), 0o644))
	_, ok = LoadSignerKeys(fs, path)
	require.False(t, ok)
}

func TestLoadKeystoreKeys(t *testing.T) {
	fs := afero.NewMemMapFs()
	dir := "/keys"

	t.Run("missing dir", func(t *testing.T) {
		_, _, ok := LoadKeystoreKeys(fs, dir)
		require.False(t, ok)
	})

	t.Run("empty dir", func(t *testing.T) {
		require.NoError(t, fs.MkdirAll(dir, 0o755))
		names, keys, ok := LoadKeystoreKeys(fs, dir)
		require.True(t, ok)
		require.Empty(t, names)
		require.Empty(t, keys)
	})

	t.Run("keystores", func(t *testing.T) {
		for i, key := range []string{"0x01", "0x02"} {
			data, err := configgen.KeystoreFile(key)
			require.NoError(t, err)
			name := configgen.KeystoreFilename(configgen.NamingPositional, i, "")
			require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, name), data, 0o600))
		}
		require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "README.txt"), []byte("ignored"), 0o600))
		require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "web3signer-config.yaml"), []byte("http-listen-port: 9000\n"), 0o600))

		names, keys, ok := LoadKeystoreKeys(fs, dir)
		require.True(t, ok, "foreign yaml files must not make the state undetermined")
		require.Equal(t, []string{"key_0.yaml", "key_1.yaml"}, names)
		require.Equal(t, []string{"0x01", "0x02"}, keys)

		listed, err := ListKeystoreFiles(fs, dir)
		require.NoError(t, err)
		require.Equal(t, names, listed)
	})

	t.Run("one corrupt keystore poisons the set", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "key_9.yaml"), []byte("privateKey: [oops"), 0o600))
		names, keys, ok := LoadKeystoreKeys(fs, dir)
		require.False(t, ok)
		require.Empty(t, names)
		require.Empty(t, keys)
	})
}

func TestDefinitionKey(t *testing.T) {
	def := configgen.LighthouseDefinition{
		Enabled:               true,
		VotingPublicKey:       "0xaa",
		Type:                  configgen.DefinitionTypeWeb3Signer,
		URL:                   "http://signer",
		SuggestedFeeRecipient: "0xdd",
	}

	disabled := def
	disabled.Enabled = false
	require.NotEqual(t, DefinitionKey(def), DefinitionKey(disabled))

	otherURL := def
	otherURL.URL = "http://other"
	require.NotEqual(t, DefinitionKey(def), DefinitionKey(otherURL))

	require.Equal(t, DefinitionKey(def), DefinitionKey(def))
}
