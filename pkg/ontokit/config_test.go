package ontokit_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tu "github.com/jlrickert/cli-toolkit/sandbox"
	"github.com/stretchr/testify/require"

	"github.com/jlrickert/ontokit/pkg/onto"
	"github.com/jlrickert/ontokit/pkg/ontokit"
)

func TestParseConfig_DefaultsAndOverrides(t *testing.T) {
	t.Parallel()
	cfg, err := ontokit.ParseConfig([]byte(`
api_url: https://ghe.example.com/api/v3
base_dir: tests
retries: 2
timeout: 5s
prefixes:
  cq: QQ
`))
	require.NoError(t, err)
	require.Equal(t, "https://ghe.example.com/api/v3", cfg.APIURL)
	require.Equal(t, "GITHUB_TOKEN", cfg.TokenEnv)
	require.Equal(t, "tests/UserInput.json", cfg.IndexPath())
	require.Equal(t, 2, cfg.Retries)
	require.Equal(t, 5*time.Second, cfg.Timeout)

	prefixes, err := cfg.PrefixTable()
	require.NoError(t, err)
	require.Equal(t, "QQ", prefixes[onto.CompetencyQuestion])
	require.Equal(t, "EP", prefixes[onto.ErrorProvocation])
}

func TestParseConfig_Invalid(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		yaml string
	}{
		{name: "scheme", yaml: "api_url: ftp://x\n"},
		{name: "retries", yaml: "retries: -1\n"},
		{name: "index file", yaml: "index_file: a/b.json\n"},
		{name: "prefix type", yaml: "prefixes:\n  nonsense: XX\n"},
		{name: "syntax", yaml: "retries: [\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ontokit.ParseConfig([]byte(tc.yaml))
			require.ErrorIs(t, err, ontokit.ErrInvalidConfig)
			var ice *ontokit.InvalidConfigError
			require.ErrorAs(t, err, &ice)
		})
	}
}

func TestLoadConfig_ExplicitPath(t *testing.T) {
	t.Parallel()
	sb := tu.NewSandbox(t, nil)
	ctx := sb.Context()

	_, err := ontokit.LoadConfig(ctx, sb.Runtime(), "conf/config.yaml")
	require.ErrorIs(t, err, os.ErrNotExist)

	sb.MustWriteFile("conf/config.yaml", []byte("selection_file: /tmp/sel.json\n"), 0o644)
	cfg, err := ontokit.LoadConfig(ctx, sb.Runtime(), "conf/config.yaml")
	require.NoError(t, err)
	sp, err := cfg.SelectionPath(sb.Runtime())
	require.NoError(t, err)
	require.Equal(t, "/tmp/sel.json", sp)
}

func TestLoadConfig_DefaultLocation(t *testing.T) {
	t.Parallel()
	sb := tu.NewSandbox(t, &tu.Options{Home: "/home/testuser", User: "testuser"})
	ctx := sb.Context()

	cfg, err := ontokit.LoadConfig(ctx, sb.Runtime(), "")
	require.NoError(t, err)
	require.Equal(t, ontokit.DefaultConfig(), cfg)

	sb.MustWriteFile("~/.config/ontokit/config.yaml", []byte("retries: 3\n"), 0o644)
	cfg, err = ontokit.LoadConfig(ctx, sb.Runtime(), "")
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Retries)

	sp, err := cfg.SelectionPath(sb.Runtime())
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/home/testuser", ".config", "ontokit", "selection.json"), sp)
}

func TestConfigToken_ReadsRuntimeEnv(t *testing.T) {
	t.Parallel()
	sb := tu.NewSandbox(t, nil, tu.WithEnv("ONTOKIT_TEST_TOKEN", "s3cret"))

	cfg := ontokit.DefaultConfig()
	cfg.TokenEnv = "ONTOKIT_TEST_TOKEN"
	require.Equal(t, "s3cret", cfg.Token(sb.Runtime()))

	cfg.TokenEnv = ""
	require.Empty(t, cfg.Token(sb.Runtime()))
}

func TestNew_RequiresSelection(t *testing.T) {
	t.Parallel()
	_, err := ontokit.New(ontokit.Options{})
	require.Error(t, err)
}
