package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bruin-data/fivetran-provisioner/pkg/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func TestValidateCommand_Run(t *testing.T) {
	t.Parallel()

	fs := projectFs(t, "http://fivetran.invalid")
	require.NoError(t, afero.WriteFile(fs, "/broken/bad.yaml", []byte("connector:\n  service: postgres\n  config: {}\n"), 0o644))

	t.Run("connectors of the environment", func(t *testing.T) {
		t.Parallel()

		var stdout bytes.Buffer
		r := ValidateCommand{fs: fs, stdout: &stdout}
		require.NoError(t, r.Run(nil, "/project/provisioner.yml", "", "json"))

		var results []fileIssues
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &results))
		require.Len(t, results, 3)
		for _, result := range results {
			assert.Empty(t, result.Issues, result.Path)
		}
	})

	t.Run("invalid files fail", func(t *testing.T) {
		t.Parallel()

		var stdout bytes.Buffer
		r := ValidateCommand{fs: fs, stdout: &stdout}
		err := r.Run([]string{"/project/fivetran/erp.yaml", "/broken"}, "", "", "plain")

		var exitErr cli.ExitCoder
		require.ErrorAs(t, err, &exitErr)
		assert.Contains(t, stdout.String(), "1 of 2 connector definition(s) have issues")
		assert.Contains(t, stdout.String(), "/broken/bad.yaml")
	})
}

func TestEnvironmentListCommand_Run(t *testing.T) {
	t.Parallel()

	fs := projectFs(t, "http://fivetran.invalid")

	var stdout bytes.Buffer
	r := EnvironmentListCommand{fs: fs, stdout: &stdout}
	require.NoError(t, r.Run("json", "/project/provisioner.yml"))

	var resp struct {
		DefaultEnvironment string               `json:"default_environment"`
		Environments       []environmentSummary `json:"environments"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp))
	assert.Equal(t, "dev", resp.DefaultEnvironment)
	assert.Equal(t, []environmentSummary{
		{Name: "dev", Group: "CLV_Analytics_group", Destination: "snowflake", Connectors: 3},
	}, resp.Environments)

	stdout.Reset()
	require.NoError(t, r.Run("plain", "/project/provisioner.yml"))
	assert.Contains(t, stdout.String(), "Default environment: dev")
	assert.Contains(t, stdout.String(), "CLV_Analytics_group")
}

func TestStatusCommand_Run(t *testing.T) {
	t.Parallel()

	_, server := newFakeFivetran(t)
	fs := projectFs(t, server.URL)

	var stdout bytes.Buffer
	r := StatusCommand{fs: fs, stdout: &stdout, logger: zap.NewNop().Sugar()}
	require.NoError(t, r.Run(context.Background(), []string{"conn_postgres", "conn_hubspot"}, "/project/provisioner.yml", "", "json"))

	var statuses []connectionStatus
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &statuses))
	require.Len(t, statuses, 2)
	assert.Equal(t, "conn_postgres", statuses[0].ID)
	assert.Equal(t, "postgres", statuses[0].Service)
	assert.Equal(t, "blocked_on_customer", statuses[0].SchemaStatus)
	assert.Equal(t, "succeeded", statuses[0].LastSync)
	assert.Nil(t, statuses[0].FailedAt)
}

func TestSwitchEnvironment(t *testing.T) {
	t.Parallel()

	cm, err := config.LoadFromFile(projectFs(t, "http://fivetran.invalid"), "/project/provisioner.yml")
	require.NoError(t, err)

	require.NoError(t, switchEnvironment("", false, cm, nil))
	assert.Equal(t, "dev", cm.SelectedEnvironmentName)

	cm.Environments["production"] = cm.Environments["dev"]
	require.NoError(t, switchEnvironment("production", true, cm, nil))
	assert.Equal(t, "production", cm.SelectedEnvironmentName)

	var notFound *config.EnvironmentNotFoundError
	require.ErrorAs(t, switchEnvironment("staging", false, cm, nil), &notFound)
}

func TestFetchLatestVersion(t *testing.T) {
	t.Parallel()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/releases/latest" {
			http.Redirect(w, r, server.URL+"/releases/tag/v1.4.0", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	latest := fetchLatestVersion(server.Client(), server.URL+"/releases", zap.NewNop().Sugar())
	assert.Equal(t, "v1.4.0", latest)

	latest = fetchLatestVersion(server.Client(), "http://127.0.0.1:0/releases", zap.NewNop().Sugar())
	assert.Contains(t, latest, "unknown")
}

func TestVersionCommand_Run(t *testing.T) {
	t.Parallel()

	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/releases/latest" {
			http.Redirect(w, r, server.URL+"/releases/tag/v1.4.0", http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var stdout bytes.Buffer
	r := VersionCommand{
		stdout:      &stdout,
		httpClient:  server.Client(),
		releasesURL: server.URL + "/releases",
		logger:      zap.NewNop().Sugar(),
	}

	require.NoError(t, r.Run("v1.3.0", "abc123", "json"))
	var info VersionInfo
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &info))
	assert.Equal(t, "v1.3.0", info.Version)
	assert.Equal(t, "abc123", info.Commit)
	assert.Equal(t, "v1.4.0", info.Latest)

	stdout.Reset()
	require.NoError(t, r.Run("v1.3.0", "abc123", "plain"))
	assert.Contains(t, stdout.String(), "Latest: v1.4.0")
	assert.Contains(t, stdout.String(), "A newer release is available")

	stdout.Reset()
	require.NoError(t, r.Run("1.4.0", "abc123", "plain"))
	assert.NotContains(t, stdout.String(), "A newer release is available")
}

func TestIsNewerRelease(t *testing.T) {
	t.Parallel()

	assert.False(t, isNewerRelease("dev", "v1.0.0"))
	assert.False(t, isNewerRelease("v1.0.0", "<unknown: error fetching version information>"))
	assert.False(t, isNewerRelease("v1.0.0", "1.0.0"))
	assert.True(t, isNewerRelease("v1.0.0", "v1.1.0"))
}
