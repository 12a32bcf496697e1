package telemetry

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/bruin-data/fivetran-provisioner/pkg/user"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const telemetryStateFileName = "telemetry.json"

// installState identifies an installation without identifying its user or the accounts it provisions.
type installState struct {
	InstallID      string `json:"install_id"`
	InstallAt      string `json:"install_at"`
	InstallVersion string `json:"install_version"`
	LastVersion    string `json:"last_version,omitempty"`
}

func loadOrCreateInstallState(appVersion string) (installState, bool, error) {
	fs := afero.NewOsFs()
	homeDir, err := user.NewConfigManager(fs).EnsureAndGetHomeDir()
	if err != nil {
		return installState{}, false, err
	}

	return loadOrCreateInstallStateWithFS(fs, homeDir, appVersion, time.Now)
}

// loadOrCreateInstallStateWithFS returns the stored install state, creating it on first use. The
// boolean reports whether the state was created by this call.
func loadOrCreateInstallStateWithFS(fs afero.Fs, homeDir string, appVersion string, now func() time.Time) (installState, bool, error) {
	if err := fs.MkdirAll(homeDir, 0o755); err != nil {
		return installState{}, false, errors.Wrap(err, "failed to create telemetry state directory")
	}

	statePath := filepath.Join(homeDir, telemetryStateFileName)
	state, err := readInstallState(fs, statePath)
	if err == nil && state.InstallID != "" {
		if state.LastVersion == appVersion {
			return state, false, nil
		}

		state.LastVersion = appVersion
		return state, false, writeInstallState(fs, statePath, state)
	}

	newState := installState{
		InstallID:      uuid.NewString(),
		InstallAt:      now().UTC().Format(time.RFC3339),
		InstallVersion: appVersion,
		LastVersion:    appVersion,
	}

	if err := writeInstallState(fs, statePath, newState); err != nil {
		return newState, false, err
	}

	return newState, true, nil
}

func readInstallState(fs afero.Fs, path string) (installState, error) {
	buf, err := afero.ReadFile(fs, path)
	if err != nil {
		return installState{}, err
	}

	var state installState
	if err := json.Unmarshal(buf, &state); err != nil {
		return installState{}, errors.Wrapf(err, "failed to parse %s", path)
	}

	return state, nil
}

func writeInstallState(fs afero.Fs, path string, state installState) error {
	buf, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return afero.WriteFile(fs, path, buf, 0o600)
}
