package main

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/appfx/appfx/internal/environment"
	apperrors "github.com/appfx/appfx/pkg/errors"
)

func TestEnvListShowsEnvironments(t *testing.T) {
	dir := scaffoldProject(t)

	output, err := execute(t, "env", "list", "--project", dir)

	require.NoError(t, err)
	require.Equal(t, "dev\nlocal\n", output)
}

func TestEnvListOutsideProjectFails(t *testing.T) {
	_, err := execute(t, "env", "list", "--project", t.TempDir())

	require.Error(t, err)
	require.True(t, apperrors.HasName(err, apperrors.NameInvalidProject))
}

func TestEnvAddCreatesEnvironment(t *testing.T) {
	dir := scaffoldProject(t)

	output, err := execute(t, "env", "add", "staging", "--project", dir)

	require.NoError(t, err)
	require.Contains(t, output, `environment "staging" created`)

	envs, err := environment.ListEnvs(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"dev", "local", "staging"}, envs)
}

func TestEnvAddCopiesConfigWithoutSuffix(t *testing.T) {
	dir := scaffoldProject(t)
	require.NoError(t, environment.WriteConfig(dir, "dev", environment.Config{
		Azure: &environment.AzureConfig{
			SubscriptionID:     "aaaaaaaa-1111-4111-8111-aaaaaaaaaaaa",
			Location:           "westus",
			ResourceNameSuffix: "a1b2c3",
		},
	}))

	_, err := execute(t, "env", "add", "staging", "--copy-from", "dev", "--project", dir)
	require.NoError(t, err)

	raw, err := os.ReadFile(environment.ConfigPath(dir, "staging"))
	require.NoError(t, err)

	var cfg environment.Config
	require.NoError(t, json.Unmarshal(raw, &cfg))
	require.NotNil(t, cfg.Azure)
	require.Equal(t, "aaaaaaaa-1111-4111-8111-aaaaaaaaaaaa", cfg.Azure.SubscriptionID)
	require.Equal(t, "westus", cfg.Azure.Location)
	require.Empty(t, cfg.Azure.ResourceNameSuffix, "a copied environment must mint its own suffix")
}

func TestEnvAddRejectsDuplicates(t *testing.T) {
	dir := scaffoldProject(t)

	_, err := execute(t, "env", "add", "dev", "--project", dir)

	require.Error(t, err)
	require.True(t, apperrors.HasName(err, apperrors.NameProjectEnvAlreadyExist))
}

func TestEnvAddCopyFromMissingEnvFails(t *testing.T) {
	dir := scaffoldProject(t)

	_, err := execute(t, "env", "add", "staging", "--copy-from", "ghost", "--project", dir)

	require.Error(t, err)
	require.True(t, apperrors.HasName(err, apperrors.NameProjectEnvNotExist))
}
