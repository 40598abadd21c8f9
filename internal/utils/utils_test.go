package utils_test

import (
	"testing"

	"github.com/speakeasy-api/gitsync/internal/utils"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapitalizeFirst(t *testing.T) {
	assert.Equal(t, "", utils.CapitalizeFirst(""))
	assert.Equal(t, "Merge", utils.CapitalizeFirst("merge"))
	assert.Equal(t, "Épée", utils.CapitalizeFirst("épée"))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 file", utils.Pluralize(1, "file"))
	assert.Equal(t, "0 files", utils.Pluralize(0, "file"))
	assert.Equal(t, "3 commits", utils.Pluralize(3, "commit"))
}

func TestGetFullCommandString_HidesToken(t *testing.T) {
	root := &cobra.Command{Use: "gitsync"}
	pull := &cobra.Command{Use: "pull", Run: func(*cobra.Command, []string) {}}
	pull.Flags().String("token", "", "")
	pull.Flags().String("remote", "origin", "")
	root.AddCommand(pull)

	require.NoError(t, pull.Flags().Set("token", "secret"))
	require.NoError(t, pull.Flags().Set("remote", "upstream"))

	assert.Equal(t, "gitsync pull --remote=upstream", utils.GetFullCommandString(pull))
}
