package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/partpicker/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

const testCatalog = "../../internal/catalog/testdata/snapshot.json"

// execute runs the root command in-process with a clean environment and fresh flag values.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	for _, key := range []string{config.EnvDatabaseURL, config.EnvCatalog, config.EnvLogLevel, config.EnvMinStock, "DATABASE_URL"} {
		t.Setenv(key, "")
	}
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
