package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// Run executes kanbanctl with args and returns the process exit code.
// KANBANFLOW_CONFIG overrides the config file location.
func Run(args []string, stdout, stderr io.Writer, env []string) int {
	path, err := configPathFromEnv(env)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, FormatError(OutputText, http.StatusInternalServerError, err.Error()))
		return 1
	}

	fileCfg, err := LoadConfigFile(path)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, FormatError(OutputText, http.StatusInternalServerError, err.Error()))
		return 1
	}

	cfg := MergeConfig(DefaultConfig(), fileCfg, ParseEnvConfig(env))
	if !isValidOutput(string(cfg.Output)) {
		cfg.Output = OutputText
	}

	root := NewRootCommand(cfg, path, stdout, stderr)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		output := cfg.Output
		if current, flagErr := root.PersistentFlags().GetString("output"); flagErr == nil && isValidOutput(current) {
			output = Output(current)
		}

		var cErr *cliError
		if asCLIError(err, &cErr) {
			_, _ = fmt.Fprintln(stderr, FormatError(output, cErr.status, cErr.message))
			return 1
		}
		_, _ = fmt.Fprintln(stderr, FormatError(output, http.StatusBadRequest, err.Error()))
		return 1
	}
	return 0
}

func configPathFromEnv(env []string) (string, error) {
	for _, kv := range env {
		if v, ok := strings.CutPrefix(kv, "KANBANFLOW_CONFIG="); ok && v != "" {
			return v, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return ConfigPath(home), nil
}
