package imagery

import (
	"fmt"
	"path/filepath"
	"strings"
)

const APIKeyEnv = "OPENAI_API_KEY"

// CheckOutputDir rejects empty and relative output directories.
func CheckOutputDir(outputDir string) error {
	if outputDir == "" || !filepath.IsAbs(outputDir) {
		return fmt.Errorf("%w: output dir must be an absolute path, got %q", ErrConfiguration, outputDir)
	}
	return nil
}

// CheckAPIKey rejects an empty credential. The key is expected to come
// from the OPENAI_API_KEY environment variable.
func CheckAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf(`%w: you must add %s to your environment.
	session: run export %s=<your api key here> in your terminal.
	shell config: add the same export line to your ~/.zshrc or ~/.bashrc file`,
			ErrConfiguration, APIKeyEnv, APIKeyEnv)
	}
	return nil
}
