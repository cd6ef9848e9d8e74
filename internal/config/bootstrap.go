package config

import (
	"fmt"
	"os"
)

// EnsureConfigFile makes sure the config file exists.
//
// If the file does not exist, it writes the default config via Save so
// rangebench can boot without any setup step. It never overwrites an
// existing file; a later run that finds one already there leaves it to
// Load to fill in any field a newer rangebench added.
func EnsureConfigFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := Save(path, Default()); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}
