package consts

import (
	"os"
	"path/filepath"
)

const (
	AppName           = "brewstrap"
	DefaultDirName    = ".brewstrap"
	DefaultConfigFile = "brewstrap.yaml"
	HistoryFileName   = "history.json"
	EnvFileName       = ".env"
	// HomeEnv overrides the state directory, mainly for tests.
	HomeEnv = "BREWSTRAP_HOME"
)

// GetStateDir returns the directory brewstrap keeps its history in.
func GetStateDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultDirName), nil
}

// GetHistoryFilePath returns the path of the run history file.
func GetHistoryFilePath() (string, error) {
	dir, err := GetStateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, HistoryFileName), nil
}
