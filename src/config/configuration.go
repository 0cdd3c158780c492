package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/adrg/xdg"
)

func GetenvStr(key string) string {
	return os.Getenv(key)
}

func GetenvInt(key string) (*int, error) {
	s := GetenvStr(key)
	if s == "" {
		var i int
		return &i, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		var i int
		return &i, err
	}
	return &v, nil
}

func GetenvBool(key string) (*bool, error) {
	s := GetenvStr(key)
	if s == "" {
		b := false
		return &b, nil
	}

	v, err := strconv.ParseBool(s)
	if err != nil {
		b := false
		return &b, err
	}
	return &v, nil
}

// DefaultConfigPath is where the engine configuration is looked up
// when no --config flag is given: $UMPIRE_CONFIG, then the XDG
// config home, then the working directory.
func DefaultConfigPath() string {
	if path := GetenvStr("UMPIRE_CONFIG"); path != "" {
		return path
	}
	xdgPath := filepath.Join(xdg.ConfigHome, "umpire", "umpire.yaml")
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}
	return "umpire.yaml"
}
