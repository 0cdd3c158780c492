package config

import (
	"os"

	"github.com/pkg/errors"
)

type WebConfig struct {
	Listen string

	// BearerToken guards the mutating API endpoints when set.
	BearerToken string
}

func NewWebConfig(listen, tokenFile string) (WebConfig, error) {
	self := WebConfig{Listen: listen}

	if tokenFile == "" {
		return self, nil
	}

	if v, err := os.ReadFile(tokenFile); err != nil {
		return self, errors.WithMessage(err, "While reading web bearer token file")
	} else {
		self.BearerToken = string(trimNewline(v))
	}

	return self, nil
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
