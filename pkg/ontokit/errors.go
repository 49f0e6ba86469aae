package ontokit

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig indicates the configuration is invalid or fails validation.
var ErrInvalidConfig = errors.New("ontokit: invalid config")

// InvalidConfigError represents a validation or parse failure for config.yaml.
type InvalidConfigError struct {
	Msg string
}

func (e *InvalidConfigError) Error() string {
	if e.Msg == "" {
		return "invalid ontokit config"
	}
	return fmt.Sprintf("invalid ontokit config: %s", e.Msg)
}

func (e *InvalidConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
