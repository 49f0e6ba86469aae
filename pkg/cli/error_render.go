package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jlrickert/ontokit/pkg/ontokit"
	"github.com/jlrickert/ontokit/pkg/remote"
)

// resultError reports a failed ontokit.Result as a command error.
type resultError struct {
	res ontokit.Result
}

func (e *resultError) Error() string {
	if e.res.Kind == "" {
		return e.res.Message
	}
	return fmt.Sprintf("%s (%s)", e.res.Message, e.res.Kind)
}

func renderUserError(err error, deps *Deps) string {
	if err == nil {
		return ""
	}

	var re *resultError
	if errors.As(err, &re) {
		return re.res.Message
	}

	if errors.Is(err, remote.ErrNoSelection) {
		return "no repository selected, run: ontokit repo select OWNER/NAME [BRANCH]"
	}

	var cfgErr *ontokit.InvalidConfigError
	if errors.As(err, &cfgErr) {
		if deps != nil && deps.ConfigPath != "" {
			return fmt.Sprintf("%s (%s)", cfgErr.Error(), deps.ConfigPath)
		}
		return cfgErr.Error()
	}

	var rl *remote.RateLimitError
	if errors.As(err, &rl) {
		if rl.RetryAfter > 0 {
			return fmt.Sprintf("rate limited by GitHub, retry in %s", rl.RetryAfter)
		}
		return "rate limited by GitHub"
	}

	if isDebugLogLevel(deps) {
		return err.Error()
	}
	if msg := remote.Message(err); msg != "" {
		return msg
	}
	return err.Error()
}

func isDebugLogLevel(deps *Deps) bool {
	if deps == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(deps.LogLevel), "debug")
}
