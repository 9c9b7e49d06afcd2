package preflight

import (
	"context"

	"contentengine/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name" yaml:"name"`
	Passed bool   `json:"passed" yaml:"passed"`
	Detail string `json:"detail" yaml:"detail"`
}

// Options selects the checks that reach external services.
type Options struct {
	// Online enables the LLM round trip. Local checks always run.
	Online bool
}

// RunAll executes the local checks and, when opts.Online is set, the
// network checks.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckGoogleCredentials(cfg.Google),
		CheckAPIKey("Transcription API", cfg.Transcription.APIKey),
	}
	if opts.Online {
		results = append(results, CheckLLM(ctx, "Strategy LLM", cfg.LLM))
	} else {
		results = append(results, CheckAPIKey("Strategy LLM", cfg.LLM.APIKey))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
