// Package preflight validates the environment before the server starts:
// data directory writability, auth configuration, and embedder
// reachability. Failures of required checks stop startup; warnings are
// reported and tolerated.
package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/papertrail-app/papertrail/internal/config"
	"github.com/papertrail-app/papertrail/internal/embed"
)

// CheckStatus is the result of a single check.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
)

// String returns the status label.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// CheckResult holds one check outcome.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Required bool        `json:"required"`
}

// IsCritical reports whether this result must stop startup.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// RunAll executes every check. The embedder may be nil when the caller
// has not built one yet; its check is then skipped.
func RunAll(ctx context.Context, cfg *config.Config, embedder embed.Embedder) []CheckResult {
	results := []CheckResult{
		CheckDataDir(cfg.Storage.DataDir),
		CheckSecretKey(cfg.Auth.SecretKey),
	}
	if embedder != nil {
		results = append(results, CheckEmbedder(ctx, cfg, embedder))
	}
	return results
}

// HasCritical reports whether any required check failed.
func HasCritical(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// CheckDataDir verifies the data directory exists (or can be created)
// and is writable.
func CheckDataDir(dataDir string) CheckResult {
	result := CheckResult{Name: "data directory", Required: true}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot create %s: %v", dataDir, err)
		return result
	}

	probe := filepath.Join(dataDir, ".write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s is not writable: %v", dataDir, err)
		return result
	}
	_ = os.Remove(probe)

	result.Status = StatusPass
	result.Message = dataDir
	return result
}

// CheckSecretKey verifies a session signing key is configured.
func CheckSecretKey(secret string) CheckResult {
	result := CheckResult{Name: "auth secret", Required: true}
	switch {
	case secret == "":
		result.Status = StatusFail
		result.Message = "auth.secret_key is empty; set PAPERTRAIL_SECRET_KEY or the config file"
	case len(secret) < 16:
		result.Status = StatusWarn
		result.Required = false
		result.Message = "auth.secret_key is shorter than 16 bytes"
	default:
		result.Status = StatusPass
		result.Message = "configured"
	}
	return result
}

// CheckEmbedder probes the embedding backend. An unreachable embedder
// is a warning when lexical fallback is enabled, a failure otherwise.
func CheckEmbedder(ctx context.Context, cfg *config.Config, embedder embed.Embedder) CheckResult {
	result := CheckResult{Name: "embedder", Required: !cfg.Search.LexicalFallback}

	if embedder.Available(ctx) {
		result.Status = StatusPass
		result.Message = fmt.Sprintf("%s (%d dimensions)", embedder.ModelName(), embedder.Dimensions())
		return result
	}

	if cfg.Search.LexicalFallback {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s unreachable; search will degrade to lexical-only", embedder.ModelName())
	} else {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("%s unreachable and lexical fallback is disabled", embedder.ModelName())
	}
	return result
}
