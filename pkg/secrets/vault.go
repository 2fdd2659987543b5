// Package secrets copies key/value secrets from HashiCorp Vault into the
// process environment before configuration is read.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medisearch-pro/backend/pkg/retry"
)

// VaultConfig locates one KV secret.
type VaultConfig struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
	// Overwrite lets Vault values replace variables that are already set.
	Overwrite bool
}

// Result reports what ApplyVault did.
type Result struct {
	Loaded  int
	Skipped int
}

// VaultConfigFromEnv reads the VAULT_* variables.
func VaultConfigFromEnv() VaultConfig {
	cfg := VaultConfig{
		Enabled:   strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true"),
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     os.Getenv("VAULT_MOUNT"),
		Path:      os.Getenv("VAULT_PATH"),
		KVVersion: 2,
		Timeout:   5 * time.Second,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
	}
	if cfg.Mount == "" {
		cfg.Mount = "secret"
	}
	if v, err := strconv.Atoi(os.Getenv("VAULT_KV_VERSION")); err == nil {
		cfg.KVVersion = v
	}
	if ms, err := strconv.Atoi(os.Getenv("VAULT_TIMEOUT_MS")); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

func (c VaultConfig) secretURL() (string, error) {
	addr := strings.TrimRight(c.Addr, "/")
	mount := strings.Trim(c.Mount, "/")
	path := strings.TrimLeft(c.Path, "/")
	if addr == "" || c.Token == "" || path == "" {
		return "", errors.New("vault configuration incomplete (VAULT_ADDR, VAULT_TOKEN, VAULT_PATH)")
	}
	if c.KVVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path), nil
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path), nil
}

// ApplyVault fetches the secret and exports each key as an environment
// variable. Variables that are already set win unless Overwrite is set.
func ApplyVault(ctx context.Context, cfg VaultConfig) (Result, error) {
	if !cfg.Enabled {
		return Result{}, nil
	}
	data, err := Fetch(ctx, cfg)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for key, value := range data {
		if !cfg.Overwrite && os.Getenv(key) != "" {
			res.Skipped++
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return res, fmt.Errorf("failed to set %s: %w", key, err)
		}
		res.Loaded++
	}
	log.Info().Str("path", cfg.Path).Int("loaded", res.Loaded).Int("skipped", res.Skipped).Msg("Vault secrets applied")
	return res, nil
}

// Fetch reads the secret at cfg.Path. Server errors are retried; a 4xx
// response fails immediately.
func Fetch(ctx context.Context, cfg VaultConfig) (map[string]string, error) {
	url, err := cfg.secretURL()
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: cfg.Timeout}

	var body []byte
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 3
	err = retry.Do(ctx, retryCfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("X-Vault-Token", cfg.Token)
		if cfg.Namespace != "" {
			req.Header.Set("X-Vault-Namespace", cfg.Namespace)
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 300 {
			err := fmt.Errorf("vault fetch failed: %s %s", resp.Status, strings.TrimSpace(string(body)))
			if resp.StatusCode < 500 {
				return retry.Permanent(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode vault response: %w", err)
	}
	fields := payload.Data
	if cfg.KVVersion != 1 {
		inner, ok := fields["data"]
		if !ok {
			return nil, errors.New("vault response missing data for KV v2")
		}
		fields = nil
		if err := json.Unmarshal(inner, &fields); err != nil {
			return nil, fmt.Errorf("failed to decode vault data: %w", err)
		}
	}
	if fields == nil {
		return nil, fmt.Errorf("vault response missing data for KV v%d", cfg.KVVersion)
	}

	out := make(map[string]string, len(fields))
	for key, raw := range fields {
		out[key] = stringify(raw)
	}
	return out, nil
}

// stringify renders a JSON value the way it would be written in a .env file.
func stringify(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}
