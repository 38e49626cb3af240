package storage

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

// VaultStore implements a ledger store on HashiCorp Vault's KV v2 engine.
// The snapshot lives at a fixed secret path; event records are written as
// individual secrets keyed by write time.
type VaultStore struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultStore creates a Vault-backed ledger store.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: path within the mount (e.g. "flightsurety")
//   - token: Vault token; empty falls back to VAULT_TOKEN from the environment
//   - insecureTLS: skip TLS certificate verification (testing only)
func NewVaultStore(address, mountPath, dataPath, token string, insecureTLS bool, log *slog.Logger) (*VaultStore, error) {
	config := api.DefaultConfig()
	config.Address = address

	if insecureTLS {
		transport := &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		config.HttpClient = &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		}
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultStore{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", address, mountPath, dataPath),
	}, nil
}

// SaveSnapshot writes the snapshot to the fixed secret path. KV v2 keeps
// prior versions, so the replace is effectively atomic for readers.
func (b *VaultStore) SaveSnapshot(ctx context.Context, data []byte) error {
	path := fmt.Sprintf("%s/data/%s/snapshot", b.mountPath, b.dataPath)

	_, err := b.client.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"data": map[string]interface{}{
			"snapshot": base64.StdEncoding.EncodeToString(data),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write snapshot to Vault: %w", err)
	}

	b.log.Debug("Stored ledger snapshot in Vault",
		slog.String("path", path),
		slog.Int("size", len(data)))
	return nil
}

// LoadSnapshot reads the snapshot from Vault, or returns ErrNoSnapshot when
// the secret does not exist.
func (b *VaultStore) LoadSnapshot(ctx context.Context) ([]byte, error) {
	path := fmt.Sprintf("%s/data/%s/snapshot", b.mountPath, b.dataPath)

	secret, err := b.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot from Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, interfaces.ErrNoSnapshot
	}

	// KV v2 wraps the payload in a "data" field
	inner, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response")
	}
	encoded, ok := inner["snapshot"].(string)
	if !ok {
		return nil, interfaces.ErrNoSnapshot
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot from Vault: %w", err)
	}

	b.log.Debug("Loaded ledger snapshot from Vault",
		slog.String("path", path),
		slog.Int("size", len(data)))
	return data, nil
}

// AppendEvent writes the event record as a secret keyed by nanosecond
// timestamp under the events/ path.
func (b *VaultStore) AppendEvent(ctx context.Context, data []byte) error {
	path := fmt.Sprintf("%s/data/%s/events/%020d", b.mountPath, b.dataPath, time.Now().UnixNano())

	_, err := b.client.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"data": map[string]interface{}{
			"event": base64.StdEncoding.EncodeToString(data),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write event to Vault: %w", err)
	}
	return nil
}

// Available checks if the Vault server is reachable and unsealed.
func (b *VaultStore) Available(ctx context.Context) bool {
	health, err := b.client.Sys().HealthWithContext(ctx)
	if err != nil {
		b.log.Warn("Vault store unavailable", "err", err)
		return false
	}
	if health.Sealed {
		b.log.Warn("Vault store sealed")
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (b *VaultStore) Name() string {
	return fmt.Sprintf("vault-%s", b.dataPath)
}

// LocationURI returns the URI that identifies this store.
func (b *VaultStore) LocationURI() string {
	return b.locationURI
}
