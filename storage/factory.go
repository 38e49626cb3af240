package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

// StoreFactory creates ledger stores from URI strings and assembles
// multi-store configurations for redundant persistence.
type StoreFactory struct {
	log *slog.Logger
}

// NewStoreFactory creates a new factory instance.
func NewStoreFactory(logger *slog.Logger) *StoreFactory {
	return &StoreFactory{log: logger}
}

// StoreFor creates a ledger store from a location URI.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - Local filesystem storage
//   - s3:// - Amazon S3 or compatible object storage
//   - vault:// - HashiCorp Vault KV v2 storage
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (sf *StoreFactory) StoreFor(location interfaces.StoreLocation) (interfaces.LedgerStore, error) {
	u, err := url.Parse(string(location))
	if err != nil {
		return nil, fmt.Errorf("invalid store location URI: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return sf.createFileStore(u)
	case "s3":
		return sf.createS3Store(u)
	case "vault":
		return sf.createVaultStore(u)
	default:
		return nil, fmt.Errorf("unsupported store scheme: %s", u.Scheme)
	}
}

// CreateMultiStore creates a redundant store from a list of location URIs.
// Snapshots and events are written to every reachable backend; the snapshot
// is loaded from the first backend that has one. Returns an error if no
// valid store could be created from the provided URIs.
func (sf *StoreFactory) CreateMultiStore(locations []interfaces.StoreLocation) (interfaces.LedgerStore, error) {
	stores := make([]interfaces.LedgerStore, 0, len(locations))

	for _, location := range locations {
		store, err := sf.StoreFor(location)
		if err != nil {
			sf.log.Warn("Failed to create ledger store",
				"err", err,
				slog.String("locationURI", string(location)))
			continue
		}
		stores = append(stores, store)
	}

	if len(stores) == 0 {
		return nil, fmt.Errorf("no valid ledger stores created")
	}

	return NewMultiStore(stores, sf.log), nil
}

// createFileStore creates a file system store.
// URI format: file:///absolute/path or file://./relative/path
func (sf *StoreFactory) createFileStore(u *url.URL) (interfaces.LedgerStore, error) {
	sf.log.Debug("Creating file store", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("empty path in file URI: %s", u.String())
	}

	return NewFileStore(path, sf.log)
}

// createS3Store creates an S3 or S3-compatible store.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix?region=us-west-2&endpoint=custom.s3.com
func (sf *StoreFactory) createS3Store(u *url.URL) (interfaces.LedgerStore, error) {
	sf.log.Debug("Creating S3 store", slog.String("uri", u.Redacted()))

	bucketName := u.Host
	if bucketName == "" {
		return nil, fmt.Errorf("missing bucket name in S3 URI: %s", u.Redacted())
	}
	prefix := strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := query.Get("endpoint")

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	} else {
		sf.log.Debug("No credentials in S3 URI, using default credential chain")
	}

	return NewS3Store(bucketName, prefix, region, endpoint, accessKey, secretKey, sf.log)
}

// createVaultStore creates a Vault KV v2 store.
// URI format: vault://[TOKEN@]host:port/mount/path?tls=false
func (sf *StoreFactory) createVaultStore(u *url.URL) (interfaces.LedgerStore, error) {
	sf.log.Debug("Creating Vault store", slog.String("uri", u.Redacted()))

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid Vault URI format, expected vault://host:port/mount/path")
	}
	mountPath, dataPath := parts[0], parts[1]

	var token string
	if u.User != nil {
		token = u.User.Username()
	}

	scheme := "https"
	if u.Query().Get("tls") == "false" {
		scheme = "http"
	}
	address := fmt.Sprintf("%s://%s", scheme, u.Host)

	return NewVaultStore(address, mountPath, dataPath, token, false, sf.log)
}
