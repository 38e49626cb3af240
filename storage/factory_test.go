package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

func TestStoreFactoryFileURI(t *testing.T) {
	factory := NewStoreFactory(testLogger())
	dir := t.TempDir()

	store, err := factory.StoreFor(interfaces.StoreLocation("file://" + dir))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)
	assert.Equal(t, "file://"+dir, store.LocationURI())

	_, err = factory.StoreFor("file://")
	assert.Error(t, err, "empty path is rejected")
}

func TestStoreFactoryS3URI(t *testing.T) {
	factory := NewStoreFactory(testLogger())

	store, err := factory.StoreFor("s3://my-bucket/ledger?region=eu-west-1")
	require.NoError(t, err)
	s3Store, ok := store.(*S3Store)
	require.True(t, ok)
	assert.Equal(t, "s3-my-bucket", s3Store.Name())

	// Embedded credentials never leak into the location URI.
	store, err = factory.StoreFor("s3://KEY:SECRET@my-bucket/ledger?region=eu-west-1")
	require.NoError(t, err)
	assert.NotContains(t, store.LocationURI(), "SECRET")

	_, err = factory.StoreFor("s3://?region=eu-west-1")
	assert.Error(t, err, "missing bucket is rejected")
}

func TestStoreFactoryVaultURI(t *testing.T) {
	factory := NewStoreFactory(testLogger())

	store, err := factory.StoreFor("vault://TOKEN@vault.example.com:8200/secret/flightsurety")
	require.NoError(t, err)
	vaultStore, ok := store.(*VaultStore)
	require.True(t, ok)
	assert.Equal(t, "vault-flightsurety", vaultStore.Name())
	assert.NotContains(t, store.LocationURI(), "TOKEN")

	_, err = factory.StoreFor("vault://vault.example.com:8200/secret")
	assert.Error(t, err, "mount without data path is rejected")
}

func TestStoreFactoryRejectsUnknownScheme(t *testing.T) {
	factory := NewStoreFactory(testLogger())

	_, err := factory.StoreFor("redis://localhost:6379")
	assert.Error(t, err)
}

func TestCreateMultiStore(t *testing.T) {
	factory := NewStoreFactory(testLogger())
	dir := t.TempDir()

	// Invalid URIs are skipped as long as one valid store remains.
	store, err := factory.CreateMultiStore([]interfaces.StoreLocation{
		"bogus://nowhere",
		interfaces.StoreLocation("file://" + dir),
	})
	require.NoError(t, err)
	assert.IsType(t, &MultiStore{}, store)

	_, err = factory.CreateMultiStore([]interfaces.StoreLocation{"bogus://nowhere"})
	assert.Error(t, err, "no usable store at all is an error")
}
