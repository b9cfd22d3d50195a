package postgres

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
)

func TestPayloadCodec(t *testing.T) {
	codec, err := NewPayloadCodec(64)
	require.NoError(t, err)
	defer codec.Close()

	small := []byte(`{"type":"stock.low"}`)
	stored, enc := codec.Encode(small)
	assert.Equal(t, EncodingJSON, enc)
	assert.Equal(t, small, stored)

	large := bytes.Repeat([]byte(`{"productId":"p","stock":1},`), 20)
	stored, enc = codec.Encode(large)
	assert.Equal(t, EncodingZstdJSON, enc)
	assert.Less(t, len(stored), len(large))

	decoded, err := codec.Decode(stored, enc)
	require.NoError(t, err)
	assert.Equal(t, large, decoded)

	_, err = codec.Decode(stored, "gzip")
	assert.Error(t, err)
}

func TestPayloadCodec_DefaultThreshold(t *testing.T) {
	codec, err := NewPayloadCodec(0)
	require.NoError(t, err)
	defer codec.Close()

	_, enc := codec.Encode(bytes.Repeat([]byte("a"), DefaultCompressThreshold-1))
	assert.Equal(t, EncodingJSON, enc)
	_, enc = codec.Encode(bytes.Repeat([]byte("a"), DefaultCompressThreshold))
	assert.Equal(t, EncodingZstdJSON, enc)
}

func TestMigrations_Embedded(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	assert.Equal(t, "0001_init", migrations[0].Version)
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE sales")
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE sys_outbox")
}

func TestLoadMigrations_Sorted(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0002_b.sql": {Data: []byte("SELECT 2")},
		"m/0001_a.sql": {Data: []byte("SELECT 1")},
		"m/README.md":  {Data: []byte("ignored")},
		"m/0010_c.sql": {Data: []byte("SELECT 10")},
	}

	migrations, err := loadMigrations(fsys, "m")
	require.NoError(t, err)

	var versions []string
	for _, m := range migrations {
		versions = append(versions, m.Version)
	}
	assert.Equal(t, []string{"0001_a", "0002_b", "0010_c"}, versions)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "Unique", err: &pgconn.PgError{Code: "23505", ConstraintName: "products_barcode_key"}, wantCode: apperror.CodeDuplicate},
		{name: "Foreign key", err: &pgconn.PgError{Code: "23503"}, wantCode: apperror.CodeValidation},
		{name: "Check", err: &pgconn.PgError{Code: "23514"}, wantCode: apperror.CodeBusinessRule},
		{name: "Serialization", err: &pgconn.PgError{Code: "40001"}, wantCode: apperror.CodeConcurrentModification},
		{name: "Wrapped unique", err: fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"}), wantCode: apperror.CodeDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WriteError("insert", "Product", "barcode", "123", tt.err)
			assert.True(t, apperror.HasCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestWriteError_Passthrough(t *testing.T) {
	assert.NoError(t, WriteError("insert", "Product", "id", "x", nil))

	cause := errors.New("connection reset")
	err := WriteError("insert", "Product", "id", "x", cause)
	assert.ErrorIs(t, err, cause)
	assert.False(t, apperror.IsAppError(err))

	other := WriteError("insert", "Product", "id", "x", &pgconn.PgError{Code: "57014"})
	assert.False(t, apperror.IsAppError(other))
}
