// SPDX-License-Identifier: MIT

package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptionKeyIsStableWithinOneDay(t *testing.T) {
	morning := time.Date(2025, 3, 14, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 3, 14, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, EncryptionKey("alice", morning), EncryptionKey("alice", evening))
}

func TestEncryptionKeyDiffersAcrossDays(t *testing.T) {
	day1 := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	assert.NotEqual(t, EncryptionKey("alice", day1), EncryptionKey("alice", day2))
}

func TestEncryptionKeyDiffersAcrossUsers(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	assert.NotEqual(t, EncryptionKey("alice", now), EncryptionKey("bob", now))
}

func TestEncryptionKeyIsUppercaseUUID(t *testing.T) {
	key := EncryptionKey("alice", time.Now())
	assert.Equal(t, strings.ToUpper(key), key)
	assert.Len(t, key, 36)
	assert.Equal(t, 4, strings.Count(key, "-"))
}

func TestEncryptionKeyRespectsUTCRollover(t *testing.T) {
	// 2025-03-14 23:30 in UTC+8 is still 2025-03-14 15:30 UTC.
	taipei := time.FixedZone("CST", 8*3600)
	local := time.Date(2025, 3, 14, 23, 30, 0, 0, taipei)
	utc := time.Date(2025, 3, 14, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, EncryptionKey("alice", utc), EncryptionKey("alice", local))
}

func TestDerive(t *testing.T) {
	now := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	m, err := Derive("alice", now)
	require.NoError(t, err)
	assert.NotEmpty(t, m.EncKey)

	// The signature is a base64-encoded SHA-512 digest: 64 bytes raw.
	raw, err := base64.StdEncoding.DecodeString(m.Signature)
	require.NoError(t, err)
	assert.Len(t, raw, 64)
}

func TestDeriveSignatureChangesDaily(t *testing.T) {
	day1, err := Derive("alice", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	day2, err := Derive("alice", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.NotEqual(t, day1.Signature, day2.Signature)
}

func TestPKCS7Unpad(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    []byte
		wantErr bool
	}{
		{"valid", []byte{'a', 'b', 'c', 5, 5, 5, 5, 5}, []byte("abc"), false},
		{"full block of padding", []byte{8, 8, 8, 8, 8, 8, 8, 8}, []byte{}, false},
		{"zero pad byte", []byte{'a', 'b', 'c', 'd', 'e', 'f', 'g', 0}, nil, true},
		{"pad larger than block", []byte{'a', 'b', 'c', 'd', 'e', 'f', 'g', 9}, nil, true},
		{"inconsistent padding", []byte{'a', 'b', 'c', 4, 3, 3, 3, 3}, nil, true},
		{"empty", []byte{}, nil, true},
		{"not block aligned", []byte{1, 2, 3}, nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := pkcs7Unpad(tc.data, 8)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrBadPadding)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
