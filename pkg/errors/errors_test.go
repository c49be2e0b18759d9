// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package errors_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

func TestCodeOf(t *testing.T) {
	err := ocerr.New(ocerr.CodeStoreInvalidInput, "boom")
	assert.Equal(t, ocerr.CodeStoreInvalidInput, ocerr.CodeOf(err))

	err = ocerr.Errorf(ocerr.CodeStoreDatabaseFailure, "query failed: %w", errors.New("disk full"))
	assert.Equal(t, ocerr.CodeStoreDatabaseFailure, ocerr.CodeOf(err))

	assert.Equal(t, ocerr.Code(""), ocerr.CodeOf(errors.New("uncoded")))
	assert.Equal(t, ocerr.Code(""), ocerr.CodeOf(nil))
}

func TestWrapf(t *testing.T) {
	inner := errors.New("connection refused")
	err := ocerr.Wrapf(inner, ocerr.CodeProviderUnavailable, "embedding with %s", "nomic")
	require.Error(t, err)
	assert.Equal(t, ocerr.CodeProviderUnavailable, ocerr.CodeOf(err))
	assert.ErrorIs(t, err, inner)

	assert.NoError(t, ocerr.Wrapf(nil, ocerr.CodeProviderUnavailable, "never happens"))
}

func TestHasCode(t *testing.T) {
	err := ocerr.New(ocerr.CodeBackupCopyFailure, "scp failed")
	assert.True(t, ocerr.HasCode(err, ocerr.CodeBackupCopyFailure))
	assert.False(t, ocerr.HasCode(err, ocerr.CodeExportWriteFailure))
	assert.False(t, ocerr.HasCode(nil, ocerr.CodeBackupCopyFailure))
}

func TestClassification(t *testing.T) {
	unavailable := ocerr.New(ocerr.CodeProviderUnavailable, "daemon down")
	assert.True(t, ocerr.IsUnavailable(unavailable))
	assert.True(t, ocerr.IsProviderFailure(unavailable))

	// A bad response is a provider failure too, but not unavailability.
	badResponse := ocerr.New(ocerr.CodeProviderResponseInvalid, "no embedding")
	assert.False(t, ocerr.IsUnavailable(badResponse))
	assert.True(t, ocerr.IsProviderFailure(badResponse))

	invalid := ocerr.New(ocerr.CodeStoreInvalidInput, "bad cell type")
	assert.True(t, ocerr.IsInvalidInput(invalid))
	assert.False(t, ocerr.IsProviderFailure(invalid))
	assert.True(t, ocerr.IsInvalidInput(ocerr.New(ocerr.CodeConfigValidateInvalidValue, "bad factor")))

	storage := ocerr.New(ocerr.CodeStoreDatabaseFailure, "disk gone")
	assert.False(t, ocerr.IsUnavailable(storage))
	assert.False(t, ocerr.IsInvalidInput(storage))
	assert.False(t, ocerr.IsProviderFailure(errors.New("uncoded")))
}
