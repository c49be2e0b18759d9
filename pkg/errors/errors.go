// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

// Package errors provides coded errors for oc-memory built on samber/oops.
// Codes are dotted paths whose last segment is the machine-readable reason
// (unavailable, invalid_input, failure), so classification helpers work
// without enumerating every code.
package errors

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeStoreDatabaseFailure Code = "store.database.failure"
	CodeStoreInvalidInput    Code = "store.invalid_input"

	CodeProviderUnavailable     Code = "provider.upstream.unavailable"
	CodeProviderResponseInvalid Code = "provider.response.invalid"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeExportWriteFailure   Code = "export.write.failure"
	CodeExportRestoreInvalid Code = "export.restore.invalid_input"
	CodeBackupCopyFailure    Code = "export.backup.copy.failure"

	CodeCLIInputInvalid Code = "cli.input.invalid_input"
)

func New(code Code, msg string) error {
	return oops.Code(string(code)).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(string(code)).Errorf(format, args...)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(string(code)).Wrapf(err, format, args...)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// IsUnavailable reports whether err is a provider-unavailable condition;
// callers are expected to degrade (keyword fallback, local summary)
// rather than propagate.
func IsUnavailable(err error) bool {
	return reason(CodeOf(err)) == "unavailable"
}

// IsProviderFailure reports whether err originated in a model provider,
// whatever the reason. Provider failures are always recovered locally
// with a documented fallback, never propagated as hard errors.
func IsProviderFailure(err error) bool {
	return strings.HasPrefix(string(CodeOf(err)), "provider.")
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value"
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
