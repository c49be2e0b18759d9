// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OC-Memory Contributors

package export

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	ocerr "github.com/sam-ueckert/oc-memory/pkg/errors"
)

const (
	mkdirTimeout = 10 * time.Second
	copyTimeout  = 30 * time.Second
)

// BackupSQLite copies the database file to an scp destination of the
// form "user@host:/path". The remote directory is created first so a
// fresh host works on the first run. Shells out to ssh/scp so the
// user's keys and ssh config apply unchanged.
func BackupSQLite(ctx context.Context, dbPath, remote string) error {
	if strings.TrimSpace(remote) == "" {
		return ocerr.New(ocerr.CodeBackupCopyFailure, "no backup remote configured")
	}

	host, dir, ok := strings.Cut(remote, ":")
	if !ok || host == "" || dir == "" {
		return ocerr.Errorf(ocerr.CodeBackupCopyFailure, "backup remote must look like user@host:/path, got %q", remote)
	}

	if _, err := os.Stat(dbPath); err != nil {
		return ocerr.Errorf(ocerr.CodeBackupCopyFailure, "database not found at %s: %w", dbPath, err)
	}

	mkdirCtx, cancel := context.WithTimeout(ctx, mkdirTimeout)
	defer cancel()
	if out, err := exec.CommandContext(mkdirCtx, "ssh", host, "mkdir", "-p", dir).CombinedOutput(); err != nil {
		return ocerr.Errorf(ocerr.CodeBackupCopyFailure, "preparing remote directory: %w: %s", err, strings.TrimSpace(string(out)))
	}

	copyCtx, cancel := context.WithTimeout(ctx, copyTimeout)
	defer cancel()
	if out, err := exec.CommandContext(copyCtx, "scp", dbPath, remote).CombinedOutput(); err != nil {
		return ocerr.Errorf(ocerr.CodeBackupCopyFailure, "copying database: %w: %s", err, strings.TrimSpace(string(out)))
	}

	return nil
}
