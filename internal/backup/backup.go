// Package backup encodes the full ledger state into a portable text
// artifact: the JSON union of every collection, gzip-compressed and
// base64-encoded so it survives copy-paste and messaging apps.
package backup

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"bahikhata/backend/internal/domain"
)

// Extension is the file extension for backup artifacts.
const Extension = ".dlb"

// Filename returns the conventional artifact name for a backup taken at t,
// e.g. "ledger-backup-2026-08-29.dlb".
func Filename(t time.Time) string {
	return fmt.Sprintf("ledger-backup-%s%s", t.Format("2006-01-02"), Extension)
}

// Encode serializes the archive to the portable artifact text.
func Encode(archive domain.BackupArchive) (string, error) {
	raw, err := json.Marshal(archive)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode. Collections missing from the payload come back as
// empty slices rather than nil so a restore always overwrites every key.
func Decode(artifact string) (*domain.BackupArchive, error) {
	compressed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(artifact))
	if err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}
	raw, err := io.ReadAll(zr)
	if cerr := zr.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}

	var archive domain.BackupArchive
	if err := json.Unmarshal(raw, &archive); err != nil {
		return nil, fmt.Errorf("decode backup: %w", err)
	}

	if archive.Users == nil {
		archive.Users = []domain.User{}
	}
	if archive.Customers == nil {
		archive.Customers = []domain.Customer{}
	}
	if archive.Transactions == nil {
		archive.Transactions = []domain.Transaction{}
	}
	if archive.SaleBills == nil {
		archive.SaleBills = []domain.SaleBill{}
	}
	if archive.Reminders == nil {
		archive.Reminders = []domain.Reminder{}
	}
	if archive.Expenses == nil {
		archive.Expenses = []domain.Expense{}
	}
	if archive.Inventory == nil {
		archive.Inventory = []domain.InventoryItem{}
	}
	return &archive, nil
}
