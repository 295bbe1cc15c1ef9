package backup

import (
	"strings"
	"testing"
	"time"

	"bahikhata/backend/internal/domain"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	when := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	archive := domain.BackupArchive{
		Customers: []domain.Customer{
			{ID: "cus-1", UserID: "usr-1", Name: "Asha", CreatedAt: when},
		},
		Transactions: []domain.Transaction{
			{ID: "txn-1", CustomerID: "cus-1", UserID: "usr-1", Amount: 500, Kind: domain.KindGave, Date: when, CreatedAt: when},
		},
	}

	artifact, err := Encode(archive)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.ContainsAny(artifact, "{}\n") {
		t.Fatalf("artifact is not opaque text: %q", artifact)
	}

	decoded, err := Decode(artifact)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded.Customers) != 1 || decoded.Customers[0].Name != "Asha" {
		t.Fatalf("customers did not survive round trip: %+v", decoded.Customers)
	}
	if len(decoded.Transactions) != 1 || decoded.Transactions[0].Amount != 500 {
		t.Fatalf("transactions did not survive round trip: %+v", decoded.Transactions)
	}
	if !decoded.Transactions[0].Date.Equal(when) {
		t.Fatalf("date changed: got %v want %v", decoded.Transactions[0].Date, when)
	}
}

func TestEncodePreservesPasswordHash(t *testing.T) {
	archive := domain.BackupArchive{
		Users: []domain.User{
			{ID: "usr-1", Email: "shop@example.com", Password: "$2a$10$N9qo8uLOickgx2ZMRZoMye"},
		},
	}

	artifact, err := Encode(archive)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(artifact)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded.Users) != 1 {
		t.Fatalf("users did not survive round trip: %+v", decoded.Users)
	}
	if got := decoded.Users[0].Password; got != archive.Users[0].Password {
		t.Fatalf("password hash lost in round trip: got %q", got)
	}
}

func TestDecodeMissingCollectionsComeBackEmpty(t *testing.T) {
	artifact, err := Encode(domain.BackupArchive{})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(artifact)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.Users == nil || decoded.Customers == nil || decoded.Transactions == nil ||
		decoded.SaleBills == nil || decoded.Reminders == nil || decoded.Expenses == nil ||
		decoded.Inventory == nil {
		t.Fatalf("expected empty slices, got nils: %+v", decoded)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode("not a backup at all!"); err == nil {
		t.Fatal("expected error for non-base64 input")
	}
	// Valid base64 that is not gzip.
	if _, err := Decode("aGVsbG8gd29ybGQ="); err == nil {
		t.Fatal("expected error for non-gzip payload")
	}
}

func TestFilenameConvention(t *testing.T) {
	when := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	got := Filename(when)
	if got != "ledger-backup-2024-03-10.dlb" {
		t.Fatalf("unexpected filename %q", got)
	}
}
