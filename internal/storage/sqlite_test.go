package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenSQLiteCreatesSchema(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "state", "parley.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"accounts", "settings"} {
		var name string
		err := db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type='table' AND name=?;`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestOpenSQLiteEmptyPath(t *testing.T) {
	if _, err := OpenSQLite(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "parley.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()

	_, ok, err := GetSetting(ctx, db, "currency_name")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if ok {
		t.Fatal("expected missing key")
	}

	if err := PutSetting(ctx, db, "currency_name", "doubloons"); err != nil {
		t.Fatalf("PutSetting: %v", err)
	}
	if err := PutSetting(ctx, db, "currency_name", "groats"); err != nil {
		t.Fatalf("PutSetting overwrite: %v", err)
	}

	got, ok, err := GetSetting(ctx, db, "currency_name")
	if err != nil || !ok {
		t.Fatalf("GetSetting after put: ok=%v err=%v", ok, err)
	}
	if got != "groats" {
		t.Errorf("expected overwritten value, got %q", got)
	}
}
