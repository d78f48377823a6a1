package database

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestOpenSQLiteMigratesIdentitySchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.db")

	db, err := OpenSQLite(path, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access underlying connection: %v", err)
	}
	defer sqlDB.Close()

	if !db.Migrator().HasTable("user_identities") {
		t.Fatalf("expected user_identities table after migration")
	}
	for _, column := range []string{"password_hash", "refresh_token", "avatar_url"} {
		if !db.Migrator().HasColumn("user_identities", column) {
			t.Fatalf("expected column %q on user_identities", column)
		}
	}
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite("", zap.NewNop()); err == nil {
		t.Fatalf("expected error for empty database path")
	}
}
