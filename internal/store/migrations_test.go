package store

import "testing"

func TestMigrationsApplyAll(t *testing.T) {
	db := testDB(t)

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	want := migrations[len(migrations)-1].Version
	if v != want {
		t.Errorf("schema version = %d, want %d", v, want)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := testDB(t)

	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if want := migrations[len(migrations)-1].Version; v != want {
		t.Errorf("schema version after re-migrate = %d, want %d", v, want)
	}
}
