package reporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"copcam-go/internal/models"
)

func newTestDB(t *testing.T) *PersonDB {
	t.Helper()
	db, err := LoadPersonDB(filepath.Join(t.TempDir(), "face_database.json"))
	if err != nil {
		t.Fatalf("LoadPersonDB: %v", err)
	}
	return db
}

func TestPersonDBFirstSeenImmutable(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if err := db.AddPerson(models.PersonRecord{PersonID: "CRIM_001", Name: "ayush", Category: models.CategoryCriminal}); err != nil {
		t.Fatalf("AddPerson: %v", err)
	}

	if err := db.UpdateLastSeen("CRIM_001", "2026-08-28T10:00:00Z"); err != nil {
		t.Fatalf("UpdateLastSeen: %v", err)
	}
	if err := db.UpdateLastSeen("CRIM_001", "2026-08-28T10:00:10Z"); err != nil {
		t.Fatalf("UpdateLastSeen: %v", err)
	}

	rec, ok := db.Get("CRIM_001")
	if !ok {
		t.Fatal("expected record")
	}
	if rec.FirstSeen != "2026-08-28T10:00:00Z" {
		t.Fatalf("first_seen must stay at the first timestamp, got %s", rec.FirstSeen)
	}
	if rec.LastSeen != "2026-08-28T10:00:10Z" {
		t.Fatalf("last_seen must move to the latest timestamp, got %s", rec.LastSeen)
	}
}

func TestPersonDBUpdateUnknownPerson(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if err := db.UpdateLastSeen("CRIM_999", "2026-08-28T10:00:00Z"); err == nil {
		t.Fatal("expected error updating a person that was never added")
	}
}

func TestPersonDBAddDoesNotClobberExisting(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if err := db.AddPerson(models.PersonRecord{PersonID: "CRIM_001", Name: "ayush", ImagePath: "faces/CRIM_001_cam_01.jpg"}); err != nil {
		t.Fatal(err)
	}
	if err := db.AddPerson(models.PersonRecord{PersonID: "CRIM_001", Name: "ayush", ImagePath: "faces/other.jpg"}); err != nil {
		t.Fatal(err)
	}

	rec, _ := db.Get("CRIM_001")
	if rec.ImagePath != "faces/CRIM_001_cam_01.jpg" {
		t.Fatalf("first-sighting image path must survive re-adds, got %s", rec.ImagePath)
	}
}

func TestPersonDBPersistsEveryMutation(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "db", "face_database.json")
	db, err := LoadPersonDB(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := db.AddPerson(models.PersonRecord{PersonID: "POLICE_001", Name: "officer_khan", Category: models.CategoryPolice}); err != nil {
		t.Fatal(err)
	}
	if err := db.UpdateLastSeen("POLICE_001", "2026-08-28T09:00:00Z"); err != nil {
		t.Fatal(err)
	}

	// The file on disk reflects the mutation immediately
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected database file written: %v", err)
	}
	var onDisk map[string]models.PersonRecord
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("unmarshal on-disk database: %v", err)
	}
	if onDisk["POLICE_001"].LastSeen != "2026-08-28T09:00:00Z" {
		t.Fatalf("on-disk record stale: %+v", onDisk["POLICE_001"])
	}

	// A fresh load sees the same state
	reloaded, err := LoadPersonDB(path)
	if err != nil {
		t.Fatal(err)
	}
	rec, ok := reloaded.Get("POLICE_001")
	if !ok || rec.FirstSeen != "2026-08-28T09:00:00Z" {
		t.Fatalf("reload mismatch: %+v (ok=%v)", rec, ok)
	}
}

func TestPersonDBPartitionsByCategory(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	db.AddPerson(models.PersonRecord{PersonID: "CRIM_001", Name: "ayush", Category: models.CategoryCriminal})
	db.AddPerson(models.PersonRecord{PersonID: "POLICE_001", Name: "officer_khan", Category: models.CategoryPolice})

	criminals := db.Criminals()
	police := db.Police()
	if len(criminals) != 1 || len(police) != 1 {
		t.Fatalf("expected 1 criminal and 1 police record, got %d and %d", len(criminals), len(police))
	}
	if _, ok := criminals["CRIM_001"]; !ok {
		t.Fatal("CRIM_001 missing from criminals partition")
	}
	if _, ok := police["POLICE_001"]; !ok {
		t.Fatal("POLICE_001 missing from police partition")
	}
}
