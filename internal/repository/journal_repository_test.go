package repository

import (
	"reflect"
	"testing"
	"time"

	"medmind/internal/models"
)

func TestJournalRepository_CreateAndGetByDate(t *testing.T) {
	db := setupTestDB(t)

	profile := createTestProfile(t, db, "Ruth")
	repo := NewJournalRepository(db)

	mood := 7
	entry := &models.JournalEntry{
		UserID:      profile.ID,
		EntryDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Symptoms:    []string{"headache", "fatigue"},
		Notes:       "Felt tired after lunch",
		MoodRating:  &mood,
		SideEffects: []string{"dry mouth"},
	}
	if err := repo.Create(entry); err != nil {
		t.Fatalf("Failed to create journal entry: %v", err)
	}
	if entry.ID == "" {
		t.Error("Expected non-empty ID after creation")
	}

	retrieved, err := repo.GetByDate(profile.ID, time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Failed to retrieve journal entry by date: %v", err)
	}
	if retrieved.ID != entry.ID {
		t.Errorf("Expected entry %s, got %s", entry.ID, retrieved.ID)
	}
	if retrieved.EntryDate.Format("2006-01-02") != "2026-03-10" {
		t.Errorf("Entry date did not round-trip, got %v", retrieved.EntryDate)
	}
	if !reflect.DeepEqual(retrieved.Symptoms, entry.Symptoms) {
		t.Errorf("Symptoms did not round-trip, got %v", retrieved.Symptoms)
	}
	if !reflect.DeepEqual(retrieved.SideEffects, entry.SideEffects) {
		t.Errorf("Side effects did not round-trip, got %v", retrieved.SideEffects)
	}
	if retrieved.MoodRating == nil || *retrieved.MoodRating != 7 {
		t.Errorf("Mood rating did not round-trip, got %v", retrieved.MoodRating)
	}
}

func TestJournalRepository_GetByDate_NotFound(t *testing.T) {
	db := setupTestDB(t)

	profile := createTestProfile(t, db, "Ruth")
	repo := NewJournalRepository(db)

	_, err := repo.GetByDate(profile.ID, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	if err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestJournalRepository_ListByRange(t *testing.T) {
	db := setupTestDB(t)

	profile := createTestProfile(t, db, "Ruth")
	other := createTestProfile(t, db, "Frank")
	repo := NewJournalRepository(db)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := &models.JournalEntry{
			UserID:    profile.ID,
			EntryDate: base.AddDate(0, 0, i),
			Notes:     "day entry",
		}
		if err := repo.Create(entry); err != nil {
			t.Fatalf("Failed to create journal entry: %v", err)
		}
	}
	// Another user's entry inside the range must not leak
	if err := repo.Create(&models.JournalEntry{
		UserID:    other.ID,
		EntryDate: base.AddDate(0, 0, 2),
	}); err != nil {
		t.Fatalf("Failed to create journal entry: %v", err)
	}

	entries, err := repo.ListByRange(profile.ID, base.AddDate(0, 0, 1), base.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("Failed to list journal entries by range: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries in range, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].EntryDate.After(entries[i-1].EntryDate) {
			t.Error("Range listing is not in descending date order")
		}
	}
	for _, entry := range entries {
		if entry.UserID != profile.ID {
			t.Errorf("Listing leaked another user's entry %s", entry.ID)
		}
	}
}

func TestJournalRepository_Update(t *testing.T) {
	db := setupTestDB(t)

	profile := createTestProfile(t, db, "Ruth")
	repo := NewJournalRepository(db)

	entry := &models.JournalEntry{
		UserID:    profile.ID,
		EntryDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Notes:     "initial",
	}
	if err := repo.Create(entry); err != nil {
		t.Fatalf("Failed to create journal entry: %v", err)
	}

	mood := 4
	entry.Notes = "revised"
	entry.MoodRating = &mood
	entry.Symptoms = []string{"nausea"}
	entry.CaregiverAlerted = true
	if err := repo.Update(entry); err != nil {
		t.Fatalf("Failed to update journal entry: %v", err)
	}

	retrieved, err := repo.GetByID(entry.ID)
	if err != nil {
		t.Fatalf("Failed to retrieve journal entry: %v", err)
	}
	if retrieved.Notes != "revised" {
		t.Errorf("Expected revised notes, got %q", retrieved.Notes)
	}
	if retrieved.MoodRating == nil || *retrieved.MoodRating != 4 {
		t.Errorf("Expected mood rating 4, got %v", retrieved.MoodRating)
	}
	if !reflect.DeepEqual(retrieved.Symptoms, []string{"nausea"}) {
		t.Errorf("Expected updated symptoms, got %v", retrieved.Symptoms)
	}
	if !retrieved.CaregiverAlerted {
		t.Error("Expected caregiver alerted to be set")
	}
}

func TestJournalRepository_Update_NotFound(t *testing.T) {
	db := setupTestDB(t)

	repo := NewJournalRepository(db)
	entry := &models.JournalEntry{
		ID:        "no-such-entry",
		EntryDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	if err := repo.Update(entry); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
