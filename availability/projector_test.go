package availability

import (
	"testing"
	"time"

	"mentra/models"
	"mentra/slotgen"
)

func TestFilterByNotice(t *testing.T) {
	loc := time.UTC
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, loc)
	slots := []models.Slot{
		{StartMin: 540, EndMin: 600},   // 9 AM
		{StartMin: 840, EndMin: 900},   // 2 PM
		{StartMin: 1020, EndMin: 1080}, // 5 PM
	}

	// 8 AM same day with 4 hours notice: the 9 AM slot is too soon
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, loc)
	kept := FilterByNotice(date, slots, now, 4, loc)
	if len(kept) != 2 {
		t.Fatalf("expected 2 slots past the notice cutoff, got %d", len(kept))
	}
	if kept[0].StartMin != 840 {
		t.Errorf("first kept slot should be 2 PM, got %v", kept[0])
	}
}

func TestFilterByNoticeBoundary(t *testing.T) {
	loc := time.UTC
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, loc)
	slots := []models.Slot{{StartMin: 600, EndMin: 660}} // 10 AM

	// Exactly at the cutoff counts as bookable
	now := time.Date(2025, 6, 2, 6, 0, 0, 0, loc)
	if kept := FilterByNotice(date, slots, now, 4, loc); len(kept) != 1 {
		t.Error("slot starting exactly at now+notice must be kept")
	}

	// One minute inside the notice window is not
	now = now.Add(time.Minute)
	if kept := FilterByNotice(date, slots, now, 4, loc); len(kept) != 0 {
		t.Error("slot inside the notice window must be dropped")
	}
}

func TestFilterByNoticeZeroHours(t *testing.T) {
	loc := time.UTC
	date := time.Date(2025, 6, 2, 0, 0, 0, 0, loc)
	slots := []models.Slot{{StartMin: 540, EndMin: 600}}

	past := time.Date(2025, 6, 1, 0, 0, 0, 0, loc)
	if kept := FilterByNotice(date, slots, past, 0, loc); len(kept) != 1 {
		t.Error("future slot with zero notice must be kept")
	}

	later := time.Date(2025, 6, 2, 12, 0, 0, 0, loc)
	if kept := FilterByNotice(date, slots, later, 0, loc); len(kept) != 0 {
		t.Error("past slot must be dropped even with zero notice")
	}
}

func TestRemoveSignature(t *testing.T) {
	bucket := []models.Slot{
		{StartMin: 540, EndMin: 600},
		{StartMin: 600, EndMin: 660},
		{StartMin: 660, EndMin: 720},
	}

	got := removeSignature(bucket, models.Slot{StartMin: 600, EndMin: 660})
	if len(got) != 2 {
		t.Fatalf("expected 2 slots after removal, got %d", len(got))
	}
	for _, s := range got {
		if s.StartMin == 600 {
			t.Error("removed signature still present")
		}
	}

	// Removing a missing signature is a no-op
	got = removeSignature(got, models.Slot{StartMin: 600, EndMin: 660})
	if len(got) != 2 {
		t.Error("removing an absent signature must not change the bucket")
	}

	// Original bucket must not be mutated
	if len(bucket) != 3 {
		t.Error("removeSignature must not mutate its input")
	}
}

func TestRegeneratedInventoryMatchesTemplate(t *testing.T) {
	raw := []models.TimeRange{{StartMin: 540, EndMin: 720}}
	slots := slotgen.ExpandRawSlots(raw, 60)
	if len(slots) != 3 {
		t.Fatalf("9 AM-12 PM at 60 minutes should yield 3 slots, got %d", len(slots))
	}
	if slots[2].EndMin != 720 {
		t.Errorf("last slot should end at 12 PM, got %d", slots[2].EndMin)
	}
}
