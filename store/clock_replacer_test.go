package store

import (
	"testing"
)

func TestClockReplacer_Victim(t *testing.T) {
	replacer := NewClockReplacer(7)

	for _, id := range []FrameID{1, 2, 3, 4, 5, 6} {
		replacer.Add(id)
	}
	if replacer.Size() != 6 {
		t.Errorf("Actual size = %d, Expected == 6", replacer.Size())
	}

	victim := replacer.Victim()
	if victim == nil || *victim != 1 {
		t.Errorf("Actual victim = %v, Expected == 1", victim)
	}

	replacer.Add(1)

	victim = replacer.Victim()
	if victim == nil || *victim != 2 {
		t.Errorf("Actual victim = %v, Expected == 2", victim)
	}
	victim = replacer.Victim()
	if victim == nil || *victim != 3 {
		t.Errorf("Actual victim = %v, Expected == 3", victim)
	}

	replacer.Remove(4)

	victim = replacer.Victim()
	if victim == nil || *victim != 5 {
		t.Errorf("Actual victim = %v, Expected == 5", victim)
	}

	if replacer.Size() != 2 {
		t.Errorf("Actual size = %d, Expected == 2", replacer.Size())
	}
}

func TestClockReplacer_SecondChance(t *testing.T) {
	replacer := NewClockReplacer(3)

	replacer.Add(0)
	replacer.Add(1)
	replacer.Add(2)
	// re-adding 0 raises its reference bit and buys it a second chance
	replacer.Add(0)

	victim := replacer.Victim()
	if victim == nil || *victim != 1 {
		t.Errorf("Actual victim = %v, Expected == 1", victim)
	}

	victim = replacer.Victim()
	if victim == nil || *victim != 2 {
		t.Errorf("Actual victim = %v, Expected == 2", victim)
	}

	// 0's bit was lowered during the first sweep, so it goes now
	victim = replacer.Victim()
	if victim == nil || *victim != 0 {
		t.Errorf("Actual victim = %v, Expected == 0", victim)
	}

	victim = replacer.Victim()
	if victim != nil {
		t.Errorf("Actual victim = %d, Expected == nil", *victim)
	}
}

func TestClockReplacer_AllReferenced(t *testing.T) {
	replacer := NewClockReplacer(3)

	for _, id := range []FrameID{0, 1, 2} {
		replacer.Add(id)
		replacer.Add(id)
	}

	// every bit is raised; the sweep lowers them all and falls back to the
	// first candidate passed
	victim := replacer.Victim()
	if victim == nil || *victim != 0 {
		t.Errorf("Actual victim = %v, Expected == 0", victim)
	}

	victim = replacer.Victim()
	if victim == nil || *victim != 1 {
		t.Errorf("Actual victim = %v, Expected == 1", victim)
	}
}

func TestClockReplacer_Empty(t *testing.T) {
	replacer := NewClockReplacer(4)

	if victim := replacer.Victim(); victim != nil {
		t.Errorf("Actual victim = %d, Expected == nil", *victim)
	}
	if replacer.Size() != 0 {
		t.Errorf("Actual size = %d, Expected == 0", replacer.Size())
	}
}

func TestClockReplacer_OutOfRange(t *testing.T) {
	replacer := NewClockReplacer(2)

	// out-of-range IDs are ignored
	replacer.Add(17)
	replacer.Remove(17)

	if replacer.Size() != 0 {
		t.Errorf("Actual size = %d, Expected == 0", replacer.Size())
	}
}

func TestClockReplacer_RemoveIdempotent(t *testing.T) {
	replacer := NewClockReplacer(3)

	replacer.Add(1)
	replacer.Remove(1)
	replacer.Remove(1)

	if replacer.Size() != 0 {
		t.Errorf("Actual size = %d, Expected == 0", replacer.Size())
	}
	if victim := replacer.Victim(); victim != nil {
		t.Errorf("Actual victim = %d, Expected == nil", *victim)
	}
}
