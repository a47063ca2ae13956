package record

import "testing"

func createTestCollection() Collection {
	return Collection{
		{Name: "Alice Park", Date: "2025-05-10", Trophy: TrophyClubChampion, Course: "Pine Hollow", Score: 71},
		{Name: "Ben Ito", Date: "2025-05-10", Trophy: TrophyRunnerUp, Course: "Pine Hollow", Score: 74},
		{Name: "Alice Park", Date: "2025-06-14", Trophy: TrophyLowNet, Course: "Heather Glen", Score: 69, History: "playoff win"},
	}
}

func TestValidate_Valid(t *testing.T) {
	rec := Record{Name: "Alice Park", Date: "2025-05-10", Trophy: TrophyClubChampion, Course: "Pine Hollow", Score: 71}
	if err := Validate(rec); err != nil {
		t.Errorf("expected valid record, got error: %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{"missing name", Record{Date: "2025-05-10", Trophy: TrophyLowNet, Course: "Pine Hollow", Score: 71}},
		{"bad date format", Record{Name: "Alice", Date: "10/05/2025", Trophy: TrophyLowNet, Course: "Pine Hollow", Score: 71}},
		{"unknown trophy", Record{Name: "Alice", Date: "2025-05-10", Trophy: "participation", Course: "Pine Hollow", Score: 71}},
		{"missing course", Record{Name: "Alice", Date: "2025-05-10", Trophy: TrophyLowNet, Score: 71}},
		{"missing score", Record{Name: "Alice", Date: "2025-05-10", Trophy: TrophyLowNet, Course: "Pine Hollow"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.rec); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidate_DuplicatesAccepted(t *testing.T) {
	// No uniqueness constraint: the same player/date/trophy may repeat.
	rec := Record{Name: "Alice Park", Date: "2025-05-10", Trophy: TrophyClubChampion, Course: "Pine Hollow", Score: 71}
	if err := Validate(rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate(rec); err != nil {
		t.Errorf("duplicate record should validate: %v", err)
	}
}

func TestClone_Isolation(t *testing.T) {
	original := createTestCollection()
	cloned, err := Clone(original)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cloned) != len(original) {
		t.Fatalf("expected %d records, got %d", len(original), len(cloned))
	}

	cloned[0].Name = "modified"
	if original[0].Name == "modified" {
		t.Error("modifying clone should not affect original")
	}
}

func TestClone_Nil(t *testing.T) {
	cloned, err := Clone(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cloned == nil || len(cloned) != 0 {
		t.Errorf("expected empty collection, got %v", cloned)
	}
}

func TestEqual(t *testing.T) {
	a := createTestCollection()
	b := createTestCollection()

	if !Equal(a, b) {
		t.Error("identical collections should be equal")
	}

	b[1].Score = 99
	if Equal(a, b) {
		t.Error("collections with different scores should not be equal")
	}

	// Order matters
	c := Collection{a[1], a[0], a[2]}
	if Equal(a, c) {
		t.Error("reordered collections should not be equal")
	}
}

func TestStats(t *testing.T) {
	stats := Stats(createTestCollection())

	if len(stats) != 2 {
		t.Fatalf("expected 2 players, got %d", len(stats))
	}

	// Alice has 2 wins, sorted first
	alice := stats[0]
	if alice.Name != "Alice Park" {
		t.Fatalf("expected Alice Park first, got %s", alice.Name)
	}
	if alice.TotalWins != 2 {
		t.Errorf("expected 2 wins, got %d", alice.TotalWins)
	}
	if alice.Trophies[TrophyClubChampion] != 1 || alice.Trophies[TrophyLowNet] != 1 {
		t.Errorf("unexpected trophy counts: %v", alice.Trophies)
	}
	if alice.BestScore != 69 {
		t.Errorf("expected best score 69, got %d", alice.BestScore)
	}
	if alice.AverageScore != 70 {
		t.Errorf("expected average score 70, got %v", alice.AverageScore)
	}
}

func TestStats_Empty(t *testing.T) {
	stats := Stats(Collection{})
	if len(stats) != 0 {
		t.Errorf("expected no stats for empty collection, got %d", len(stats))
	}
}
