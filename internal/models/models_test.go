package models

import "testing"

func TestCacheLookups(t *testing.T) {
	cache := NewCache()
	cache.Users = []User{{ID: 1, Identifier: "alice"}, {ID: 2, Identifier: "bob"}}
	cache.AccessWindows = []AccessWindow{
		{UserID: 1, DayOfWeek: 0, StartTime: "09:00", EndTime: "17:00"},
		{UserID: 2, DayOfWeek: 1, StartTime: "08:00", EndTime: "12:00"},
		{UserID: 1, DayOfWeek: 4, StartTime: "10:00", EndTime: "16:00"},
	}

	if user := cache.UserByID(2); user == nil || user.Identifier != "bob" {
		t.Errorf("UserByID(2) = %+v, want bob", user)
	}
	if user := cache.UserByID(99); user != nil {
		t.Errorf("UserByID(99) = %+v, want nil", user)
	}

	if windows := cache.WindowsForUser(1); len(windows) != 2 {
		t.Errorf("WindowsForUser(1) = %d windows, want 2", len(windows))
	}
	if windows := cache.WindowsForUser(3); windows != nil {
		t.Errorf("WindowsForUser(3) = %+v, want nil", windows)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	threshold := 0.7
	original := NewCache()
	original.Users = []User{{ID: 1, Identifier: "alice"}}
	original.Embeddings = []Enrollment{{PersonName: "alice", Vector: []float32{1, 0}, ModelName: "m"}}
	original.Config = &RemoteConfig{Threshold: &threshold}

	clone := original.Clone()
	clone.Users[0].Identifier = "mallory"
	clone.Embeddings = append(clone.Embeddings, Enrollment{PersonName: "extra"})
	other := 0.9
	clone.Config.Threshold = &other

	if original.Users[0].Identifier != "alice" {
		t.Error("clone mutation leaked into original users")
	}
	if len(original.Embeddings) != 1 {
		t.Error("clone append leaked into original embeddings")
	}
	if *original.Config.Threshold != 0.7 {
		t.Error("clone mutation leaked into original config")
	}
}
