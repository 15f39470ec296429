package api

import (
	"sync"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestNewClient_NoAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewClient(ClientConfig{})
	if err == nil {
		t.Error("expected error when no API key is available")
	}
}

func TestNewClient_DefaultModel(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	client, err := NewClient(ClientConfig{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.Model() != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("default model = %q", client.Model())
	}
	if client.Tracker() == nil {
		t.Error("tracker should not be nil")
	}
}

func TestTranslateModelForBedrock(t *testing.T) {
	got := translateModelForBedrock(anthropic.ModelClaudeSonnet4_20250514)
	if got != "us.anthropic.claude-sonnet-4-20250514-v1:0" {
		t.Errorf("translated = %q", got)
	}

	// Unknown models pass through unchanged.
	custom := anthropic.Model("us.anthropic.custom-v1:0")
	if translateModelForBedrock(custom) != custom {
		t.Error("unknown model should pass through")
	}
}

func TestTokenTracker(t *testing.T) {
	tracker := NewTokenTracker()

	tracker.Add(100, 50)
	tracker.Add(200, 25)

	input, output := tracker.Total()
	if input != 300 || output != 75 {
		t.Errorf("Total() = (%d, %d), want (300, 75)", input, output)
	}
	if tracker.Calls() != 2 {
		t.Errorf("Calls() = %d, want 2", tracker.Calls())
	}

	tracker.Reset()
	input, output = tracker.Total()
	if input != 0 || output != 0 || tracker.Calls() != 0 {
		t.Error("Reset should clear all counters")
	}
}

func TestTokenTracker_Concurrent(t *testing.T) {
	tracker := NewTokenTracker()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.Add(10, 5)
		}()
	}
	wg.Wait()

	input, output := tracker.Total()
	if input != 200 || output != 100 {
		t.Errorf("Total() = (%d, %d), want (200, 100)", input, output)
	}
}

func TestTokenTrackerCost(t *testing.T) {
	tracker := NewTokenTracker()
	tracker.Add(1_000_000, 1_000_000)

	cost := tracker.Cost()
	if cost != 18.0 {
		t.Errorf("Cost() = %v, want 18.0", cost)
	}
}
