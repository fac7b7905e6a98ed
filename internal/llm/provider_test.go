package llm

import (
	"context"
	"errors"
	"testing"
)

func TestNewClient(t *testing.T) {
	if _, err := NewClient(ProviderOpenAI, "sk-test"); err != nil {
		t.Errorf("openai with key: %v", err)
	}
	if _, err := NewClient(ProviderOpenAI, ""); err == nil {
		t.Error("openai without key should fail")
	}
	if _, err := NewClient(ProviderMock, ""); err != nil {
		t.Errorf("mock: %v", err)
	}
	if _, err := NewClient("gemini", "key"); err == nil {
		t.Error("unknown provider should fail")
	}
}

func TestMockClient(t *testing.T) {
	c := NewMockClient()

	reply, err := c.Generate(context.Background(), "prompt one")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if reply != "(mock reply)" {
		t.Errorf("reply = %q", reply)
	}

	c.GenerateResponse = "custom"
	reply, _ = c.Generate(context.Background(), "prompt two")
	if reply != "custom" {
		t.Errorf("reply = %q", reply)
	}

	c.GenerateError = errors.New("boom")
	if _, err := c.Generate(context.Background(), "prompt three"); err == nil {
		t.Error("expected configured error")
	}

	if len(c.GenerateCalls) != 3 {
		t.Errorf("calls = %d, want 3", len(c.GenerateCalls))
	}
	if c.GenerateCalls[0] != "prompt one" {
		t.Errorf("first call = %q", c.GenerateCalls[0])
	}

	c.Reset()
	if len(c.GenerateCalls) != 0 || c.GenerateError != nil {
		t.Error("Reset did not clear state")
	}
}
