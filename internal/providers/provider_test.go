package providers

import (
	"context"
	"testing"
)

func TestSelect_Precedence(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		want  string
	}{
		{"no keys", Credentials{}, "codeserver"},
		{"openai only", Credentials{OpenAI: "o"}, "openai"},
		{"gemini only", Credentials{Gemini: "g"}, "gemini"},
		{"anthropic only", Credentials{Anthropic: "a"}, "anthropic"},
		{"openai beats all", Credentials{OpenAI: "o", Gemini: "g", Anthropic: "a"}, "openai"},
		{"gemini beats anthropic", Credentials{Gemini: "g", Anthropic: "a"}, "gemini"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Select(context.Background(), tt.creds, Options{})
			if err != nil {
				t.Fatalf("Select: %v", err)
			}
			if b.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", b.Name(), tt.want)
			}
		})
	}
}

func TestSelect_LocalProtocol(t *testing.T) {
	b, err := Select(context.Background(), Credentials{}, Options{CodeServerProtocol: "openai"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if b.Name() != "local" {
		t.Errorf("Name() = %q, want local", b.Name())
	}
}

func TestCredentials_Any(t *testing.T) {
	if (Credentials{}).Any() {
		t.Error("empty credentials reported as set")
	}
	if !(Credentials{Anthropic: "x"}).Any() {
		t.Error("anthropic key not detected")
	}
}

func TestNew_ByName(t *testing.T) {
	creds := Credentials{OpenAI: "o", Gemini: "g", Anthropic: "a"}
	for name, want := range map[string]string{
		"openai":     "openai",
		"google":     "gemini",
		"claude":     "anthropic",
		"codeserver": "codeserver",
		"":           "codeserver",
	} {
		b, err := New(context.Background(), name, creds, Options{})
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if b.Name() != want {
			t.Errorf("New(%q).Name() = %q, want %q", name, b.Name(), want)
		}
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(context.Background(), "unknown", Credentials{}, Options{}); err == nil {
		t.Error("Expected error for unknown backend")
	}
	if _, err := New(context.Background(), "openai", Credentials{}, Options{}); err == nil {
		t.Error("Expected error for missing key")
	}
}

func TestErrorMessages(t *testing.T) {
	se := &StatusError{Backend: "openai", StatusCode: 500, Body: "boom"}
	if se.Error() != "openai: API error (status 500): boom" {
		t.Errorf("StatusError = %q", se.Error())
	}
	ae := &AuthError{Backend: "gemini", Message: "bad key"}
	if ae.Error() != "gemini: authentication error: bad key" {
		t.Errorf("AuthError = %q", ae.Error())
	}
}
