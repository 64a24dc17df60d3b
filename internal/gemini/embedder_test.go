package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNew_Validation(t *testing.T) {
	base := Config{
		APIKey:    "test-key",
		Model:     "gemini-embedding-001",
		Dimension: 1536,
		BatchSize: 100,
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.APIKey = "" },
			wantErr: "API key",
		},
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.Model = "" },
			wantErr: "model",
		},
		{
			name:    "zero dimension",
			mutate:  func(c *Config) { c.Dimension = 0 },
			wantErr: "dimension",
		},
		{
			name:    "negative batch size",
			mutate:  func(c *Config) { c.BatchSize = -1 },
			wantErr: "batch size",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			_, err := New(context.Background(), cfg, nil)
			if err == nil {
				t.Fatal("New() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("New() error = %q, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestNew_Valid(t *testing.T) {
	e, err := New(context.Background(), Config{
		APIKey:    "test-key",
		Model:     "gemini-embedding-001",
		Dimension: 1536,
		BatchSize: 100,
	}, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if got := e.Dimension(); got != 1536 {
		t.Errorf("Dimension() = %d, want 1536", got)
	}
}

func TestEmbedBatch_EmptyInput(t *testing.T) {
	e, err := New(context.Background(), Config{
		APIKey:    "test-key",
		Model:     "gemini-embedding-001",
		Dimension: 1536,
		BatchSize: 100,
	}, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	// No API call is made for an empty batch, so no credentials are needed.
	vectors, err := e.EmbedBatch(context.Background(), nil, TaskDocument)
	if err != nil {
		t.Fatalf("EmbedBatch(nil) error: %v", err)
	}
	if len(vectors) != 0 {
		t.Errorf("EmbedBatch(nil) = %d vectors, want 0", len(vectors))
	}
}

func TestEmbedBatch_BlankTextRejected(t *testing.T) {
	e, err := New(context.Background(), Config{
		APIKey:    "test-key",
		Model:     "gemini-embedding-001",
		Dimension: 1536,
		BatchSize: 100,
	}, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, err = e.EmbedBatch(context.Background(), []string{"fine", "   "}, TaskDocument)
	if err == nil {
		t.Fatal("EmbedBatch() succeeded with blank text, want error")
	}
	if !strings.Contains(err.Error(), "text 1") {
		t.Errorf("EmbedBatch() error = %q, want position of blank text", err)
	}
}

func TestProviderError(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := &ProviderError{Batch: 3, Size: 100, Err: cause}

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should unwrap to the cause")
	}
	msg := err.Error()
	for _, want := range []string{"batch 3", "100 texts", "quota exceeded"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, want substring %q", msg, want)
		}
	}
}
