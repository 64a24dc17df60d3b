package cmd

import (
	"os"
	"testing"
)

func TestValidateAddr(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "localhost with port", addr: "localhost:3500", wantErr: false},
		{name: "ip with port", addr: "127.0.0.1:8080", wantErr: false},
		{name: "port only", addr: ":8080", wantErr: false},
		{name: "auto-assign port", addr: ":0", wantErr: false},
		{name: "missing port", addr: "localhost", wantErr: true},
		{name: "non-numeric port", addr: "localhost:http", wantErr: true},
		{name: "port out of range", addr: "localhost:70000", wantErr: true},
		{name: "whitespace host", addr: "bad host:8080", wantErr: true},
		{name: "empty", addr: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAddr(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAddr(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			}
		})
	}
}

func TestParseServeAddr(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "default",
			args: []string{"kbsearch", "serve"},
			want: "127.0.0.1:3500",
		},
		{
			name: "positional",
			args: []string{"kbsearch", "serve", ":8080"},
			want: ":8080",
		},
		{
			name: "flag",
			args: []string{"kbsearch", "serve", "--addr", "localhost:9000"},
			want: "localhost:9000",
		},
		{
			name:    "invalid positional",
			args:    []string{"kbsearch", "serve", "not-an-addr"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			got, err := parseServeAddr()
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseServeAddr() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseServeAddr() = %q, want %q", got, tt.want)
			}
		})
	}
}
