package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParsePCRs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "default pair", input: "0+7", want: "0+7"},
		{name: "single", input: "7", want: "7"},
		{name: "many", input: "0+2+4+7", want: "0+2+4+7"},
		{name: "spaces around parts", input: " 0 + 7 ", want: "0+7"},
		{name: "upper bound", input: "23", want: "23"},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
		{name: "non numeric", input: "0+sha", wantErr: true},
		{name: "negative", input: "-1", wantErr: true},
		{name: "out of range", input: "24", wantErr: true},
		{name: "trailing separator", input: "0+7+", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePCRs(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePCRs(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.String() != tt.want {
				t.Errorf("ParsePCRs(%q) = %q, want %q", tt.input, got.String(), tt.want)
			}
		})
	}
}

func TestPCRListUnmarshalText(t *testing.T) {
	var p PCRList
	if err := p.UnmarshalText([]byte("1+8+14")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if len(p) != 3 || p[0] != 1 || p[1] != 8 || p[2] != 14 {
		t.Errorf("got %v, want [1 8 14]", p)
	}

	if err := p.UnmarshalText([]byte("0+x")); err == nil {
		t.Error("expected error for non-numeric index")
	}
}

func TestBoolToken(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{input: "true", want: true},
		{input: "yes", want: true},
		{input: "1", want: true},
		{input: "TRUE", want: true},
		{input: "Yes", want: true},
		{input: "false", want: false},
		{input: "no", want: false},
		{input: "0", want: false},
		{input: "FALSE", want: false},
		{input: "No", want: false},
		{input: "maybe", wantErr: true},
		{input: "", wantErr: true},
		{input: "2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var b BoolToken
			err := b.UnmarshalText([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalText(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && bool(b) != tt.want {
				t.Errorf("UnmarshalText(%q) = %v, want %v", tt.input, bool(b), tt.want)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PCRs != "0+7" {
		t.Errorf("PCRs = %q, want %q", cfg.PCRs, "0+7")
	}
	if cfg.PIN {
		t.Error("PIN should default to false")
	}
	if cfg.Crypttab != "/etc/crypttab" {
		t.Errorf("Crypttab = %q, want /etc/crypttab", cfg.Crypttab)
	}
	if cfg.GrubConfig != "/boot/grub2/grub.cfg" {
		t.Errorf("GrubConfig = %q, want /boot/grub2/grub.cfg", cfg.GrubConfig)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rampart.toml")
	content := `pcrs = "0+2+7"
pin = true
crypttab = "/tmp/crypttab"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PCRs != "0+2+7" {
		t.Errorf("PCRs = %q, want 0+2+7", cfg.PCRs)
	}
	if !cfg.PIN {
		t.Error("PIN should be true")
	}
	if cfg.Crypttab != "/tmp/crypttab" {
		t.Errorf("Crypttab = %q, want /tmp/crypttab", cfg.Crypttab)
	}
	if cfg.GrubConfig != "/boot/grub2/grub.cfg" {
		t.Errorf("GrubConfig should keep its default, got %q", cfg.GrubConfig)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
