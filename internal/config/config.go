package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds the rampart configuration
type Config struct {
	PCRs       string `toml:"pcrs"`
	PIN        bool   `toml:"pin"`
	TPMDevice  string `toml:"tpm_device"`
	Crypttab   string `toml:"crypttab"`
	GrubConfig string `toml:"grub_config"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		PCRs:       "0+7",
		Crypttab:   "/etc/crypttab",
		GrubConfig: "/boot/grub2/grub.cfg",
	}
}

// Load loads configuration from a TOML file
// If path is empty, returns default config
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PCRList is a set of PCR indices given as a '+'-joined list (e.g. "0+7").
type PCRList []int

// UnmarshalText parses a '+'-joined PCR selector.
func (p *PCRList) UnmarshalText(text []byte) error {
	parsed, err := ParsePCRs(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// String renders the selector back into '+'-joined form.
func (p PCRList) String() string {
	parts := make([]string, len(p))
	for i, pcr := range p {
		parts[i] = strconv.Itoa(pcr)
	}
	return strings.Join(parts, "+")
}

// ParsePCRs parses a '+'-joined PCR selector such as "0+7".
// Valid indices are 0 through 23.
func ParsePCRs(s string) (PCRList, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty PCR list")
	}

	var pcrs PCRList
	for _, part := range strings.Split(s, "+") {
		part = strings.TrimSpace(part)
		pcr, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid PCR index %q", part)
		}
		if pcr < 0 || pcr > 23 {
			return nil, fmt.Errorf("PCR index %d out of range 0-23", pcr)
		}
		pcrs = append(pcrs, pcr)
	}
	return pcrs, nil
}

// BoolToken is a yes/no flag value. It accepts the case-insensitive
// tokens true/yes/1 and false/no/0 and rejects anything else.
type BoolToken bool

// UnmarshalText parses a bool token.
func (b *BoolToken) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "true", "yes", "1":
		*b = true
	case "false", "no", "0":
		*b = false
	default:
		return fmt.Errorf("invalid value %q: expected true/yes/1 or false/no/0", string(text))
	}
	return nil
}
