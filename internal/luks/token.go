package luks

import (
	"encoding/json"
	"errors"
	"fmt"

	anatol "github.com/anatol/luks.go"
)

// ErrNoToken indicates no systemd-tpm2 token is present in the header.
var ErrNoToken = errors.New("no systemd-tpm2 token found")

// TPM2Token is the subset of a systemd-tpm2 LUKS2 token relevant for
// enrollment status reporting.
type TPM2Token struct {
	// PCRs are the PCR indices bound to this token.
	PCRs []int
	// PCRBank is the hash algorithm for PCR values (sha1, sha256, etc.).
	PCRBank string
	// NeedsPIN indicates whether a PIN is required for unsealing.
	NeedsPIN bool
	// Keyslots are the LUKS keyslots this token unlocks.
	Keyslots []int
}

// systemdTPM2TokenPayload is the JSON structure of a systemd-tpm2 token.
type systemdTPM2TokenPayload struct {
	PCRs    []int  `json:"tpm2-pcrs"`
	PCRBank string `json:"tpm2-pcr-bank"`
	PIN     bool   `json:"tpm2-pin"`
}

// InspectToken reads the LUKS2 header of a device and returns its
// systemd-tpm2 token, or ErrNoToken when the device has none.
func InspectToken(path string) (*TPM2Token, error) {
	dev, err := anatol.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open LUKS device %s: %w", path, err)
	}
	defer dev.Close()

	tokens, err := dev.Tokens()
	if err != nil {
		return nil, fmt.Errorf("failed to read tokens from %s: %w", path, err)
	}

	for _, token := range tokens {
		if token.Type != "systemd-tpm2" {
			continue
		}
		return parseTPM2Token(token.Payload, token.Slots)
	}
	return nil, ErrNoToken
}

func parseTPM2Token(payload []byte, slots []int) (*TPM2Token, error) {
	var p systemdTPM2TokenPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to parse systemd-tpm2 token: %w", err)
	}

	// Default PCR bank
	bank := p.PCRBank
	if bank == "" {
		bank = "sha256"
	}

	return &TPM2Token{
		PCRs:     p.PCRs,
		PCRBank:  bank,
		NeedsPIN: p.PIN,
		Keyslots: slots,
	}, nil
}
