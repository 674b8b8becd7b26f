// Package enroll drives systemd-cryptenroll to bind a LUKS volume to
// the TPM.
package enroll

import (
	"fmt"

	"github.com/zaolin/rampart/internal/config"
	"github.com/zaolin/rampart/internal/system"
)

// Enroller enrolls TPM2 unlock slots on LUKS volumes.
type Enroller struct {
	Runner    system.Runner
	TPMDevice string
}

// WipeTPM2Slots removes existing TPM2 key slots from the device.
// Callers treat a failure here as non-fatal: an absent slot and a real
// failure are indistinguishable at this layer.
func (e *Enroller) WipeTPM2Slots(device string) error {
	if err := e.Runner.Run("systemd-cryptenroll", "--wipe-slot=tpm2", device); err != nil {
		return fmt.Errorf("failed to wipe TPM2 slots on %s: %w", device, err)
	}
	return nil
}

// Enroll binds the device to the TPM with the given PCR set and PIN
// policy. Runs interactively: systemd-cryptenroll prompts for the
// existing passphrase and, with PIN enabled, for the new PIN.
func (e *Enroller) Enroll(device string, pcrs config.PCRList, pin bool) error {
	args := []string{
		"--tpm2-device=" + e.TPMDevice,
		"--tpm2-pcrs=" + pcrs.String(),
	}
	if pin {
		args = append(args, "--tpm2-with-pin=yes")
	}
	args = append(args, device)

	if err := e.Runner.RunInteractive("systemd-cryptenroll", args...); err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}
	return nil
}
