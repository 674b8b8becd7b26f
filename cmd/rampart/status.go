package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zaolin/rampart/internal/config"
	"github.com/zaolin/rampart/internal/initramfs"
	"github.com/zaolin/rampart/internal/luks"
	"github.com/zaolin/rampart/internal/system"
	"github.com/zaolin/rampart/internal/tpm"
)

func (c *StatusCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	if err := luks.ValidateDevice(c.Device); err != nil {
		return err
	}

	runner := &system.ExecRunner{}
	dev, err := luks.Resolve(runner, c.Device)
	if err != nil {
		return err
	}

	fmt.Println("TPM2 Enrollment Status")
	fmt.Println("======================")
	fmt.Printf("Device: %s\n", dev.Path)
	fmt.Printf("UUID:   %s\n", dev.UUID)
	fmt.Println()

	ok := true

	if entries, err := luks.ParseCrypttab(cfg.Crypttab); err != nil {
		fmt.Printf("❌ Cannot read %s: %v\n", cfg.Crypttab, err)
		ok = false
	} else if entry, found := luks.FindCrypttabEntry(entries, dev.UUID); !found {
		fmt.Printf("❌ No %s entry for UUID %s\n", cfg.Crypttab, dev.UUID)
		ok = false
	} else if !strings.Contains(entry.Options, "tpm2-device=") {
		fmt.Printf("❌ Crypttab entry %s does not use tpm2-device\n", entry.Name)
		ok = false
	} else {
		fmt.Printf("✅ Crypttab entry %s binds the volume to the TPM\n", entry.Name)
	}

	token, err := luks.InspectToken(dev.Path)
	switch {
	case errors.Is(err, luks.ErrNoToken):
		fmt.Println("❌ No systemd-tpm2 token in the LUKS header (not enrolled)")
		ok = false
	case err != nil:
		fmt.Printf("❌ Failed to read LUKS header: %v\n", err)
		ok = false
	default:
		fmt.Printf("✅ systemd-tpm2 token present (PCRs %v, bank %s, keyslots %v)\n",
			token.PCRs, token.PCRBank, token.Keyslots)
		if token.NeedsPIN {
			fmt.Println("   PIN required at unlock")
		}
	}

	if !c.checkTPM() {
		ok = false
	}
	if !c.checkInitramfs() {
		ok = false
	}

	if !ok {
		return errors.New("status check failed")
	}
	return nil
}

func (c *StatusCmd) checkTPM() bool {
	tpmDevices, err := tpm.Discover()
	if err != nil {
		fmt.Printf("❌ Failed to discover TPM devices: %v\n", err)
		return false
	}
	tpmDevice, err := tpm.Select(tpmDevices)
	if err != nil {
		fmt.Println("❌ No TPM2 device found")
		return false
	}

	status, err := tpm.NewWithDevice(tpmDevice).GetLockoutStatus()
	if err != nil {
		fmt.Printf("❌ TPM %s not responding: %v\n", tpmDevice, err)
		return false
	}
	if status.InLockout {
		fmt.Printf("❌ TPM in dictionary attack lockout (%d/%d failures, recovery %ds)\n",
			status.LockoutCounter, status.MaxAuthFail, status.LockoutRecovery)
		return false
	}
	fmt.Printf("✅ TPM %s healthy (lockout counter %d/%d)\n",
		tpmDevice, status.LockoutCounter, status.MaxAuthFail)
	return true
}

func (c *StatusCmd) checkInitramfs() bool {
	image := c.Initramfs
	if image == "" {
		found, err := initramfs.DefaultImage()
		if err != nil {
			fmt.Println("⚠️  No initramfs image found to inspect")
			return true
		}
		image = found
	}

	report, err := initramfs.Inspect(image)
	if err != nil {
		fmt.Printf("❌ Failed to inspect %s: %v\n", image, err)
		return false
	}
	if !report.HasCryptsetup || !report.HasTPM2 {
		fmt.Printf("❌ %s is missing unlock components (cryptsetup=%v tpm2=%v)\n",
			image, report.HasCryptsetup, report.HasTPM2)
		return false
	}
	fmt.Printf("✅ %s contains cryptsetup and TPM2 components (%d files, %s)\n",
		image, report.Files, report.Compression)
	return true
}
