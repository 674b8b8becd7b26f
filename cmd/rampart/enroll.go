package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zaolin/rampart/internal/bootcfg"
	"github.com/zaolin/rampart/internal/config"
	"github.com/zaolin/rampart/internal/enroll"
	"github.com/zaolin/rampart/internal/luks"
	"github.com/zaolin/rampart/internal/prompt"
	"github.com/zaolin/rampart/internal/system"
	"github.com/zaolin/rampart/internal/tpm"
)

// requiredTools must all be present before any system change is made.
var requiredTools = []string{
	"systemd-cryptenroll",
	"cryptsetup",
	"blkid",
	"grubby",
	"grub2-mkconfig",
	"dracut",
}

// errAborted marks a deliberate operator decline. The process exits
// non-zero without printing an error.
var errAborted = errors.New("aborted")

func (c *EnrollCmd) AfterApply() error {
	if c.Device == "" {
		return nil
	}
	return luks.ValidateDevice(c.Device)
}

func (c *EnrollCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}

	pcrs := c.PCRs
	if pcrs == nil {
		if pcrs, err = config.ParsePCRs(cfg.PCRs); err != nil {
			return fmt.Errorf("invalid pcrs in config: %w", err)
		}
	}
	pin := cfg.PIN
	if c.PIN != nil {
		pin = bool(*c.PIN)
	}

	if os.Geteuid() != 0 {
		return errors.New("this command must be run as root")
	}

	runner := &system.ExecRunner{Verbose: c.Verbose}
	return runEnroll(cfg, runner, prompt.New(), locateTPM, c.Device, pcrs, pin, c.WipeExisting, c.Yes)
}

// tpmLocator resolves the TPM device to enroll against. Injected into
// the pipeline so tests need no /dev nodes.
type tpmLocator func(preset string) (string, error)

// locateTPM discovers and probes the TPM, or probes a preset device.
func locateTPM(preset string) (string, error) {
	device := preset
	if device == "" {
		devices, err := tpm.Discover()
		if err != nil {
			return "", fmt.Errorf("failed to discover TPM devices: %w", err)
		}
		if device, err = tpm.Select(devices); err != nil {
			return "", err
		}
	}
	if err := tpm.NewWithDevice(device).Probe(); err != nil {
		return "", fmt.Errorf("TPM device %s did not respond: %w", device, err)
	}
	return device, nil
}

func runEnroll(cfg *config.Config, runner system.Runner, prompter prompt.Prompter,
	locate tpmLocator, devicePath string, pcrs config.PCRList, pin, wipeExisting, assumeYes bool) error {

	fmt.Println("[1/6] Checking required tools...")
	if missing := system.MissingTools(runner, requiredTools); len(missing) > 0 {
		return fmt.Errorf("missing required tools: %s", strings.Join(missing, ", "))
	}

	fmt.Println("[2/6] Discovering TPM2 device...")
	tpmDevice, err := locate(cfg.TPMDevice)
	if err != nil {
		return err
	}
	fmt.Printf("      Using %s\n", tpmDevice)

	fmt.Println("[3/6] Resolving LUKS volume...")
	if devicePath == "" {
		chosen, err := chooseDevice(runner, prompter, cfg.Crypttab)
		if err != nil {
			return err
		}
		devicePath = chosen
	}
	target, err := luks.Resolve(runner, devicePath)
	if err != nil {
		return err
	}
	fmt.Printf("      Volume %s (UUID %s)\n", target.Path, target.UUID)

	fmt.Println("[4/6] Updating unlock configuration...")
	backupPath, err := luks.BackupCrypttab(cfg.Crypttab, time.Now())
	if err != nil {
		return err
	}
	if backupPath != "" {
		fmt.Printf("      Backed up %s to %s\n", cfg.Crypttab, backupPath)
	}
	if err := luks.RewriteCrypttab(cfg.Crypttab, luks.TPMEntry(target.UUID, tpmDevice)); err != nil {
		return err
	}

	fmt.Println("[5/6] Regenerating boot configuration...")
	updater := &bootcfg.Updater{Runner: runner, GrubConfig: cfg.GrubConfig}
	if err := updater.AppendKernelArgs(tpmDevice); err != nil {
		return err
	}
	if err := updater.RegenerateGrubConfig(); err != nil {
		return err
	}
	if err := updater.RegenerateInitramfs(); err != nil {
		return err
	}

	fmt.Println("[6/6] Enrolling TPM2...")
	enroller := &enroll.Enroller{Runner: runner, TPMDevice: tpmDevice}

	wipe := wipeExisting
	if !wipe {
		if wipe, err = prompter.Confirm("Wipe existing TPM2 key slots on "+target.Path+"?", false); err != nil {
			return err
		}
	}
	if wipe {
		// A failed wipe leaves stale slots behind but does not block
		// enrollment into a fresh slot.
		if err := enroller.WipeTPM2Slots(target.ByUUIDPath()); err != nil {
			fmt.Printf("      Warning: %v (continuing)\n", err)
		}
	}

	if !assumeYes {
		proceed, err := prompter.Confirm("Proceed with TPM2 enrollment?", false)
		if err != nil {
			return err
		}
		if !proceed {
			return errAborted
		}
	}

	if err := enroller.Enroll(target.ByUUIDPath(), pcrs, pin); err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Enrolled %s for TPM2 unlock (PCRs %s", target.ByUUIDPath(), pcrs.String())
	if pin {
		fmt.Print(", PIN required")
	}
	fmt.Println(")")
	fmt.Println("Reboot to verify automatic unlock.")
	return nil
}

// chooseDevice discovers enrollable LUKS volumes and picks one.
func chooseDevice(runner system.Runner, prompter prompt.Prompter, crypttab string) (string, error) {
	devices, err := luks.Detect(runner, crypttab)
	if err != nil {
		return "", fmt.Errorf("failed to detect LUKS devices: %w", err)
	}
	return pickDevice(devices, prompter)
}

// pickDevice uses a single match directly and sends multiple matches to
// the operator.
func pickDevice(devices []luks.Device, prompter prompt.Prompter) (string, error) {
	switch len(devices) {
	case 0:
		return "", errors.New("no LUKS devices found")
	case 1:
		return devices[0].Path, nil
	}

	options := make([]string, len(devices))
	for i, dev := range devices {
		label := dev.Path
		if dev.UUID != "" {
			label += " (UUID " + dev.UUID + ")"
		}
		if dev.Name != "" {
			label += " [" + dev.Name + "]"
		}
		options[i] = label
	}
	idx, err := prompter.Select("Multiple LUKS devices found:", options)
	if err != nil {
		return "", err
	}
	return devices[idx].Path, nil
}
