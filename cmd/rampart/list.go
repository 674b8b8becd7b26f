package main

import (
	"fmt"

	"github.com/zaolin/rampart/internal/config"
	"github.com/zaolin/rampart/internal/luks"
	"github.com/zaolin/rampart/internal/system"
	"github.com/zaolin/rampart/internal/tpm"
)

func (c *ListCmd) Run() error {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	runner := &system.ExecRunner{Verbose: c.Verbose}

	devices, err := luks.Detect(runner, cfg.Crypttab)
	if err != nil {
		return fmt.Errorf("failed to detect LUKS devices: %w", err)
	}

	fmt.Println("LUKS devices")
	fmt.Println("============")
	if len(devices) == 0 {
		fmt.Println("(none)")
	}
	for _, dev := range devices {
		line := fmt.Sprintf("%s  UUID=%s", dev.Path, dev.UUID)
		if dev.Name != "" {
			line += "  crypttab=" + dev.Name
		}
		fmt.Println(line)
	}

	fmt.Println()
	fmt.Println("TPM2 devices")
	fmt.Println("============")
	tpmDevices, err := tpm.Discover()
	if err != nil {
		return err
	}
	if len(tpmDevices) == 0 {
		fmt.Println("(none)")
	}
	for _, dev := range tpmDevices {
		manufacturer, err := tpm.NewWithDevice(dev).Manufacturer()
		if err != nil {
			fmt.Printf("%s  (not responding: %v)\n", dev, err)
			continue
		}
		fmt.Printf("%s  manufacturer=%s\n", dev, manufacturer)
	}
	return nil
}
