package main

import (
	"github.com/zaolin/rampart/internal/config"
)

var cli struct {
	Enroll EnrollCmd `cmd:"" default:"withargs" help:"Enroll a TPM2 as an unlock factor for a LUKS volume"`
	List   ListCmd   `cmd:"" help:"List LUKS volumes and TPM2 devices"`
	Status StatusCmd `cmd:"" help:"Show the TPM2 enrollment state of a LUKS volume"`
}

// EnrollCmd is the default command: it drives the whole pipeline from
// discovery to systemd-cryptenroll.
type EnrollCmd struct {
	Device       string            `short:"d" help:"LUKS block device to enroll (discovered when omitted)"`
	PCRs         config.PCRList    `short:"p" help:"'+'-joined PCR indices to bind against (default 0+7)"`
	PIN          *config.BoolToken `short:"i" name:"pin" help:"Require a PIN in addition to platform state: true/yes/1 or false/no/0"`
	WipeExisting bool              `help:"Wipe existing TPM2 key slots without asking"`
	Yes          bool              `short:"y" help:"Skip the enrollment confirmation prompt"`
	Config       string            `type:"path" help:"Path to a TOML config file"`
	Verbose      bool              `short:"v" help:"Show output from external tools"`
}

type ListCmd struct {
	Config  string `type:"path" help:"Path to a TOML config file"`
	Verbose bool   `short:"v" help:"Show output from external tools"`
}

type StatusCmd struct {
	Device    string `arg:"" help:"LUKS block device to inspect"`
	Initramfs string `type:"path" help:"Initramfs image to inspect (newest under /boot when omitted)"`
	Config    string `type:"path" help:"Path to a TOML config file"`
}
