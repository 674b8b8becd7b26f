// Package bootcfg updates kernel arguments and regenerates boot
// artifacts. The heavy lifting is delegated to grubby, grub2-mkconfig
// and dracut; any failure from those tools is fatal to the run and no
// rollback of earlier stages is attempted.
package bootcfg

import (
	"fmt"

	"github.com/zaolin/rampart/internal/system"
)

// DefaultGrubConfig is the primary bootloader configuration file.
const DefaultGrubConfig = "/boot/grub2/grub.cfg"

// Updater drives the boot configuration tools.
type Updater struct {
	Runner     system.Runner
	GrubConfig string
}

// NewUpdater creates an Updater with the default grub config path.
func NewUpdater(r system.Runner) *Updater {
	return &Updater{Runner: r, GrubConfig: DefaultGrubConfig}
}

// KernelArgs builds the boot-time arguments that point the early boot
// unlock path at the TPM and enable PCR measurement of the volume key.
func KernelArgs(tpmDevice string) string {
	return fmt.Sprintf("rd.luks.options=tpm2-device=%s tpm2-measure-pcr=yes", tpmDevice)
}

// AppendKernelArgs appends the TPM unlock arguments to every installed
// kernel entry. Arguments accumulate across runs; grubby does not
// de-duplicate and neither do we.
func (u *Updater) AppendKernelArgs(tpmDevice string) error {
	if err := u.Runner.Run("grubby", "--update-kernel=ALL", "--args="+KernelArgs(tpmDevice)); err != nil {
		return fmt.Errorf("failed to update kernel arguments: %w", err)
	}
	return nil
}

// RegenerateGrubConfig rebuilds the primary bootloader configuration
// from the updated kernel-argument state.
func (u *Updater) RegenerateGrubConfig() error {
	if err := u.Runner.Run("grub2-mkconfig", "-o", u.GrubConfig); err != nil {
		return fmt.Errorf("failed to regenerate %s: %w", u.GrubConfig, err)
	}
	return nil
}

// RegenerateInitramfs rebuilds the initramfs for all installed kernels.
// A full rebuild is forced so the TPM2 unlock components are guaranteed
// to land in every image.
func (u *Updater) RegenerateInitramfs() error {
	if err := u.Runner.Run("dracut", "--force", "--regenerate-all"); err != nil {
		return fmt.Errorf("failed to regenerate initramfs: %w", err)
	}
	return nil
}
