package bootcfg

import (
	"reflect"
	"testing"
)

type fakeRunner struct {
	commands [][]string
}

func (f *fakeRunner) Run(name string, args ...string) error {
	f.commands = append(f.commands, append([]string{name}, args...))
	return nil
}
func (f *fakeRunner) RunInteractive(name string, args ...string) error { return f.Run(name, args...) }
func (f *fakeRunner) Output(name string, args ...string) ([]byte, error) {
	return nil, f.Run(name, args...)
}
func (f *fakeRunner) LookPath(name string) (string, error) { return "/usr/sbin/" + name, nil }

func TestKernelArgs(t *testing.T) {
	got := KernelArgs("/dev/tpmrm0")
	want := "rd.luks.options=tpm2-device=/dev/tpmrm0 tpm2-measure-pcr=yes"
	if got != want {
		t.Errorf("KernelArgs = %q, want %q", got, want)
	}
}

func TestUpdaterCommands(t *testing.T) {
	runner := &fakeRunner{}
	u := &Updater{Runner: runner, GrubConfig: "/boot/grub2/grub.cfg"}

	if err := u.AppendKernelArgs("/dev/tpmrm0"); err != nil {
		t.Fatalf("AppendKernelArgs: %v", err)
	}
	if err := u.RegenerateGrubConfig(); err != nil {
		t.Fatalf("RegenerateGrubConfig: %v", err)
	}
	if err := u.RegenerateInitramfs(); err != nil {
		t.Fatalf("RegenerateInitramfs: %v", err)
	}

	want := [][]string{
		{"grubby", "--update-kernel=ALL", "--args=rd.luks.options=tpm2-device=/dev/tpmrm0 tpm2-measure-pcr=yes"},
		{"grub2-mkconfig", "-o", "/boot/grub2/grub.cfg"},
		{"dracut", "--force", "--regenerate-all"},
	}
	if !reflect.DeepEqual(runner.commands, want) {
		t.Errorf("commands = %v, want %v", runner.commands, want)
	}
}

func TestNewUpdaterDefaults(t *testing.T) {
	u := NewUpdater(&fakeRunner{})
	if u.GrubConfig != DefaultGrubConfig {
		t.Errorf("GrubConfig = %q, want %q", u.GrubConfig, DefaultGrubConfig)
	}
}
