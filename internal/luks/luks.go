// Package luks provides LUKS device discovery, validation and crypttab
// handling for TPM2 enrollment.
package luks

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	anatol "github.com/anatol/luks.go"
	"golang.org/x/sys/unix"

	"github.com/zaolin/rampart/internal/system"
)

// Device represents a LUKS encrypted device
type Device struct {
	Path string
	UUID string
	Name string // from crypttab, if available
}

// ByUUIDPath returns the stable /dev/disk/by-uuid path for the device.
// All mutation stages key off this path rather than the possibly
// transient partition path.
func (d Device) ByUUIDPath() string {
	return "/dev/disk/by-uuid/" + d.UUID
}

// Detect finds all LUKS devices on the system using blkid and validates
// them against the LUKS header. Entries that are not /dev/... paths and
// /dev/disk/by-id aliases (duplicates of the real partition nodes) are
// dropped. Names are enriched from the crypttab at crypttabPath, or
// DefaultCrypttab when empty.
func Detect(r system.Runner, crypttabPath string) ([]Device, error) {
	out, err := r.Output("blkid", "-t", "TYPE=crypto_LUKS", "-o", "device")
	if err != nil {
		// blkid exits 2 when nothing matches
		if exitCode(err) == 2 {
			return nil, nil
		}
		return nil, err
	}

	var devices []Device
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		line = strings.TrimSpace(line)
		if !qualifies(line) {
			continue
		}
		// Drop only on a confirmed magic mismatch. An unreadable node
		// (unprivileged run) stays: blkid already typed it crypto_LUKS.
		if ok, err := IsLuks(line); err == nil && !ok {
			continue
		}
		dev := Device{Path: line}
		if uuid, err := UUID(r, line); err == nil {
			dev.UUID = uuid
		}
		devices = append(devices, dev)
	}

	// Enrich with crypttab info
	if crypttabPath == "" {
		crypttabPath = DefaultCrypttab
	}
	enrichFromCrypttab(devices, crypttabPath)

	return devices, nil
}

// qualifies reports whether a blkid listing entry names a real device node.
func qualifies(line string) bool {
	if !strings.HasPrefix(line, "/dev/") {
		return false
	}
	if strings.HasPrefix(line, "/dev/disk/by-id/") {
		return false
	}
	return true
}

// IsLuks checks for the LUKS header magic on a device or image. The
// error reports an unreadable path, which is not the same as a magic
// mismatch.
func IsLuks(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	magic := make([]byte, 6)
	if _, err := io.ReadFull(f, magic); err != nil {
		// Too short to carry a LUKS header
		return false, nil
	}

	// LUKS magic is "LUKS\xba\xbe"
	return string(magic) == "LUKS\xba\xbe", nil
}

// UUID retrieves the UUID of a LUKS device, reading the header natively
// and falling back to cryptsetup.
func UUID(r system.Runner, path string) (string, error) {
	if dev, err := anatol.Open(path); err == nil {
		uuid := dev.UUID()
		dev.Close()
		if uuid != "" {
			return uuid, nil
		}
	}

	out, err := r.Output("cryptsetup", "luksUUID", path)
	if err != nil {
		return "", fmt.Errorf("failed to read LUKS UUID of %s: %w", path, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ValidateDevice checks that path names an existing LUKS-formatted block
// device. It is called before any other stage runs.
func ValidateDevice(path string) error {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return fmt.Errorf("device %s not found: %w", path, err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFBLK {
		return fmt.Errorf("%s is not a block device", path)
	}
	ok, err := IsLuks(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	if !ok {
		return fmt.Errorf("%s is not a LUKS-formatted device", path)
	}
	return nil
}

// Resolve builds the target record for a validated device path.
func Resolve(r system.Runner, path string) (Device, error) {
	uuid, err := UUID(r, path)
	if err != nil {
		return Device{}, err
	}
	return Device{Path: path, UUID: uuid}, nil
}

func exitCode(err error) int {
	var e interface{ ExitCode() int }
	if errors.As(err, &e) {
		return e.ExitCode()
	}
	return -1
}
