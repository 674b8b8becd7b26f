// Package tpm provides TPM 2.0 device discovery and health checks using
// google/go-tpm. Sealing and policy evaluation are left to
// systemd-cryptenroll; this package only enumerates devices, verifies
// they answer TPM2 commands and reports lockout state.
package tpm

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/google/go-tpm/tpm2"
	"github.com/google/go-tpm/tpm2/transport"
	"github.com/google/go-tpm/tpm2/transport/linuxtpm"
)

// ErrTPMUnavailable indicates the TPM device is not available.
var ErrTPMUnavailable = errors.New("TPM device not available")

// ErrNoTPM indicates no TPM device node was found.
var ErrNoTPM = errors.New("no TPM device found")

// devNodePattern matches TPM character device names.
var devNodePattern = regexp.MustCompile(`^tpm(rm)?[0-9]+$`)

// LockoutStatus contains TPM dictionary attack lockout information.
type LockoutStatus struct {
	InLockout       bool
	LockoutCounter  uint64
	MaxAuthFail     uint64
	LockoutRecovery uint64 // seconds to wait for recovery
}

// Discover lists TPM character devices under /dev, sorted by name so
// that resource-managed nodes (tpmrmN) come after raw ones (tpmN).
func Discover() ([]string, error) {
	entries, err := os.ReadDir("/dev")
	if err != nil {
		return nil, err
	}

	var devices []string
	for _, entry := range entries {
		if devNodePattern.MatchString(entry.Name()) {
			devices = append(devices, filepath.Join("/dev", entry.Name()))
		}
	}
	sort.Strings(devices)
	return devices, nil
}

// Select picks the device to enroll against from a discovery listing.
// Taking the last entry prefers /dev/tpmrm0 over /dev/tpm0 on a typical
// single-TPM system. This is a narrow selection policy, not a multi-TPM
// strategy.
func Select(devices []string) (string, error) {
	if len(devices) == 0 {
		return "", ErrNoTPM
	}
	return devices[len(devices)-1], nil
}

// Client provides TPM 2.0 operations.
type Client struct {
	device string
}

// NewWithDevice creates a new TPM client for a specific device path.
func NewWithDevice(device string) *Client {
	return &Client{device: device}
}

// Device returns the device path the client talks to.
func (c *Client) Device() string {
	return c.device
}

// openTPM opens a connection to the TPM device.
func (c *Client) openTPM() (transport.TPMCloser, error) {
	tpm, err := linuxtpm.Open(c.device)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTPMUnavailable, err)
	}
	return tpm, nil
}

// Probe verifies the device answers TPM2 commands.
func (c *Client) Probe() error {
	_, err := c.Manufacturer()
	return err
}

// Manufacturer reads the TPM manufacturer ID as a four-character string.
func (c *Client) Manufacturer() (string, error) {
	tpm, err := c.openTPM()
	if err != nil {
		return "", err
	}
	defer tpm.Close()

	value, err := getTPMProperty(tpm, tpm2.TPMPTManufacturer)
	if err != nil {
		return "", fmt.Errorf("failed to read manufacturer: %w", err)
	}

	id := []byte{
		byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value),
	}
	// Manufacturer IDs are NUL-padded ASCII
	out := make([]byte, 0, 4)
	for _, b := range id {
		if b >= 0x20 && b < 0x7f {
			out = append(out, b)
		}
	}
	return string(out), nil
}

// GetLockoutStatus reads the TPM lockout status.
func (c *Client) GetLockoutStatus() (*LockoutStatus, error) {
	tpm, err := c.openTPM()
	if err != nil {
		return nil, err
	}
	defer tpm.Close()

	status := &LockoutStatus{}

	lockoutCounter, err := getTPMProperty(tpm, tpm2.TPMPTLockoutCounter)
	if err == nil {
		status.LockoutCounter = uint64(lockoutCounter)
	}

	maxAuthFail, err := getTPMProperty(tpm, tpm2.TPMPTMaxAuthFail)
	if err == nil {
		status.MaxAuthFail = uint64(maxAuthFail)
	}

	lockoutRecovery, err := getTPMProperty(tpm, tpm2.TPMPTLockoutRecovery)
	if err == nil {
		status.LockoutRecovery = uint64(lockoutRecovery)
	}

	if status.MaxAuthFail > 0 && status.LockoutCounter >= status.MaxAuthFail {
		status.InLockout = true
	}

	return status, nil
}

// getTPMProperty reads a single TPM property.
func getTPMProperty(tpm transport.TPM, prop tpm2.TPMPT) (uint32, error) {
	getCapCmd := tpm2.GetCapability{
		Capability:    tpm2.TPMCapTPMProperties,
		Property:      uint32(prop),
		PropertyCount: 1,
	}
	rsp, err := getCapCmd.Execute(tpm)
	if err != nil {
		return 0, err
	}

	props, err := rsp.CapabilityData.Data.TPMProperties()
	if err != nil {
		return 0, err
	}
	if len(props.TPMProperty) == 0 {
		return 0, errors.New("no property returned")
	}
	return props.TPMProperty[0].Value, nil
}
