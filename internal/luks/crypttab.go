package luks

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultCrypttab is the path of the unlock configuration file.
const DefaultCrypttab = "/etc/crypttab"

// backupTimestamp is the layout for backup file suffixes.
const backupTimestamp = "20060102_150405"

// CrypttabEntry represents a single crypttab entry
type CrypttabEntry struct {
	Name    string
	Device  string
	KeyFile string
	Options string
}

// Line renders the entry as a crypttab line.
func (e CrypttabEntry) Line() string {
	return fmt.Sprintf("%s %s %s %s", e.Name, e.Device, e.KeyFile, e.Options)
}

// TPMEntry builds the crypttab binding for a TPM2-unlocked volume.
// Discard passthrough is enabled so TRIM keeps working on the mapped
// device.
func TPMEntry(uuid, tpmDevice string) CrypttabEntry {
	return CrypttabEntry{
		Name:    "luks-" + uuid,
		Device:  "UUID=" + uuid,
		KeyFile: "none",
		Options: "tpm2-device=" + tpmDevice + ",discard",
	}
}

// ParseCrypttab parses a crypttab file
func ParseCrypttab(path string) ([]CrypttabEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []CrypttabEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			entry := CrypttabEntry{
				Name:   fields[0],
				Device: fields[1],
			}
			if len(fields) >= 3 {
				entry.KeyFile = fields[2]
			}
			if len(fields) >= 4 {
				entry.Options = fields[3]
			}
			entries = append(entries, entry)
		}
	}
	return entries, scanner.Err()
}

// BackupCrypttab copies an existing crypttab to a timestamped backup
// before any mutation. The backup is never deleted or restored
// automatically; it is an operator safety net. Returns the backup path,
// or "" when there was nothing to back up.
func BackupCrypttab(path string, now time.Time) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	backupPath := path + ".backup." + now.Format(backupTimestamp)
	if err := os.WriteFile(backupPath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write backup %s: %w", backupPath, err)
	}
	return backupPath, nil
}

// RewriteCrypttab overwrites the crypttab wholesale with a single entry.
// Prior contents are preserved only by the backup taken beforehand.
func RewriteCrypttab(path string, entry CrypttabEntry) error {
	content := entry.Line() + "\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FindCrypttabEntry returns the entry matching a volume UUID, if any.
func FindCrypttabEntry(entries []CrypttabEntry, uuid string) (CrypttabEntry, bool) {
	for _, entry := range entries {
		if entry.Device == "UUID="+uuid || entry.Device == "/dev/disk/by-uuid/"+uuid {
			return entry, true
		}
	}
	return CrypttabEntry{}, false
}

// enrichFromCrypttab adds name information from crypttab
func enrichFromCrypttab(devices []Device, path string) {
	crypttab, err := ParseCrypttab(path)
	if err != nil {
		return
	}

	for i := range devices {
		for _, entry := range crypttab {
			if entry.Device == devices[i].Path ||
				entry.Device == "UUID="+devices[i].UUID ||
				entry.Device == "/dev/disk/by-uuid/"+devices[i].UUID {
				devices[i].Name = entry.Name
				break
			}
		}
	}
}
