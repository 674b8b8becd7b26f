// Package initramfs inspects generated initramfs images. Generation is
// dracut's job; this package only opens the result and checks that the
// TPM2 unlock components actually made it into the image.
//
// A dracut image is a sequence of cpio segments: zero or more
// uncompressed early segments (microcode, firmware) followed by one
// compressed main segment.
package initramfs

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cavaliergopher/cpio"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Report summarizes the contents of an initramfs image.
type Report struct {
	Segments      int
	Compression   string
	Files         int
	HasCryptsetup bool
	HasTPM2       bool
}

// Compression magic bytes
var (
	magicCPIO = []byte("070701")
	magicCRC  = []byte("070702")
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicXZ   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// Inspect opens an initramfs image and reports on its contents.
func Inspect(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return InspectReader(f)
}

// InspectReader walks the cpio segments of an image.
func InspectReader(r io.Reader) (*Report, error) {
	br := bufio.NewReader(r)
	report := &Report{Compression: "none"}

	for {
		if err := skipPadding(br); err != nil {
			break
		}

		magic, err := br.Peek(6)
		if err != nil {
			break
		}

		switch {
		case bytes.HasPrefix(magic, magicCPIO) || bytes.HasPrefix(magic, magicCRC):
			// Uncompressed early segment
			if err := scanSegment(cpio.NewReader(br), report); err != nil {
				return nil, fmt.Errorf("failed to read cpio segment: %w", err)
			}
			continue

		case bytes.HasPrefix(magic, magicGzip):
			report.Compression = "gzip"
			zr, err := gzip.NewReader(br)
			if err != nil {
				return nil, fmt.Errorf("failed to open gzip segment: %w", err)
			}
			defer zr.Close()
			return report, scanSegment(cpio.NewReader(zr), report)

		case bytes.HasPrefix(magic, magicZstd):
			report.Compression = "zstd"
			zr, err := zstd.NewReader(br)
			if err != nil {
				return nil, fmt.Errorf("failed to open zstd segment: %w", err)
			}
			defer zr.Close()
			return report, scanSegment(cpio.NewReader(zr), report)

		case bytes.HasPrefix(magic, magicXZ):
			report.Compression = "xz"
			zr, err := xz.NewReader(br)
			if err != nil {
				return nil, fmt.Errorf("failed to open xz segment: %w", err)
			}
			return report, scanSegment(cpio.NewReader(zr), report)

		default:
			if report.Segments == 0 {
				return nil, errors.New("not an initramfs image")
			}
			return report, nil
		}
	}

	if report.Segments == 0 {
		return nil, errors.New("not an initramfs image")
	}
	return report, nil
}

// scanSegment reads one cpio archive, recording entries of interest.
func scanSegment(cr *cpio.Reader, report *Report) error {
	report.Segments++

	for {
		hdr, err := cr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		report.Files++
		base := filepath.Base(hdr.Name)
		if strings.Contains(base, "cryptsetup") {
			report.HasCryptsetup = true
		}
		if strings.Contains(base, "tpm") || strings.Contains(base, "libtss2") {
			report.HasTPM2 = true
		}
	}
}

// skipPadding discards the zero padding between cpio segments.
func skipPadding(br *bufio.Reader) error {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return err
		}
		if b != 0 {
			return br.UnreadByte()
		}
	}
}

// DefaultImage returns the most recently modified initramfs image under
// /boot.
func DefaultImage() (string, error) {
	matches, err := filepath.Glob("/boot/initramfs-*.img")
	if err != nil || len(matches) == 0 {
		return "", errors.New("no initramfs image found under /boot")
	}

	sort.Slice(matches, func(i, j int) bool {
		fi, errI := os.Stat(matches[i])
		fj, errJ := os.Stat(matches[j])
		if errI != nil || errJ != nil {
			return matches[i] < matches[j]
		}
		return fi.ModTime().Before(fj.ModTime())
	})
	return matches[len(matches)-1], nil
}
