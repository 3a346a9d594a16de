package source

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"steward/pkg/logging"
)

// extractTar unpacks a tar archive, gzip-compressed or plain, into dst.
// Entries that would land outside dst are rejected.
func extractTar(archive, dst string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	var reader io.Reader = f
	gz, err := gzip.NewReader(f)
	switch {
	case err == nil:
		defer gz.Close()
		reader = gz
	case errors.Is(err, gzip.ErrHeader):
		// Plain tar. Rewind past the failed magic-byte probe.
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
	default:
		return fmt.Errorf("failed to read %s: %w", archive, err)
	}

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", archive, err)
		}

		target, err := securePath(dst, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if linkEscapes(hdr.Linkname) {
				logging.Warn(subsystem, "Skipping symlink %s pointing outside the archive", hdr.Name)
				continue
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		default:
			// Hard links, devices and the like have no business in an
			// app tree.
			logging.Warn(subsystem, "Skipping unsupported archive entry %s", hdr.Name)
		}
	}
}

func writeEntry(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// securePath joins name onto dst and rejects traversal outside of it.
func securePath(dst, name string) (string, error) {
	target := filepath.Join(dst, filepath.Clean(name))
	if target != dst && !strings.HasPrefix(target, dst+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %s escapes the extraction directory", name)
	}
	return target, nil
}

func linkEscapes(linkname string) bool {
	if filepath.IsAbs(linkname) {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(linkname), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
