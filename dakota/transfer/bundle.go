package transfer

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MaxBundleSize caps the packed size of a key set directory (64 MB).
const MaxBundleSize = 64 * 1024 * 1024

// Errors returned when packing, validating or unpacking bundles.
var (
	ErrBundleName        = errors.New("transfer: invalid bundle name")
	ErrBundleTooLarge    = errors.New("transfer: bundle exceeds maximum size")
	ErrBundleEntry       = errors.New("transfer: unsafe or unsupported bundle entry")
	ErrBundleExists      = errors.New("transfer: destination already exists")
	ErrBundleUnsupported = errors.New("transfer: only regular files and directories can be bundled")
)

// Bundle is a key set directory packed as a tar stream. Every entry lives
// under Name/, and permission bits are carried so 0600 secrets stay 0600.
type Bundle struct {
	Name string
	Data []byte
}

// BundleEntry describes one file or directory inside a bundle.
type BundleEntry struct {
	Path  string
	Mode  os.FileMode
	Size  int64
	IsDir bool
}

// NewBundle wraps an already packed tar stream, e.g. one received over the
// network or restored from backup shards.
func NewBundle(name string, data []byte) (*Bundle, error) {
	if err := checkBundleName(name); err != nil {
		return nil, err
	}
	if len(data) > MaxBundleSize {
		return nil, ErrBundleTooLarge
	}
	return &Bundle{Name: name, Data: data}, nil
}

func checkBundleName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrBundleName, name)
	}
	return nil
}

// PackDir packs dir. The bundle is named after the directory's base name.
func PackDir(dir string) (*Bundle, error) {
	dir = filepath.Clean(dir)
	name := filepath.Base(dir)
	if err := checkBundleName(name); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		entry := path.Join(name, filepath.ToSlash(rel))

		hdr := &tar.Header{
			Name:    entry,
			Mode:    int64(info.Mode().Perm()),
			ModTime: info.ModTime().UTC().Truncate(time.Second),
			Format:  tar.FormatPAX,
		}
		switch {
		case info.IsDir():
			hdr.Typeflag = tar.TypeDir
			hdr.Name += "/"
			return tw.WriteHeader(hdr)
		case info.Mode().IsRegular():
			hdr.Typeflag = tar.TypeReg
			hdr.Size = info.Size()
			if buf.Len()+int(hdr.Size) > MaxBundleSize {
				return ErrBundleTooLarge
			}
			if err := tw.WriteHeader(hdr); err != nil {
				return err
			}
			f, err := os.Open(p)
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = io.Copy(tw, f)
			return err
		default:
			return fmt.Errorf("%w: %s", ErrBundleUnsupported, p)
		}
	})
	if err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	if buf.Len() > MaxBundleSize {
		return nil, ErrBundleTooLarge
	}
	return &Bundle{Name: name, Data: buf.Bytes()}, nil
}

// Entries lists the bundle contents after checking every entry is safe to unpack.
func (b *Bundle) Entries() ([]BundleEntry, error) {
	var entries []BundleEntry
	err := b.walk(func(hdr *tar.Header, rel string, _ io.Reader) error {
		entries = append(entries, BundleEntry{
			Path:  rel,
			Mode:  os.FileMode(hdr.Mode).Perm(),
			Size:  hdr.Size,
			IsDir: hdr.Typeflag == tar.TypeDir,
		})
		return nil
	})
	return entries, err
}

// walk visits every entry with its path relative to the bundle root ("." for the root).
func (b *Bundle) walk(fn func(hdr *tar.Header, rel string, r io.Reader) error) error {
	if err := checkBundleName(b.Name); err != nil {
		return err
	}
	tr := tar.NewReader(bytes.NewReader(b.Data))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBundleEntry, err)
		}
		rel, err := b.relPath(hdr)
		if err != nil {
			return err
		}
		if err := fn(hdr, rel, tr); err != nil {
			return err
		}
	}
}

func (b *Bundle) relPath(hdr *tar.Header) (string, error) {
	if hdr.Typeflag != tar.TypeReg && hdr.Typeflag != tar.TypeDir {
		return "", fmt.Errorf("%w: %s has type %q", ErrBundleEntry, hdr.Name, hdr.Typeflag)
	}
	name := hdr.Name
	if strings.Contains(name, `\`) || path.IsAbs(name) {
		return "", fmt.Errorf("%w: %s", ErrBundleEntry, hdr.Name)
	}
	for _, part := range strings.Split(strings.TrimSuffix(name, "/"), "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %s", ErrBundleEntry, hdr.Name)
		}
	}
	clean := path.Clean(name)
	if clean == b.Name {
		if hdr.Typeflag != tar.TypeDir {
			return "", fmt.Errorf("%w: %s", ErrBundleEntry, hdr.Name)
		}
		return ".", nil
	}
	rel, ok := strings.CutPrefix(clean, b.Name+"/")
	if !ok {
		return "", fmt.Errorf("%w: %s is outside %s/", ErrBundleEntry, hdr.Name, b.Name)
	}
	return rel, nil
}

// Unpack extracts the bundle to dst/Name and returns that path. Extraction
// happens in a staging directory inside dst which is renamed into place only
// after every entry was written, so a rejected bundle leaves nothing behind.
func (b *Bundle) Unpack(dst string) (string, error) {
	target := filepath.Join(dst, b.Name)
	if _, err := os.Lstat(target); err == nil {
		return "", fmt.Errorf("%w: %s", ErrBundleExists, target)
	}
	// Validate before touching the filesystem.
	if _, err := b.Entries(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dst, 0o700); err != nil {
		return "", err
	}

	stage, err := os.MkdirTemp(dst, "."+b.Name+"-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(stage)
	root := filepath.Join(stage, b.Name)
	if err := os.Mkdir(root, 0o700); err != nil {
		return "", err
	}

	rootMode := os.FileMode(0o700)
	dirModes := map[string]os.FileMode{}
	err = b.walk(func(hdr *tar.Header, rel string, r io.Reader) error {
		p := filepath.Join(root, filepath.FromSlash(rel))
		mode := os.FileMode(hdr.Mode).Perm()
		if hdr.Typeflag == tar.TypeDir {
			if err := os.MkdirAll(p, 0o700); err != nil {
				return err
			}
			if rel == "." {
				rootMode = mode
			} else {
				dirModes[p] = mode
			}
			return nil
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return err
		}
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, r); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		return os.Chmod(p, mode)
	})
	if err != nil {
		return "", err
	}

	// Directory modes last, deepest first, so read-only directories can still be filled.
	dirs := make([]string, 0, len(dirModes))
	for d := range dirModes {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, d := range dirs {
		if err := os.Chmod(d, dirModes[d]); err != nil {
			return "", err
		}
	}

	if err := os.Rename(root, target); err != nil {
		return "", err
	}
	if err := os.Chmod(target, rootMode); err != nil {
		return "", err
	}
	return target, nil
}
