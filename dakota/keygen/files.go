package keygen

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Permissions of generated directories, secret files and public keys.
const (
	DirMode    os.FileMode = 0o700
	SecretMode os.FileMode = 0o600
	PublicMode os.FileMode = 0o644
)

// mkdirp creates p and tightens its mode. Chmod failures on foreign-owned
// directories are ignored.
func mkdirp(p string, mode os.FileMode) error {
	if err := os.MkdirAll(p, mode); err != nil {
		return err
	}
	if err := os.Chmod(p, mode); err != nil && !errors.Is(err, fs.ErrPermission) {
		return err
	}
	return nil
}

// writeFile writes s to p and sets mode explicitly, so umask cannot widen it.
func writeFile(p, s string, mode os.FileMode) error {
	if err := os.WriteFile(p, []byte(s), mode); err != nil {
		return err
	}
	if err := os.Chmod(p, mode); err != nil && !errors.Is(err, fs.ErrPermission) {
		return err
	}
	return nil
}

// DeleteTree removes path best-effort, deepest entries first. Files are made
// user-writable before removal. It returns the paths that could not be removed.
func DeleteTree(path string) []string {
	info, err := os.Lstat(path)
	if err != nil {
		return nil
	}
	if !info.IsDir() {
		_ = os.Chmod(path, SecretMode)
		if err := os.Remove(path); err != nil {
			return []string{path}
		}
		return nil
	}

	var entries []string
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err == nil && p != path {
			entries = append(entries, p)
		}
		return nil
	})
	sort.Slice(entries, func(i, j int) bool { return len(entries[i]) > len(entries[j]) })

	var failed []string
	for _, p := range entries {
		fi, err := os.Lstat(p)
		if err != nil {
			continue
		}
		if !fi.IsDir() {
			_ = os.Chmod(p, SecretMode)
		}
		if err := os.Remove(p); err != nil {
			failed = append(failed, p)
		}
	}
	if err := os.Remove(path); err != nil {
		failed = append(failed, path)
	}
	return failed
}
