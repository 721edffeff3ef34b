package keygen

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Errors returned by TesseraRunner and Generator.Run.
var (
	ErrTesseraNotFound      = errors.New("keygen: tessera binary not found in PATH")
	ErrTesseraOutputMissing = errors.New("keygen: tessera did not produce the expected key files")
	ErrTesseraNotConfigured = errors.New("keygen: tessera keys requested without a runner")
)

// TesseraRunner produces Tessera key pairs by invoking the tessera binary.
// Output files keep tessera's own names: <Basename>.key and <Basename>.pub.
type TesseraRunner struct {
	Bin      string
	Basename string
	// Unlocked keys are generated with stdin at /dev/null so tessera does not prompt for a password.
	Unlocked bool
	Stdout   *os.File
	Stderr   *os.File
}

// TesseraResult describes one generated Tessera key pair.
type TesseraResult struct {
	Name     string
	Dir      string
	BasePath string
	KeyPath  string
	PubPath  string
}

// Generate runs "<bin> -keygen -filename <base>", falling back to the newer
// "<bin> keygen --keyout <base>" syntax when the first form wrote nothing.
func (t *TesseraRunner) Generate(ctx context.Context, root, name string) (TesseraResult, error) {
	if name == "" {
		return TesseraResult{}, ErrEmptyName
	}
	bin, err := exec.LookPath(t.Bin)
	if err != nil {
		return TesseraResult{}, fmt.Errorf("%w: %s", ErrTesseraNotFound, t.Bin)
	}

	dir := filepath.Join(root, name)
	if err := mkdirp(dir, DirMode); err != nil {
		return TesseraResult{}, err
	}
	basename := t.Basename
	if basename == "" {
		basename = "nodeKey"
	}
	base := filepath.Join(dir, basename)
	res := TesseraResult{
		Name:     name,
		Dir:      dir,
		BasePath: base,
		KeyPath:  base + ".key",
		PubPath:  base + ".pub",
	}

	runErr := t.run(ctx, bin, "-keygen", "-filename", base)
	if !exists(res.KeyPath) || !exists(res.PubPath) {
		if ctx.Err() != nil {
			return TesseraResult{}, ctx.Err()
		}
		runErr = errors.Join(runErr, t.run(ctx, bin, "keygen", "--keyout", base))
	}
	if !exists(res.KeyPath) || !exists(res.PubPath) {
		return TesseraResult{}, errors.Join(
			fmt.Errorf("%w: %s, %s", ErrTesseraOutputMissing, res.KeyPath, res.PubPath), runErr)
	}

	_ = os.Chmod(res.KeyPath, SecretMode)
	_ = os.Chmod(res.PubPath, PublicMode)
	return res, nil
}

func (t *TesseraRunner) run(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = t.Stdout
	cmd.Stderr = t.Stderr
	if !t.Unlocked {
		cmd.Stdin = os.Stdin
	}
	// A nil Stdin reads from the null device.
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("keygen: %s %v: %w", bin, args, err)
	}
	return nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
