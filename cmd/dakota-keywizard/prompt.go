package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

var errPasswordMismatch = errors.New("keystore passwords do not match")

// prompter asks questions on out and reads answers from in. Passwords are
// read without echo when in is a terminal.
type prompter struct {
	in           *bufio.Reader
	out          io.Writer
	readPassword func() ([]byte, error)
}

func newTerminalPrompter() *prompter {
	p := &prompter{in: bufio.NewReader(os.Stdin), out: os.Stderr}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		p.readPassword = func() ([]byte, error) {
			pw, err := term.ReadPassword(fd)
			fmt.Fprintln(p.out)
			return pw, err
		}
	}
	return p
}

func (p *prompter) line(msg string) (string, error) {
	fmt.Fprint(p.out, msg)
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// YesNo asks until it gets y/yes/n/no; an empty answer takes the default.
func (p *prompter) YesNo(msg string, defaultYes bool) (bool, error) {
	d := "y/N"
	if defaultYes {
		d = "Y/n"
	}
	for {
		ans, err := p.line(fmt.Sprintf("%s [%s]: ", msg, d))
		if err != nil {
			return false, err
		}
		switch strings.ToLower(ans) {
		case "":
			return defaultYes, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}

// Int asks for an integer in [lo, hi].
func (p *prompter) Int(msg string, def, lo, hi int) (int, error) {
	for {
		raw, err := p.line(fmt.Sprintf("%s [%d]: ", msg, def))
		if err != nil {
			return 0, err
		}
		if raw == "" {
			return def, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			fmt.Fprintln(p.out, "Enter an integer.")
			continue
		}
		if n < lo || n > hi {
			fmt.Fprintf(p.out, "Enter a value in range [%d, %d].\n", lo, hi)
			continue
		}
		return n, nil
	}
}

// String asks for a value; an empty answer takes def.
func (p *prompter) String(msg, def string) (string, error) {
	if def != "" {
		msg = fmt.Sprintf("%s [%s]", msg, def)
	}
	s, err := p.line(msg + ": ")
	if err != nil {
		return "", err
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}

// NonEmpty asks until a value is given or def is available.
func (p *prompter) NonEmpty(msg, def string) (string, error) {
	for {
		s, err := p.String(msg, def)
		if err != nil {
			return "", err
		}
		if s != "" {
			return s, nil
		}
		fmt.Fprintln(p.out, "Value required.")
	}
}

func (p *prompter) password(msg string) ([]byte, error) {
	fmt.Fprint(p.out, msg)
	if p.readPassword != nil {
		return p.readPassword()
	}
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return nil, err
	}
	return []byte(strings.TrimRight(s, "\r\n")), nil
}

// NewPassword reads a password twice and fails if the entries differ.
func (p *prompter) NewPassword() ([]byte, error) {
	pw1, err := p.password("Keystore password (empty allowed, not recommended): ")
	if err != nil {
		return nil, err
	}
	pw2, err := p.password("Confirm password: ")
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(pw1, pw2) {
		return nil, errPasswordMismatch
	}
	return pw1, nil
}

// Password reads one password.
func (p *prompter) Password(msg string) ([]byte, error) {
	return p.password(msg + ": ")
}
