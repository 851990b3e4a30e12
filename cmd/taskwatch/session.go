package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// promptSession asks for the string session on the terminal without echo.
func promptSession(in *os.File, out io.Writer) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("telegram.session is required (SESSION_STRING) when stdin is not a terminal")
	}

	_, _ = fmt.Fprint(out, "Please paste your Telegram session string: ")
	b, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read session string: %w", err)
	}

	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", errors.New("no session string provided")
	}
	return s, nil
}
