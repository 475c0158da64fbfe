package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type prompter struct {
	in  io.Reader
	out io.Writer
	r   *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	return &prompter{in: in, out: cmd.OutOrStdout(), r: bufio.NewReader(in)}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		if errors.Is(err, io.EOF) {
			return "", errors.New("unexpected end of input")
		}
		return "", err
	}
	return strings.TrimSpace(s), nil
}

// password reads without echo on a terminal and falls back to a plain line
// when input is piped.
func (p *prompter) password(label string) (string, error) {
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(p.out, label)
		pass, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		return string(pass), err
	}
	s, err := p.line(label)
	if err != nil {
		return "", err
	}
	fmt.Fprintln(p.out)
	return s, nil
}

// valueOr returns flag when set, otherwise asks for it.
func (p *prompter) valueOr(flag, label string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return p.line(label)
}
