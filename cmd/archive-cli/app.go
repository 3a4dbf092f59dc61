package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/univ-archive/internal/client"
	"github.com/noah-isme/univ-archive/internal/render"
	"github.com/noah-isme/univ-archive/pkg/config"
	"github.com/noah-isme/univ-archive/pkg/logger"
)

const programName = "archive-cli"

// errReported ends a command whose failure was already printed.
var errReported = errors.New("erreur déjà affichée")

// app carries everything a command needs. It is filled by the root command's
// PersistentPreRunE so tests can swap the streams and the browser opener.
type app struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer

	baseURL string
	verbose bool

	cfg       config.ClientConfig
	maxUpload int64
	logger    *zap.Logger
	client    *client.Client
	view      *render.View
	cards     render.Cards
	open      func(url string) error
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		view:   render.NewView(out),
		cards:  render.NewCards(programName),
		open:   openBrowser,
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("chargement de la configuration : %w", err)
	}
	a.cfg = cfg.Client
	a.maxUpload = cfg.Uploads.MaxFileSizeBytes
	if a.baseURL != "" {
		a.cfg.BaseURL = strings.TrimRight(a.baseURL, "/")
	}

	if a.logger == nil {
		l, err := logger.NewCLI(a.verbose)
		if err != nil {
			return fmt.Errorf("initialisation du journal : %w", err)
		}
		a.logger = l
	}
	a.client = client.New(client.ConfigFrom(a.cfg, a.logger))
	a.logger.Debug("client ready", zap.String("base_url", a.client.BaseURL()), zap.String("command", cmd.Name()))
	return nil
}

func (a *app) teardown() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) print(s string) {
	fmt.Fprint(a.out, s)
}

func (a *app) errorPanel(err error, hint string) string {
	return a.view.Error(err, hint)
}

// confirm asks a yes/no question on the input stream. Anything but an explicit
// yes, including EOF, is a no.
func (a *app) confirm(question string) bool {
	fmt.Fprintf(a.out, "%s [o/N] ", question)
	line, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "o", "oui", "y", "yes":
		return true
	default:
		return false
	}
}

func (a *app) prompt(label string) (string, error) {
	fmt.Fprint(a.out, label)
	line, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
