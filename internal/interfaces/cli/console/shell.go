// Package console is an interactive client that drives the session
// coordinator and the ticket aggregator from a terminal.
package console

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/term"

	"github.com/orris-inc/helpdesk/internal/application/session"
	ticketApp "github.com/orris-inc/helpdesk/internal/application/ticket"
	"github.com/orris-inc/helpdesk/internal/domain/profile"
	domainTicket "github.com/orris-inc/helpdesk/internal/domain/ticket"
	"github.com/orris-inc/helpdesk/internal/infrastructure/auth"
	"github.com/orris-inc/helpdesk/internal/interfaces/cli/runtime"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

var errQuit = stderrors.New("quit")

type policyEnforcer interface {
	Enforce(sub, resource, action string) (bool, error)
}

type messageReader interface {
	GetByID(ctx context.Context, id string) (*domainTicket.Message, error)
}

type ticketReader interface {
	GetByID(ctx context.Context, id string) (*domainTicket.Ticket, error)
}

type ShellOptions struct {
	In     io.Reader
	Out    io.Writer
	Format string
	// Fs is where attach and reply --file read local files. Defaults to the OS.
	Fs afero.Fs
}

// Shell reads commands line by line. It is the navigator of its coordinator,
// so redirects are printed as they happen.
type Shell struct {
	in      io.Reader
	scanner *bufio.Scanner
	out     *lockedWriter
	printer *printer
	fs      afero.Fs
	logger  logger.Interface

	authClient  *auth.Client
	coordinator *session.Coordinator
	tickets     ticketApp.Executors
	messages    messageReader
	ticketRows  ticketReader
	enforcer    policyEnforcer

	maxUploadBytes int64
	commands       map[string]command
}

// NewShell signs nobody in; it bootstraps an empty session and is ready for
// commands when it returns.
func NewShell(ctx context.Context, app *runtime.App, opts ShellOptions) (*Shell, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Format == "" {
		opts.Format = FormatText
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	out := &lockedWriter{w: opts.Out}
	p, err := newPrinter(out, opts.Format)
	if err != nil {
		return nil, err
	}

	s := &Shell{
		in:             opts.In,
		scanner:        bufio.NewScanner(opts.In),
		out:            out,
		printer:        p,
		fs:             opts.Fs,
		logger:         app.Logger.Named("console"),
		authClient:     app.NewAuthClient(),
		tickets:        app.Aggregator.Executors(),
		messages:       app.Messages,
		ticketRows:     app.Tickets,
		enforcer:       app.Enforcer,
		maxUploadBytes: int64(app.Config.Server.MaxUploadMB) << 20,
	}
	s.commands = s.commandTable()

	s.authClient.Start(ctx)
	s.coordinator = session.NewCoordinator(s.authClient, app.Profiles, app.Resolver,
		session.NavigatorFunc(s.navigate), app.Logger)
	if err := s.coordinator.Start(ctx); err != nil {
		s.authClient.Close()
		return nil, err
	}
	return s, nil
}

func (s *Shell) navigate(path string) {
	s.printer.line("redirect: %s", path)
}

// Run reads commands until quit, end of input or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	s.printer.line("helpdesk console. Type 'help' for commands.")
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprintf(s.out, "%s> ", s.coordinator.Location())

		line, ok := s.readLine()
		if !ok {
			fmt.Fprintln(s.out)
			return s.scanner.Err()
		}

		if err := s.Exec(ctx, line); err != nil {
			if stderrors.Is(err, errQuit) {
				return nil
			}
			s.printError(err)
		}
	}
}

// Exec runs a single command line.
func (s *Shell) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	cmd, ok := s.commands[name]
	if !ok {
		return errors.NewBadRequestError("unknown command", name+" (try 'help')")
	}
	return cmd.run(ctx, args)
}

// Close signs nothing out; it stops the background listeners.
func (s *Shell) Close() {
	s.coordinator.Close()
	s.authClient.Close()
}

func (s *Shell) readLine() (string, bool) {
	if !s.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.scanner.Text()), true
}

// readSecret prompts without echo on a terminal and reads a plain line
// otherwise.
func (s *Shell) readSecret(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if f, ok := s.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(s.out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, ok := s.readLine()
	if !ok {
		return "", io.ErrUnexpectedEOF
	}
	return line, nil
}

func (s *Shell) printError(err error) {
	if appErr := errors.GetAppError(err); appErr != nil {
		if appErr.Details != "" {
			s.printer.line("error: %s (%s)", appErr.Message, appErr.Details)
			return
		}
		s.printer.line("error: %s", appErr.Message)
		return
	}
	s.printer.line("error: %v", err)
}

// actor returns the signed-in profile. A session whose profile has not been
// resolved yet counts as signed out for ticket commands.
func (s *Shell) actor() (*profile.Profile, error) {
	st := s.coordinator.State()
	if !st.Authenticated() {
		return nil, errors.NewUnauthorizedError("not signed in", "use 'signin <email>'")
	}
	if st.Profile == nil {
		return nil, errors.NewUnauthorizedError("profile not resolved yet", "try again in a moment")
	}
	return st.Profile, nil
}

func (s *Shell) authorize(p *profile.Profile, resource, action string) error {
	allowed, err := s.enforcer.Enforce(p.Role.String(), resource, action)
	if err != nil {
		return errors.NewInternalError("permission check failed").WithCause(err)
	}
	if !allowed {
		return errors.NewForbiddenError("insufficient permissions", resource+":"+action)
	}
	return nil
}
