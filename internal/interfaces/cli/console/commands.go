package console

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/orris-inc/helpdesk/internal/application/ticket/usecases"
	"github.com/orris-inc/helpdesk/internal/domain/profile"
	domainTicket "github.com/orris-inc/helpdesk/internal/domain/ticket"
	vo "github.com/orris-inc/helpdesk/internal/domain/ticket/valueobjects"
	"github.com/orris-inc/helpdesk/internal/infrastructure/permission"
	"github.com/orris-inc/helpdesk/internal/shared/errors"
)

type command struct {
	usage   string
	summary string
	run     func(ctx context.Context, args []string) error
}

func (s *Shell) commandTable() map[string]command {
	quit := command{usage: "quit", summary: "Leave the console", run: func(context.Context, []string) error { return errQuit }}
	return map[string]command{
		"signup":  {"signup [--role admin|customer] <email>", "Create an account (does not sign in)", s.cmdSignUp},
		"signin":  {"signin <email>", "Sign in and resolve the profile", s.cmdSignIn},
		"signout": {"signout", "End the current session", s.cmdSignOut},
		"reset":   {"reset [--redirect url] <email>", "Send a password reset link", s.cmdReset},
		"whoami":  {"whoami", "Show the session, profile and location", s.cmdWhoAmI},
		"go":      {"go <path>", "Navigate; redirects are applied and printed", s.cmdGo},
		"profile": {"profile [--name text] [--avatar url]", "Update the signed-in profile", s.cmdProfile},
		"tickets": {"tickets [status|all] [--sort updated|priority|status]", "List visible tickets", s.cmdTickets},
		"show":    {"show <ticket-id>", "Show a ticket with its thread", s.cmdShow},
		"new":     {"new [--priority p] [--category c] [--message text] <subject>", "Open a ticket", s.cmdNew},
		"reply":   {"reply [--file path]... <ticket-id> <content>", "Reply on a ticket thread", s.cmdReply},
		"status":  {"status <ticket-id> <open|pending|resolved>", "Change a ticket status (admin)", s.cmdStatus},
		"assign":  {"assign <ticket-id> <user-id|none>", "Assign or unassign a ticket (admin)", s.cmdAssign},
		"attach":  {"attach <message-id> <path>", "Attach a local file to a message", s.cmdAttach},
		"help":    {"help", "Show this help", s.cmdHelp},
		"quit":    quit,
		"exit":    quit,
	}
}

func newFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string, minArgs int, usage string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, errors.NewBadRequestError(err.Error(), "usage: "+usage)
	}
	if fs.NArg() < minArgs {
		return nil, errors.NewBadRequestError("missing arguments", "usage: "+usage)
	}
	return fs.Args(), nil
}

// =====================================================================
// Session
// =====================================================================

func (s *Shell) cmdSignUp(ctx context.Context, args []string) error {
	fs := newFlags("signup")
	role := fs.String("role", string(profile.RoleCustomer), "profile role")
	rest, err := parseFlags(fs, args, 1, s.commands["signup"].usage)
	if err != nil {
		return err
	}

	password, err := s.readSecret("Password: ")
	if err != nil {
		return err
	}
	if err := s.coordinator.SignUp(ctx, rest[0], password, profile.Role(*role)); err != nil {
		return err
	}

	s.printer.line("signed up %s as %s; use 'signin %s' to continue", rest[0], *role, rest[0])
	return nil
}

func (s *Shell) cmdSignIn(ctx context.Context, args []string) error {
	rest, err := parseFlags(newFlags("signin"), args, 1, s.commands["signin"].usage)
	if err != nil {
		return err
	}

	password, err := s.readSecret("Password: ")
	if err != nil {
		return err
	}
	if err := s.coordinator.SignIn(ctx, rest[0], password); err != nil {
		return err
	}
	s.coordinator.Wait()

	return s.cmdWhoAmI(ctx, nil)
}

func (s *Shell) cmdSignOut(ctx context.Context, _ []string) error {
	if !s.coordinator.State().Authenticated() {
		return errors.NewUnauthorizedError("not signed in")
	}
	if err := s.coordinator.SignOut(ctx); err != nil {
		return err
	}
	s.printer.line("signed out")
	return nil
}

func (s *Shell) cmdReset(ctx context.Context, args []string) error {
	fs := newFlags("reset")
	redirect := fs.String("redirect", "", "link target for the reset page")
	rest, err := parseFlags(fs, args, 1, s.commands["reset"].usage)
	if err != nil {
		return err
	}

	if err := s.coordinator.SendPasswordReset(ctx, rest[0], *redirect); err != nil {
		return err
	}
	s.printer.line("if the email is registered, a reset link has been sent")
	return nil
}

type whoAmIView struct {
	Authenticated bool          `json:"authenticated"`
	UserID        string        `json:"user_id,omitempty"`
	Email         string        `json:"email,omitempty"`
	Role          *profile.Role `json:"role"`
	FullName      *string       `json:"full_name"`
	Location      string        `json:"location"`
}

func (s *Shell) cmdWhoAmI(_ context.Context, _ []string) error {
	st := s.coordinator.State()
	view := whoAmIView{
		Authenticated: st.Authenticated(),
		Role:          st.Role(),
		Location:      s.coordinator.Location(),
	}
	if st.Session != nil {
		view.UserID = st.Session.User.ID
		view.Email = st.Session.User.Email
	}
	if st.Profile != nil {
		view.FullName = st.Profile.FullName
	}

	return s.printer.emit(view, func(w io.Writer) {
		if !view.Authenticated {
			fmt.Fprintf(w, "signed out\nlocation: %s\n", view.Location)
			return
		}
		role := "(resolving)"
		if view.Role != nil {
			role = view.Role.String()
		}
		name := "-"
		if view.FullName != nil && *view.FullName != "" {
			name = *view.FullName
		}
		fmt.Fprintf(w, "email:    %s\nrole:     %s\nname:     %s\nlocation: %s\n", view.Email, role, name, view.Location)
	})
}

func (s *Shell) cmdGo(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errors.NewBadRequestError("missing arguments", "usage: "+s.commands["go"].usage)
	}
	s.coordinator.SetLocation(args[0])
	s.printer.line("location: %s", s.coordinator.Location())
	return nil
}

func (s *Shell) cmdProfile(ctx context.Context, args []string) error {
	fs := newFlags("profile")
	name := fs.String("name", "", "full name")
	avatar := fs.String("avatar", "", "avatar url")
	if _, err := parseFlags(fs, args, 0, s.commands["profile"].usage); err != nil {
		return err
	}

	var patch profile.Patch
	if fs.Changed("name") {
		patch.FullName = name
	}
	if fs.Changed("avatar") {
		patch.AvatarURL = avatar
	}
	if patch.IsEmpty() {
		return errors.NewBadRequestError("nothing to update", "usage: "+s.commands["profile"].usage)
	}

	updated, err := s.coordinator.UpdateProfile(ctx, patch)
	if err != nil {
		return err
	}
	return s.printer.emit(updated, func(w io.Writer) {
		fmt.Fprintf(w, "profile updated: %s\n", updated.DisplayName())
	})
}

// =====================================================================
// Tickets
// =====================================================================

func (s *Shell) cmdTickets(ctx context.Context, args []string) error {
	p, err := s.actor()
	if err != nil {
		return err
	}
	if err := s.authorize(p, permission.ResourceTicket, permission.ActionRead); err != nil {
		return err
	}

	fs := newFlags("tickets")
	sortBy := fs.String("sort", string(domainTicket.SortByUpdated), "sort key")
	rest, err := parseFlags(fs, args, 0, s.commands["tickets"].usage)
	if err != nil {
		return err
	}
	key := domainTicket.SortKey(*sortBy)
	if !key.IsValid() {
		return errors.NewValidationError("invalid sort key", *sortBy)
	}

	status := ""
	if len(rest) > 0 {
		status = rest[0]
	}

	list, err := s.tickets.ListTickets.Execute(ctx, usecases.ListTicketsQuery{
		Role:          p.Role,
		CurrentUserID: p.ID,
		Status:        status,
	})
	if err != nil {
		return err
	}
	domainTicket.SortTickets(list, key)

	return s.printer.emit(list, func(w io.Writer) {
		if len(list) == 0 {
			fmt.Fprintln(w, "no tickets")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tCATEGORY\tMSGS\tUPDATED\tSUBJECT")
		for _, t := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
				t.ID, t.Status, t.Priority, t.Category, t.MessageCount,
				t.UpdatedAt.Local().Format(time.DateTime), t.Subject)
		}
		_ = tw.Flush()
	})
}

func (s *Shell) cmdShow(ctx context.Context, args []string) error {
	p, err := s.actor()
	if err != nil {
		return err
	}
	if err := s.authorize(p, permission.ResourceTicket, permission.ActionRead); err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.NewBadRequestError("missing arguments", "usage: "+s.commands["show"].usage)
	}

	et, err := s.tickets.GetTicket.Execute(ctx, usecases.GetTicketQuery{TicketID: args[0]})
	if err != nil {
		return err
	}
	if !et.CanBeViewedBy(p.ID, p.Role) {
		return errors.NewNotFoundError("ticket not found", args[0])
	}

	return s.printer.emit(et, func(w io.Writer) { writeTicket(w, et) })
}

func writeTicket(w io.Writer, et *domainTicket.EnrichedTicket) {
	fmt.Fprintf(w, "%s  [%s, %s, %s]\n", et.Subject, et.Status, et.Priority, et.Category)
	fmt.Fprintf(w, "id:       %s\n", et.ID)
	if et.Customer != nil {
		fmt.Fprintf(w, "customer: %s\n", et.Customer.DisplayName())
	}
	if et.AssignedToProfile != nil {
		fmt.Fprintf(w, "assigned: %s\n", et.AssignedToProfile.DisplayName())
	} else if et.IsAssigned() {
		fmt.Fprintf(w, "assigned: %s\n", *et.AssignedTo)
	}
	for _, m := range et.Messages {
		sender := m.SenderID
		if m.Sender != nil {
			sender = m.Sender.DisplayName()
		}
		fmt.Fprintf(w, "\n--- %s  %s  (message %s)\n%s\n",
			sender, m.CreatedAt.Local().Format(time.DateTime), m.ID, m.Content)
		for _, a := range m.Attachments {
			fmt.Fprintf(w, "    attachment: %s (%d bytes)\n", a.FileName, a.FileSize)
		}
	}
}

func (s *Shell) cmdNew(ctx context.Context, args []string) error {
	p, err := s.actor()
	if err != nil {
		return err
	}
	if err := s.authorize(p, permission.ResourceTicket, permission.ActionCreate); err != nil {
		return err
	}

	fs := newFlags("new")
	priority := fs.String("priority", string(vo.PriorityMedium), "low, medium or high")
	category := fs.String("category", string(vo.CategoryGeneral), "ticket category")
	message := fs.String("message", "", "first message")
	rest, err := parseFlags(fs, args, 1, s.commands["new"].usage)
	if err != nil {
		return err
	}

	result, err := s.tickets.CreateTicket.Execute(ctx, usecases.CreateTicketCommand{
		Subject:        strings.Join(rest, " "),
		CustomerID:     p.ID,
		Priority:       *priority,
		Category:       *category,
		InitialMessage: *message,
	})
	if err != nil {
		return err
	}

	return s.printer.emit(result, func(w io.Writer) {
		fmt.Fprintf(w, "created ticket %s\n", result.Ticket.ID)
		if result.InitialMessageFailed {
			fmt.Fprintln(w, "warning: the first message could not be saved")
		}
	})
}

func (s *Shell) cmdReply(ctx context.Context, args []string) error {
	p, err := s.actor()
	if err != nil {
		return err
	}
	if err := s.authorize(p, permission.ResourceMessage, permission.ActionCreate); err != nil {
		return err
	}

	fs := newFlags("reply")
	paths := fs.StringArray("file", nil, "attach a local file")
	rest, err := parseFlags(fs, args, 2, s.commands["reply"].usage)
	if err != nil {
		return err
	}

	files, closeAll, err := s.openLocalFiles(*paths)
	defer closeAll()
	if err != nil {
		return err
	}

	result, err := s.tickets.Reply.Execute(ctx, usecases.ReplyToTicketCommand{
		TicketID:   rest[0],
		SenderID:   p.ID,
		SenderRole: p.Role,
		Content:    strings.Join(rest[1:], " "),
		Files:      files,
	})
	if err != nil {
		return err
	}

	return s.printer.emit(result, func(w io.Writer) {
		fmt.Fprintf(w, "posted message %s\n", result.Message.ID)
		if result.Reopened {
			fmt.Fprintln(w, "ticket reopened")
		}
		for _, a := range result.Attachments {
			fmt.Fprintf(w, "attached %s\n", a.FileName)
		}
		for _, name := range result.FailedFiles {
			fmt.Fprintf(w, "warning: failed to attach %s\n", name)
		}
	})
}

func (s *Shell) openLocalFiles(paths []string) ([]usecases.ReplyFile, func(), error) {
	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	files := make([]usecases.ReplyFile, 0, len(paths))
	for _, path := range paths {
		f, size, err := s.openLocalFile(path)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, f)
		files = append(files, usecases.ReplyFile{Name: filepath.Base(path), Size: size, Content: f})
	}
	return files, closeAll, nil
}

func (s *Shell) openLocalFile(path string) (io.ReadCloser, int64, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		return nil, 0, errors.NewBadRequestError("cannot read file", path)
	}
	if info.IsDir() {
		return nil, 0, errors.NewBadRequestError("not a file", path)
	}
	if s.maxUploadBytes > 0 && info.Size() > s.maxUploadBytes {
		return nil, 0, errors.NewValidationError("file exceeds maximum upload size", path)
	}
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, 0, errors.NewBadRequestError("cannot read file", path)
	}
	return f, info.Size(), nil
}

func (s *Shell) cmdStatus(ctx context.Context, args []string) error {
	p, err := s.actor()
	if err != nil {
		return err
	}
	if err := s.authorize(p, permission.ResourceTicket, permission.ActionUpdate); err != nil {
		return err
	}
	if len(args) != 2 {
		return errors.NewBadRequestError("missing arguments", "usage: "+s.commands["status"].usage)
	}

	status, err := vo.NewTicketStatus(args[1])
	if err != nil {
		return errors.NewValidationError(err.Error())
	}
	return s.updateTicket(ctx, args[0], domainTicket.Patch{Status: &status})
}

func (s *Shell) cmdAssign(ctx context.Context, args []string) error {
	p, err := s.actor()
	if err != nil {
		return err
	}
	if err := s.authorize(p, permission.ResourceTicket, permission.ActionUpdate); err != nil {
		return err
	}
	if err := s.authorize(p, permission.ResourceTicket, permission.ActionAssign); err != nil {
		return err
	}
	if len(args) != 2 {
		return errors.NewBadRequestError("missing arguments", "usage: "+s.commands["assign"].usage)
	}

	patch := domainTicket.Patch{ClearAssignee: true}
	if args[1] != "none" {
		assignee := args[1]
		patch = domainTicket.Patch{AssignedTo: &assignee}
	}
	return s.updateTicket(ctx, args[0], patch)
}

func (s *Shell) updateTicket(ctx context.Context, ticketID string, patch domainTicket.Patch) error {
	updated, err := s.tickets.UpdateTicket.Execute(ctx, usecases.UpdateTicketCommand{TicketID: ticketID, Patch: patch})
	if err != nil {
		return err
	}
	return s.printer.emit(updated, func(w io.Writer) {
		assignee := "nobody"
		if updated.IsAssigned() {
			assignee = *updated.AssignedTo
		}
		fmt.Fprintf(w, "ticket %s: %s, assigned to %s\n", updated.ID, updated.Status, assignee)
	})
}

func (s *Shell) cmdAttach(ctx context.Context, args []string) error {
	p, err := s.actor()
	if err != nil {
		return err
	}
	if err := s.authorize(p, permission.ResourceAttachment, permission.ActionCreate); err != nil {
		return err
	}
	if len(args) != 2 {
		return errors.NewBadRequestError("missing arguments", "usage: "+s.commands["attach"].usage)
	}
	messageID, path := args[0], args[1]

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	t, err := s.ticketRows.GetByID(ctx, msg.TicketID)
	if err != nil {
		return err
	}
	if !t.CanBeViewedBy(p.ID, p.Role) {
		return errors.NewNotFoundError("message not found", messageID)
	}
	if msg.SenderID != p.ID && !p.Role.IsAdmin() {
		return errors.NewForbiddenError("only the sender may attach files to a message")
	}

	f, size, err := s.openLocalFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	a, err := s.tickets.UploadAttachment.Execute(ctx, usecases.UploadAttachmentCommand{
		MessageID: messageID,
		FileName:  filepath.Base(path),
		FileSize:  size,
		Content:   f,
	})
	if err != nil {
		return err
	}
	return s.printer.emit(a, func(w io.Writer) {
		fmt.Fprintf(w, "attached %s to message %s\n", a.FileName, a.MessageID)
	})
}

func (s *Shell) cmdHelp(_ context.Context, _ []string) error {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		if name != "exit" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	for _, name := range names {
		c := s.commands[name]
		fmt.Fprintf(tw, "  %s\t%s\n", c.usage, c.summary)
	}
	return tw.Flush()
}
