package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/realtime"
	chat "github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/application/domain"
	"github.com/Team-7-graduated-project/HelloB-sub001/internal/pkg/chat/client"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile [name]",
	Short: "Set your display name",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfile,
}

var openCmd = &cobra.Command{
	Use:   "open [participant-id]",
	Short: "Find or create the conversation with another user",
	Args:  cobra.ExactArgs(1),
	RunE:  runOpen,
}

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "List your conversations, most recent first",
	RunE:  runInbox,
}

var sendCmd = &cobra.Command{
	Use:   "send [conversation-id] [message]",
	Short: "Send a message",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runSend,
}

var tailCmd = &cobra.Command{
	Use:   "tail [conversation-id]",
	Short: "Follow a conversation live; lines typed on stdin are sent",
	Args:  cobra.ExactArgs(1),
	RunE:  runTail,
}

func init() {
	profileCmd.Flags().String("photo", "", "Photo URL")
	sendCmd.Flags().String("client-id", "", "Idempotency key; retries with the same key are stored once")
	tailCmd.Flags().String("self", "", "Your user id, used to label messages (defaults to --user)")
	tailCmd.Flags().Bool("ws", false, "Send typed lines over the live channel instead of REST")
}

func runProfile(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	photo, _ := cmd.Flags().GetString("photo")
	u, err := c.UpdateProfile(cmd.Context(), args[0], photo)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %q\n", u.ID, u.Name)
	return nil
}

func runOpen(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	conv, created, err := c.FindOrCreateConversation(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	state := "existing"
	if created {
		state = "new"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %d messages)\n", conv.ID, state, len(conv.Messages))
	return nil
}

func runInbox(cmd *cobra.Command, _ []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	convs, err := c.ListConversations(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWITH\tUNREAD\tLAST ACTIVITY\tLAST MESSAGE")
	for _, conv := range convs {
		var with []string
		for _, p := range conv.Participants {
			name := p.Name
			if name == "" {
				name = p.UserID
			}
			with = append(with, name)
		}
		last := ""
		if n := len(conv.Messages); n > 0 {
			last = preview(conv.Messages[n-1].Content)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", conv.ID, strings.Join(with, ", "), conv.UnreadCount,
			conv.LastActivity.Local().Format("2006-01-02 15:04"), last)
	}
	return w.Flush()
}

func runSend(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	var clientID *string
	if id, _ := cmd.Flags().GetString("client-id"); id != "" {
		clientID = &id
	}
	m, replayed, err := c.SendMessage(cmd.Context(), args[0], strings.Join(args[1:], " "), clientID, "")
	if err != nil {
		return err
	}
	if replayed {
		fmt.Fprintf(cmd.OutOrStdout(), "already stored as #%d (%s)\n", m.Seq, m.ID)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "sent #%d (%s)\n", m.Seq, m.ID)
	return nil
}

func runTail(cmd *cobra.Command, args []string) error {
	c, err := newClient(cmd)
	if err != nil {
		return err
	}
	self, _ := cmd.Flags().GetString("self")
	if self == "" {
		self, _ = cmd.Flags().GetString("user")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.ErrOrStderr()
	session, err := client.Open(ctx, c, self, args[0], func(e realtime.ErrorData) {
		fmt.Fprintf(out, "! %s: %s\n", e.Code, e.Message)
	})
	if err != nil {
		return err
	}

	var mu sync.Mutex
	printed := make(map[string]bool)
	status := session.View.Status()
	show := func() {
		for _, e := range session.View.Entries() {
			if e.State != client.EntryConfirmed || printed[e.Message.ID] {
				continue
			}
			printMessage(cmd.OutOrStdout(), self, e.Message)
			printed[e.Message.ID] = true
		}
		if st := session.View.Status(); st != status {
			status = st
			fmt.Fprintf(out, "-- %s\n", st)
		}
	}
	session.View.OnChange(func() {
		mu.Lock()
		defer mu.Unlock()
		show()
	})
	mu.Lock()
	show()
	mu.Unlock()

	submit := func(ctx context.Context, line string) error {
		_, err := session.View.Submit(ctx, line)
		return err
	}
	if useWS, _ := cmd.Flags().GetBool("ws"); useWS {
		// The echo of a socket send arrives as a live message.
		submit = func(_ context.Context, line string) error {
			id := uuid.NewString()
			return session.Channel.SendChat(args[0], line, &id)
		}
	}
	go readInput(ctx, cmd.InOrStdin(), submit, out)

	if err := session.Run(ctx); err != nil {
		fmt.Fprintf(out, "! live channel: %v\n", err)
	}
	return nil
}

func readInput(ctx context.Context, in io.Reader, submit func(context.Context, string) error, out io.Writer) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := submit(ctx, line); err != nil {
				fmt.Fprintf(out, "! not sent: %v\n", err)
			}
		}
	}
}

func printMessage(w io.Writer, self string, m chat.Message) {
	who := m.SenderID
	if who == self {
		who = "you"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", m.CreatedAt.Local().Format("15:04:05"), who, m.Content)
}

func preview(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > 40 {
		return string(r[:37]) + "..."
	}
	return s
}
