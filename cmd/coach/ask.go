package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tailored-agentic-units/coach/coach"
	"github.com/tailored-agentic-units/coach/rpc"
)

var (
	askServer   string
	askProvider string
	askEpic     string
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Chat with the coach in the terminal",
	Long: `Send one message, or start an interactive session when no message
is given. Inside a session, /outline <type> shows a draft, /clear [scope]
resets context and /quit exits.

With --server the conversation runs against a remote coach over Connect;
otherwise the coach runs in-process.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askServer, "server", "", "Base URL of a running coach (e.g. http://localhost:8050)")
	askCmd.Flags().StringVar(&askProvider, "provider", "", "LLM provider for this conversation: openai or ollama")
	askCmd.Flags().StringVar(&askEpic, "epic", "", "Epic draft to set as context")
}

// conversation is the coach surface the terminal client drives. Both
// *coach.Coach and *rpc.Client implement it.
type conversation interface {
	Chat(ctx context.Context, req coach.ChatRequest) (*coach.ChatResponse, error)
	Outline(ctx context.Context, sessionID, typ string) (*coach.OutlineResponse, error)
	Clear(ctx context.Context, sessionID, scope string) (*coach.ClearResponse, error)
}

var (
	coachStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED")).
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))
)

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var conv conversation
	if askServer != "" {
		conv = rpc.NewClient(http.DefaultClient, askServer)
	} else {
		c, err := newCoach(ctx, newLogger())
		if err != nil {
			return err
		}
		defer c.Close()
		conv = c
	}

	t := &terminal{
		conv:  conv,
		out:   cmd.OutOrStdout(),
		width: termWidth(),
		epic:  askEpic,
	}

	if len(args) > 0 {
		return t.send(ctx, strings.Join(args, " "))
	}

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	if interactive {
		fmt.Fprintln(t.out, dimStyle.Render("Discovery Coach. /outline <type>, /clear [scope], /quit"))
	}
	return t.loop(ctx, cmd.InOrStdin(), interactive)
}

// terminal holds one conversation's state between messages.
type terminal struct {
	conv      conversation
	out       io.Writer
	width     int
	sessionID string
	epic      string
}

func (t *terminal) loop(ctx context.Context, in io.Reader, interactive bool) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		if interactive {
			fmt.Fprint(t.out, userStyle.Render("you> "))
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var err error
		switch fields := strings.Fields(line); fields[0] {
		case "/quit", "/exit":
			return nil
		case "/outline":
			err = t.outline(ctx, arg(fields, "epic"))
		case "/clear":
			err = t.clear(ctx, arg(fields, "all"))
		default:
			err = t.send(ctx, line)
		}

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(t.out, errorStyle.Render("error: "+err.Error()))
		}
	}
}

func (t *terminal) send(ctx context.Context, message string) error {
	resp, err := t.conv.Chat(ctx, coach.ChatRequest{
		SessionID:  t.sessionID,
		Message:    message,
		ActiveEpic: t.epic,
		Generation: coach.Generation{Provider: askProvider},
	})
	if err != nil {
		return err
	}
	t.sessionID = resp.SessionID
	t.epic = ""

	fmt.Fprintln(t.out, coachStyle.Render("coach>"))
	fmt.Fprintln(t.out, t.wrap(resp.Response))
	if resp.Detected != nil {
		fmt.Fprintln(t.out, dimStyle.Render(fmt.Sprintf("[%s draft captured; /outline %s to view]", resp.Detected.Kind, resp.Detected.Kind)))
	}
	return nil
}

func (t *terminal) outline(ctx context.Context, typ string) error {
	resp, err := t.conv.Outline(ctx, t.sessionID, typ)
	if err != nil {
		return err
	}
	if resp.Content == "" {
		fmt.Fprintln(t.out, dimStyle.Render(resp.Message))
		return nil
	}
	fmt.Fprintln(t.out, t.wrap(resp.Content))
	return nil
}

func (t *terminal) clear(ctx context.Context, scope string) error {
	resp, err := t.conv.Clear(ctx, t.sessionID, scope)
	if err != nil {
		return err
	}
	fmt.Fprintln(t.out, dimStyle.Render(resp.Message))
	return nil
}

func (t *terminal) wrap(text string) string {
	if t.width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(t.width).Render(text)
}

func arg(fields []string, fallback string) string {
	if len(fields) > 1 {
		return fields[1]
	}
	return fallback
}

// termWidth returns the stdout width, or 0 when stdout is not a terminal.
func termWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	width, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return width
}
