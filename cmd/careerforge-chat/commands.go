package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/careerforge/careerforge/client"
	"github.com/careerforge/careerforge/models"
	"github.com/spf13/cobra"
)

var (
	sendSession  string
	sendNew      bool
	sendDocument string
)

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Send a single message and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		switch {
		case sendNew:
			store.NewSession()
		case sendSession != "":
			if err := store.Open(ctx, sendSession); err != nil {
				return err
			}
		}

		text := strings.Join(args, " ")
		var (
			reply *models.ChatReply
			err   error
		)
		if sendDocument != "" {
			data, readErr := os.ReadFile(sendDocument)
			if readErr != nil {
				return readErr
			}
			reply, err = store.SendDocument(ctx, text, string(data), nil)
		} else {
			reply, err = store.Send(ctx, text, nil)
		}
		if err != nil {
			return err
		}
		printReply(cmd.OutOrStdout(), reply)
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List your sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.Load(cmd.Context()); err != nil {
			return err
		}
		printSessions(cmd.OutOrStdout(), store.Snapshot().Sessions)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search local sessions by title and content",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		printSessions(cmd.OutOrStdout(), store.Search(strings.Join(args, " ")))
		return nil
	},
}

var endCmd = &cobra.Command{
	Use:   "end [session-id]",
	Short: "Mark a session as ended",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.Load(cmd.Context()); err != nil {
			return err
		}
		return store.End(cmd.Context(), args[0])
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [session-id]",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.Load(cmd.Context()); err != nil {
			return err
		}
		return store.Delete(cmd.Context(), args[0])
	},
}

// runChat reads lines from in until EOF or /quit. Lines starting with a slash
// are commands; everything else is sent to the current session.
func runChat(ctx context.Context, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := store.Load(ctx); err != nil {
		fmt.Fprintf(out, "could not load sessions: %v\n", err)
	}
	fmt.Fprintln(out, "Commands: /new, /sessions, /open <id>, /retry, /quit")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var (
			reply *models.ChatReply
			err   error
		)
		switch {
		case line == "/quit":
			return nil
		case line == "/new":
			store.NewSession()
			fmt.Fprintln(out, "Started a new chat.")
			continue
		case line == "/sessions":
			printSessions(out, store.Snapshot().Sessions)
			continue
		case strings.HasPrefix(line, "/open "):
			if err := store.Open(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/open "))); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			continue
		case line == "/retry":
			reply, err = store.Retry(ctx)
		default:
			reply, err = store.Send(ctx, line, nil)
		}

		switch {
		case errors.Is(err, client.ErrConflict):
			fmt.Fprintln(out, "error: the server returned a session that already exists locally; start a /new chat")
		case err != nil:
			fmt.Fprintf(out, "error: %v (use /retry to resend)\n", err)
		default:
			printReply(out, reply)
		}
	}
}

func printReply(out io.Writer, reply *models.ChatReply) {
	if reply.Title != "" {
		fmt.Fprintf(out, "[%s] %s\n", reply.SessionID, reply.Title)
	}
	fmt.Fprint(out, render(reply.Reply))
}

func printSessions(out io.Writer, sessions []client.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions.")
		return
	}
	for _, s := range sessions {
		status := ""
		if s.EndedAt != nil {
			status = " (ended)"
		}
		fmt.Fprintf(out, "%s  %-40s  %d messages  %s%s\n",
			s.ID, s.Title, len(s.Messages), s.UpdatedAt.Local().Format("2006-01-02 15:04"), status)
	}
}
