package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"helios/internal/chat"
	"helios/internal/logging"
	"helios/internal/notify"
)

// chatCmd starts the interactive chat loop.
var chatCmd = &cobra.Command{
	Use:   "chat [goal-id]",
	Short: "Interactive chat against one goal's knowledge base",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChat,
}

// askCmd runs a single question and exits.
var askCmd = &cobra.Command{
	Use:   "ask [goal-id] [question]",
	Short: "Ask a single question and print the streamed answer",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		session := newSession()
		return runTurn(ctx, session, args[0], strings.Join(args[1:], " "))
	},
}

func newSession() *chat.Session {
	return chat.NewSession(newAPIClient(), chat.NewStore(),
		chat.WithNotifier(notify.NewLogNotifier(logging.Get(logging.CategorySession))),
		chat.WithLogger(logging.Get(logging.CategorySession)),
	)
}

func runChat(cmd *cobra.Command, args []string) error {
	goalID := cfg.Chat.GoalID
	if len(args) > 0 {
		goalID = args[0]
	}
	if goalID == "" {
		return fmt.Errorf("no goal id: pass one as an argument or set chat.goal_id in config")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := newSession()

	fmt.Printf("Helios chat (goal %s). Empty line or Ctrl+C to exit.\n", goalID)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		if err := runTurn(ctx, session, goalID, line); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// The failure is already in the log as a chat message;
			// keep the REPL alive.
			continue
		}
	}
	return scanner.Err()
}

// runTurn asks one question while a watcher prints pipeline-stage changes as
// the classifier infers them.
func runTurn(ctx context.Context, session *chat.Session, goalID, query string) error {
	turnDone := make(chan struct{})

	group, ctx := errgroup.WithContext(ctx)

	var messageID string
	group.Go(func() error {
		defer close(turnDone)
		var err error
		messageID, err = session.Ask(ctx, goalID, query)
		return err
	})
	group.Go(func() error {
		watchActivity(ctx, session.Store(), turnDone)
		return nil
	})

	err := group.Wait()
	printOutcome(session.Store(), messageID, err)
	return err
}

// watchActivity polls the newest agent message and prints each stage
// transition once. Plain line output; rendering proper is someone else's
// job.
func watchActivity(ctx context.Context, store *chat.Store, done <-chan struct{}) {
	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()

	lastStep := ""
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			messages := store.Messages()
			for i := len(messages) - 1; i >= 0; i-- {
				m := messages[i]
				if m.Role != chat.RoleAgent || m.Activity == nil {
					continue
				}
				if m.Activity.Step != lastStep {
					lastStep = m.Activity.Step
					fmt.Printf("  [%3d%%] %s: %s\n",
						m.Activity.Progress, m.Activity.CurrentAgent, m.Activity.Step)
				}
				break
			}
		}
	}
}

func printOutcome(store *chat.Store, messageID string, turnErr error) {
	if turnErr != nil {
		messages := store.Messages()
		if len(messages) > 0 && messages[len(messages)-1].Failed {
			fmt.Println(messages[len(messages)-1].Content)
		} else {
			fmt.Println("Query failed:", turnErr)
		}
		return
	}

	message, ok := store.Get(messageID)
	if !ok {
		return
	}
	fmt.Println()
	fmt.Println(message.Content)
	if len(message.Sources) > 0 {
		fmt.Printf("\nSources (%d):\n", len(message.Sources))
		for _, src := range message.Sources {
			fmt.Printf("  - [%s, score %.2f] %s\n", src.Type, src.SimilarityScore, src.Text)
		}
	}
	if message.Activity != nil && message.Activity.QueryType != "" {
		fmt.Printf("\nQuery type: %s", message.Activity.QueryType)
		if message.Activity.Confidence > 0 {
			fmt.Printf(" (confidence %d%%)", message.Activity.Confidence)
		}
		fmt.Println()
	}
}
