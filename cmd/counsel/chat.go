package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/bufetemejia/counsel"
	"github.com/bufetemejia/counsel/internal/presentation/tui"
	"github.com/bufetemejia/counsel/pkg/domain"
	"github.com/bufetemejia/counsel/pkg/orchestrator"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant from the terminal",
	Long: `Starts an interactive session against the configured runtime and corpus.

Commands inside the session:
  /new      start a fresh conversation
  /history  print the current conversation's transcript
  /list     list your conversations
  /quit     leave`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		owner, _ := cmd.Flags().GetString("owner")
		handle, _ := cmd.Flags().GetString("conversation")
		country, _ := cmd.Flags().GetString("country")

		app := counsel.New(cfg)
		defer app.Close()

		interactive := term.IsTerminal(int(os.Stdin.Fd()))
		width := 100
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
		render := tui.NewRenderer(width)

		if interactive {
			tui.PrintBanner()
		}

		ctx := cmd.Context()
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 64*1024), 64*1024)

		for {
			if interactive {
				fmt.Print("> ")
			}
			if !scanner.Scan() {
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			switch {
			case line == "/quit" || line == "/exit":
				return nil
			case line == "/new":
				handle = ""
				fmt.Println("Starting a fresh conversation.")
				continue
			case line == "/history":
				if handle == "" {
					fmt.Println("No conversation yet.")
					continue
				}
				messages, err := app.Orchestrator.Transcript(ctx, handle)
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					continue
				}
				for _, msg := range messages {
					fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
				}
				continue
			case line == "/list":
				records, err := app.Orchestrator.Conversations(ctx, owner)
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					continue
				}
				for _, rec := range records {
					fmt.Printf("%s  %s  (%s)\n", rec.Handle, rec.Title, rec.UpdatedAt.Format("2006-01-02 15:04"))
				}
				continue
			}

			result, err := app.Orchestrator.HandleTurn(ctx, orchestrator.TurnRequest{
				OwnerID:   owner,
				Handle:    handle,
				Query:     line,
				ScopeHint: country,
			})
			if err != nil {
				if errors.Is(err, domain.ErrConversationBusy) {
					fmt.Println("Still working on the previous message.")
					continue
				}
				fmt.Printf("Error: %v\n", err)
				continue
			}
			handle = result.Handle

			out, err := render(result.AnswerText)
			if err != nil {
				out = result.AnswerText
			}
			fmt.Print(out)
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("owner", "cli", "Owner id the conversations are filed under")
	chatCmd.Flags().String("conversation", "", "Resume an existing conversation handle")
	chatCmd.Flags().String("country", "", "Pin the retrieval scope to one country")
}
