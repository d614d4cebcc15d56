package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/elroy-bot/elroy-sub001/llm/interpret"
)

func chatCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(configPath())
			if err != nil {
				return err
			}

			sessionID := uuid.NewString()
			fmt.Println("Elroy is ready. Type a message, or /exit to quit.")

			in := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("> ")
				if !in.Scan() {
					fmt.Println()
					return in.Err()
				}
				input := strings.TrimSpace(in.Text())
				switch input {
				case "":
					continue
				case "/exit", "/quit":
					return nil
				}

				_, err := a.assistant.Respond(cmd.Context(), userID, sessionID, input, printEvent)
				fmt.Println()
				if err != nil {
					fmt.Fprintf(os.Stderr, "error: %v\n", err)
				}
			}
		},
	}

	cmd.Flags().StringVar(&userID, "user", "default", "user the conversation belongs to")
	return cmd
}

// printEvent renders one interpreter event as it arrives. Replies stream
// verbatim; reasoning and tool calls are prefixed so they read as asides.
func printEvent(ev interpret.Event) {
	switch e := ev.(type) {
	case interpret.Reply:
		fmt.Print(e.Text)
	case interpret.Reasoning:
		fmt.Printf("\n[thinking] %s\n", strings.TrimSpace(e.Text))
	case interpret.ToolInvocation:
		fmt.Printf("\n[tool] %s %s\n", e.Name, e.Arguments)
	}
}
