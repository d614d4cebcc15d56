package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func rememberCmd() *cobra.Command {
	var userID, name string

	cmd := &cobra.Command{
		Use:   "remember [text]",
		Short: "Store a memory directly, without a conversation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(configPath())
			if err != nil {
				return err
			}

			text := strings.Join(args, " ")
			if name == "" {
				name = memoryTitle(text)
			}
			mem, err := a.store.CreateMemory(cmd.Context(), userID, name, text)
			if err != nil {
				return err
			}
			fmt.Printf("Stored memory %q\n", mem.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "default", "user the memory belongs to")
	cmd.Flags().StringVar(&name, "name", "", "memory title (default: derived from the text)")
	return cmd
}

// memoryTitle derives a short title from the first words of the text.
func memoryTitle(text string) string {
	words := strings.Fields(text)
	if len(words) > 8 {
		words = words[:8]
	}
	return strings.Join(words, " ")
}
