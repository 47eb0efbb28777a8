package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation on the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := buildAgent(cmd.Context())
		if err != nil {
			return err
		}
		return a.Chat(cmd.Context(), &terminalIO{
			in:  bufio.NewScanner(os.Stdin),
			out: os.Stdout,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// terminalIO drives a conversation over stdin/stdout.
type terminalIO struct {
	in  *bufio.Scanner
	out io.Writer
}

func (t *terminalIO) Notify(ctx context.Context, text string) error {
	_, err := fmt.Fprintf(t.out, "%s EchoForge %s\n%s\n\n",
		strings.Repeat("=", 33), strings.Repeat("=", 33), text)
	return err
}

func (t *terminalIO) PromptAndWait(ctx context.Context) (string, error) {
	if _, err := fmt.Fprintln(t.out, strings.Repeat("=", 33)+" Human Input "+strings.Repeat("=", 33)); err != nil {
		return "", err
	}
	if _, err := fmt.Fprint(t.out, "Your response:\n"); err != nil {
		return "", err
	}
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return t.in.Text(), nil
}
