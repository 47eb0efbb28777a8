package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var echoCmd = &cobra.Command{
	Use:   "echo <context> <title> <content>",
	Short: "Generate a single style-matched response without a conversation",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _, err := buildAgent(cmd.Context())
		if err != nil {
			return err
		}
		response, err := a.Echo(cmd.Context(), args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), response)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(echoCmd)
}
