package main

import (
	"fmt"
	"strings"

	"github.com/dgnsrekt/voicebox/internal/hostcall"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:     "add A B",
	Short:   "Add two integers",
	Example: paragraph("voicebox add 2 40"),
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sum, err := hostcall.ParseAdd(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sum)
		return nil
	},
}

var greetCmd = &cobra.Command{
	Use:    "greet [NAME]",
	Short:  "Print a greeting",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), hostcall.Greet(strings.Join(args, " ")))
		return nil
	},
}
