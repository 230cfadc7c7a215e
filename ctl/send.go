//go:build unix

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Paranoid-AF/cmdserver/client"
)

func sendCmd(opts *rootOptions) *cobra.Command {
	var (
		output bool
		wait   bool
	)

	cmd := &cobra.Command{
		Use:   "send <command-id> [args...]",
		Short: "Send one command",
		Long: `Send one command to the editor host.

Arguments that look like numbers are sent as JSON numbers, everything else
as strings. With --output the command's return value is printed as JSON.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}

			call := client.Call{
				CommandID:     args[0],
				Args:          make([]any, 0, len(args)-1),
				ReturnOutput:  output,
				WaitForFinish: wait,
			}
			for _, a := range args[1:] {
				call.Args = append(call.Args, client.ParseArg(a))
			}

			resp, err := c.Send(cmd.Context(), call)
			if err != nil {
				return err
			}
			if output {
				return printValue(cmd.OutOrStdout(), resp.ReturnValue)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&output, "output", "o", false, "return and print the command's result")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait for the command to finish")

	return cmd
}

// printValue writes v as JSON, indented when w is a terminal.
func printValue(w io.Writer, v any) error {
	var (
		data []byte
		err  error
	)
	if isTerminal(w) {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
