//go:build unix

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Paranoid-AF/cmdserver/client"
)

func runCmd(opts *rootOptions) *cobra.Command {
	var keepGoing bool

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run commands from a script file",
		Long: `Run one command per line from a script file, or stdin when the
script is "-". Blank lines and lines starting with # are skipped. Each
command finishes before the next one is sent; return values are printed
one JSON document per line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			return runScript(cmd, c, r, keepGoing)
		},
	}

	cmd.Flags().BoolVarP(&keepGoing, "keep-going", "k", false, "continue after a failed command")

	return cmd
}

func runScript(cmd *cobra.Command, c *client.Client, r io.Reader, keepGoing bool) error {
	var failed int
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		err := runLine(cmd, c, line)
		if err == nil {
			continue
		}
		err = fmt.Errorf("line %d: %w", n, err)
		if !keepGoing {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		failed++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d commands failed", failed)
	}
	return nil
}

func runLine(cmd *cobra.Command, c *client.Client, line string) error {
	call, err := client.ParseLine(line)
	if err != nil {
		return err
	}
	call.ReturnOutput = true
	call.WaitForFinish = true

	resp, err := c.Send(cmd.Context(), call)
	if err != nil {
		return err
	}
	if resp.ReturnValue == nil {
		return nil
	}
	return printValue(cmd.OutOrStdout(), resp.ReturnValue)
}
