package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/netip"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyra/squidnorm/internal/parser"
	"github.com/cyra/squidnorm/internal/webproxy"
)

const maxLine = 1024 * 1024

func newParseCmd(a *app) *cobra.Command {
	var (
		parserName string
		origin     string
		pretty     bool
		strict     bool
	)

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Normalize log lines from stdin and print them as JSON",
		Long: `Read one log line per input line from stdin and write one JSON event per
line to stdout. Lines that cannot be normalized are reported on stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parser.New(parserName)
			if err != nil {
				return err
			}

			originAddr := webproxy.Unspecified
			if origin != "" {
				originAddr, err = netip.ParseAddr(origin)
				if err != nil {
					return fmt.Errorf("invalid --origin: %w", err)
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetEscapeHTML(false)
			if pretty {
				enc.SetIndent("", "  ")
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

			var lineNo, failed int
			for scanner.Scan() {
				lineNo++
				text := scanner.Text()
				if text == "" {
					continue
				}

				out, err := p.Parse(webproxy.NewLog(text, time.Now().UnixMilli(), originAddr))
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "line %d: %s: %v\n", lineNo, parser.KindOf(err), err)
					continue
				}
				if err := enc.Encode(out); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			a.logger.Debugf("parsed %d lines, %d failed", lineNo, failed)
			if strict && failed > 0 {
				return fmt.Errorf("%d of %d lines could not be parsed", failed, lineNo)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&parserName, "parser", "p", "auto", "Parser to use (see 'parsers')")
	cmd.Flags().StringVar(&origin, "origin", "", "Observer IP address to attach to every event")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent JSON output")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero if any line fails to parse")
	return cmd
}
