// Command ledctl sends commands to a running ledhost.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wippyai/ledhost/client"
)

var (
	addr        string
	statusURL   string
	dialTimeout time.Duration
	inputIsHex  bool

	rootCmd = &cobra.Command{
		Use:   "ledctl",
		Short: "Control a ledhost over its command channel",
		Long: `ledctl sends framed commands to a ledhost.

Examples:
  ledctl color '#ff8000'      Set the whole strip to orange
  ledctl load rainbow.wasm    Run a program
  ledctl input faster         Feed bytes to the running program
  ledctl stop                 Stop the program
  ledctl play show.yaml       Play a scene
  ledctl tui                  Interactive control`,
		SilenceUsage: true,
	}

	colorCmd = &cobra.Command{
		Use:   "color <#rrggbb|r,g,b>",
		Short: "Set the whole strip to one color",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := client.ParseColor(args[0])
			if err != nil {
				return err
			}
			return withClient(cmd.Context(), func(c *client.Client) error {
				return c.SetColor(col)
			})
		},
	}

	loadCmd = &cobra.Command{
		Use:   "load <module.wasm>",
		Short: "Load and start a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(c *client.Client) error {
				return c.LoadFile(args[0])
			})
		},
	}

	stopCmd = &cobra.Command{
		Use:   "stop",
		Short: "Stop the running program",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withClient(cmd.Context(), func(c *client.Client) error {
				return c.Stop()
			})
		},
	}

	inputCmd = &cobra.Command{
		Use:   "input <data>",
		Short: "Feed bytes to the running program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data := []byte(args[0])
			if inputIsHex {
				var err error
				if data, err = hex.DecodeString(args[0]); err != nil {
					return fmt.Errorf("decode hex input: %w", err)
				}
			}
			return withClient(cmd.Context(), func(c *client.Client) error {
				return c.Feed(data)
			})
		},
	}

	playCmd = &cobra.Command{
		Use:   "play <scene.yaml>",
		Short: "Play a scene until it ends or is interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scene, err := client.LoadScene(args[0])
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return withClient(ctx, func(c *client.Client) error {
				if err := scene.Play(ctx, c); err != nil && ctx.Err() == nil {
					return err
				}
				return nil
			})
		},
	}

	tuiCmd = &cobra.Command{
		Use:   "tui",
		Short: "Interactive control",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("tui needs a terminal")
			}
			return withClient(cmd.Context(), func(c *client.Client) error {
				return runInteractive(c, addr, statusURL)
			})
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&addr, "addr", "a", "127.0.0.1:5000", "ledhost command channel address")
	rootCmd.PersistentFlags().DurationVar(&dialTimeout, "timeout", 5*time.Second, "dial timeout")
	inputCmd.Flags().BoolVar(&inputIsHex, "hex", false, "data is hex encoded")
	tuiCmd.Flags().StringVar(&statusURL, "status", "", "ledhost status server URL, e.g. http://host:8080")

	rootCmd.AddCommand(colorCmd, loadCmd, stopCmd, inputCmd, playCmd, tuiCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func withClient(ctx context.Context, fn func(*client.Client) error) error {
	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	c, err := client.Dial(dctx, addr)
	cancel()
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}
