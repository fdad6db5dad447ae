// Command squeak is a creature translator: type a line, hear a granular
// creature reply, and see what the analysis thinks it meant.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Danondso/squeak/internal/config"
	"github.com/Danondso/squeak/internal/reply"
	"github.com/Danondso/squeak/internal/translator"
	"github.com/Danondso/squeak/internal/tui"
)

var version = "dev"

type options struct {
	configPath string
	debug      bool
	backend    string
}

func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "squeak",
		Short:         "Creature translator with granular synthesis",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(opts)
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath(), "config file path")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "audio backend override (speaker, portaudio, null)")

	rootCmd.AddCommand(newSayCmd(opts))
	rootCmd.AddCommand(newDevicesCmd())
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newClipCmd(opts))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func runTUI(opts *options) error {
	cfg, err := loadConfig(opts.configPath, opts.backend)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lw := tui.NewLogWriter(nil)
	logger := newLogger(lw, opts.debug)

	tr := newTranslator(cfg, logger)
	defer tr.Close()

	model := tui.NewModel(cfg, tr, reply.FromConfig(cfg.Replies), newRand(), logger, opts.debug)
	p := tea.NewProgram(model, tea.WithAltScreen())
	lw.Attach(p)

	tr.OnStateChange(func(s translator.State) {
		p.Send(tui.StateMsg{State: s})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		err := config.Watch(ctx, opts.configPath, logger, func(c *config.Config) {
			applyReload(tr, c, logger)
		})
		if err != nil {
			logger.Warn().Err(err).Msg("config watch stopped")
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
