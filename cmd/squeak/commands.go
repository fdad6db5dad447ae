package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Danondso/squeak/internal/clip"
	"github.com/Danondso/squeak/internal/config"
	"github.com/Danondso/squeak/internal/device"
	"github.com/Danondso/squeak/internal/grain"
	"github.com/Danondso/squeak/internal/reply"
	"github.com/Danondso/squeak/internal/translator"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6AC1"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#64FFDA"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8A80"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func newSayCmd(opts *options) *cobra.Command {
	var clipRefFlag, hint string

	cmd := &cobra.Command{
		Use:   "say <text...>",
		Short: "Speak one reply and print the translation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath, opts.backend)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := consoleLogger(opts.debug)

			text := strings.Join(args, " ")
			r, ok := reply.Select(text, reply.FromConfig(cfg.Replies), newRand())
			if !ok {
				return errors.New("no replies configured")
			}
			req := translator.Request{Input: text, Clip: r.Clip, Hint: r.Hint()}
			if clipRefFlag != "" {
				req.Clip = clipRef(clipRefFlag)
			}
			if hint != "" {
				req.Hint = grain.ParseHint(hint)
			}

			tr := newTranslator(cfg, logger)
			defer tr.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			res, err := tr.Translate(ctx, req)
			if err != nil {
				return err
			}
			printResult(res, r)
			return nil
		},
	}
	cmd.Flags().StringVar(&clipRefFlag, "clip", "", "play this clip instead of the selected reply's")
	cmd.Flags().StringVar(&hint, "hint", "", "synthesis hint (greeting, hungry, playful, random)")
	return cmd
}

func printResult(res *translator.Result, r reply.Reply) {
	fmt.Println(titleStyle.Render(r.Caption))
	if res.Intent != nil {
		line := fmt.Sprintf("%s %s", res.Onomatopoeia, res.Phrase)
		fmt.Println(successStyle.Render(line))
		note := ""
		if res.Fallback {
			note = " (estimated)"
		}
		fmt.Println(dimStyle.Render(fmt.Sprintf("intent: %s  confidence: %.2f%s", res.Intent.Intent, res.Intent.Confidence, note)))
	}
	skipped := 0
	for _, e := range res.Timeline {
		if e.Skipped {
			skipped++
		}
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf("grains: %d (%d skipped)  duration: %.2fs  reverb: %v  id: %s",
		len(res.Timeline), skipped, res.Duration, res.Reverb, res.ID)))
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List PortAudio output devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devs, err := device.Devices()
			if err != nil {
				return err
			}
			if len(devs) == 0 {
				fmt.Println(dimStyle.Render("No output devices found."))
				return nil
			}
			for _, d := range devs {
				marker := "  "
				if d.Default {
					marker = successStyle.Render("* ")
				}
				fmt.Printf("%s%s %s\n", marker, d.Name,
					dimStyle.Render(fmt.Sprintf("(%s, %d ch, %.0f Hz)", d.HostAPI, d.MaxOutputChannels, d.DefaultSampleRate)))
			}
			return nil
		},
	}
}

func newConfigCmd(opts *options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Println(successStyle.Render("✓ Wrote " + path))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	configCmd.AddCommand(initCmd)
	return configCmd
}

func newClipCmd(opts *options) *cobra.Command {
	clipCmd := &cobra.Command{
		Use:   "clip",
		Short: "Work with clips",
	}

	exportCmd := &cobra.Command{
		Use:   "export <name> <file.wav>",
		Short: "Render a clip to a 16-bit mono WAV file",
		Long: "Render a clip to a 16-bit mono WAV file. <name> is a builtin name (" +
			strings.Join(clip.BuiltinNames(), ", ") + "), a file path or a URL.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts.configPath, opts.backend)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			loader := clip.NewLoader(cfg.Audio.SampleRate, consoleLogger(opts.debug))
			c, err := loader.Load(cmd.Context(), clipRef(args[0]))
			if err != nil {
				return err
			}
			data, err := clip.EncodeWAV(clip.ToInt16(c.Samples), c.SampleRate)
			if err != nil {
				return fmt.Errorf("encode wav: %w", err)
			}
			if err := os.WriteFile(args[1], data, 0o644); err != nil {
				return err
			}
			fmt.Println(successStyle.Render(fmt.Sprintf("✓ Wrote %s", args[1])) +
				dimStyle.Render(fmt.Sprintf(" (%.2fs at %d Hz)", c.Duration(), c.SampleRate)))
			return nil
		},
	}

	clipCmd.AddCommand(exportCmd)
	return clipCmd
}
