package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true).
			MarginTop(1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Width(26)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9FAFB"))

	unsetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Italic(true)
)

// newConfigCommand constructs the `castwave config` command group.
func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the managed configuration",
	}
	cmd.AddCommand(newConfigShowCommand())
	return cmd
}

// newConfigShowCommand constructs `castwave config show`.
func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the active configuration and derived paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runConfigShow(cmd.OutOrStdout())
		},
	}
}

func runConfigShow(out io.Writer) error {
	launch := resolveLaunch()

	mgr, paths, _, err := buildManager(launch)
	if err != nil {
		return err
	}

	cfg := mgr.Current()
	enc := mgr.EncodingOptions()

	section(out, "Server")
	row(out, "Name", cfg.ServerName)
	row(out, "ID", cfg.ServerID)
	row(out, "Metadata override", cfg.MetadataPath)
	row(out, "Certificate", cfg.CertificatePath)

	section(out, "Library")
	row(out, "Scan interval (min)", strconv.Itoa(cfg.Library.ScanIntervalMinutes))
	row(out, "Realtime monitor", onOff(cfg.Library.EnableRealtimeMonitor))
	row(out, "Chapter thumbnails", onOff(cfg.Library.EnableChapterThumbnails))

	section(out, "Streaming")
	row(out, "Max concurrent streams", strconv.Itoa(cfg.Streaming.MaxConcurrentStreams))
	row(out, "Segment duration (s)", strconv.Itoa(cfg.Streaming.SegmentDurationSeconds))
	row(out, "Throttling", onOff(cfg.Streaming.EnableThrottling))

	section(out, "Encoding")
	row(out, "Transcode temp path", enc.TranscodingTempPath)
	row(out, "Hardware acceleration", enc.HardwareAcceleration)
	row(out, "Thread count", threadCount(enc.ThreadCount))

	section(out, "Derived paths")
	row(out, "Base directory", launch.BaseDir)
	row(out, "Metadata", paths.MetadataPath())
	row(out, "Transcodes", paths.TranscodePath())

	fmt.Fprintln(out)
	return nil
}

func section(out io.Writer, title string) {
	fmt.Fprintln(out, headingStyle.Render(title))
}

func row(out io.Writer, key, value string) {
	rendered := unsetStyle.Render("(unset)")
	if value != "" {
		rendered = valueStyle.Render(value)
	}
	fmt.Fprintln(out, keyStyle.Render(key)+rendered)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func threadCount(n int) string {
	if n == 0 {
		return "auto"
	}
	return strconv.Itoa(n)
}
