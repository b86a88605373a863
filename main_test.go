package main

import (
	"strings"
	"testing"

	"github.com/ZacxDev/video-captioner/pkg/captioner"
	"github.com/spf13/cobra"
)

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"Name", "Bitrate"}, [][]string{{"webm-vp9", "15M"}, {"short"}}, []columnAlignment{alignLeft, alignRight})
	for _, want := range []string{"Name", "Bitrate", "webm-vp9", "15M", "short"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Error("expected empty output without headers")
	}
}

func TestFlagOverrides(t *testing.T) {
	cfg = captioner.DefaultConfig()
	cmd := &cobra.Command{Use: "burn"}
	cmd.Flags().StringP("output", "o", "", "")
	cmd.Flags().StringP("profile", "p", "", "")
	cmd.Flags().Bool("no-reattach", false, "")
	cmd.Flags().Bool("merge-audio", false, "")
	cmd.Flags().Bool("realtime", false, "")
	cmd.Flags().Bool("downscale", false, "")
	cmd.Flags().String("bucket", "", "")
	addStyleFlags(cmd)

	if err := cmd.ParseFlags([]string{"--mode", "Word-Groups", "--no-stroke", "--uppercase", "--profile", "MP4-H264", "--no-reattach", "-o", "out"}); err != nil {
		t.Fatal(err)
	}
	if err := applyStyleFlags(cmd); err != nil {
		t.Fatalf("applyStyleFlags: %v", err)
	}
	applyExportFlags(cmd)

	if cfg.Style.UseStroke || !cfg.Style.Uppercase || cfg.Style.DisplayMode != "Word-Groups" {
		t.Errorf("style = %+v", cfg.Style)
	}
	if cfg.Export.Profile != "mp4-h264" || cfg.Export.ReattachAudio {
		t.Errorf("export = %+v", cfg.Export)
	}
	if cfg.Storage.Backend != "local" || cfg.Storage.Dir != "out" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	// unchanged flags keep config values
	if cfg.Style.FontSize != 24 {
		t.Errorf("font size = %v", cfg.Style.FontSize)
	}
}

func TestFlagOverridesRejectBadColor(t *testing.T) {
	cfg = captioner.DefaultConfig()
	cmd := &cobra.Command{Use: "preview"}
	addStyleFlags(cmd)
	if err := cmd.ParseFlags([]string{"--fill", "nope"}); err != nil {
		t.Fatal(err)
	}
	if err := applyStyleFlags(cmd); err == nil || !strings.Contains(err.Error(), "style.fill_color") {
		t.Errorf("err = %v", err)
	}
}
