package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ZacxDev/video-captioner/internal/config"
	"github.com/ZacxDev/video-captioner/internal/export"
	"github.com/ZacxDev/video-captioner/internal/logging"
	"github.com/ZacxDev/video-captioner/pkg/captioner"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const skipConfigAnnotation = "skip-config"

var (
	configPath string
	verbose    bool
	quiet      bool
	logFormat  string

	cfg    *captioner.Config
	logger *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "video-captioner",
		Short: "Burn styled captions into videos",
		Long: `video-captioner renders timed captions over a video and encodes the result.
The original audio track is muxed back in after recording.

Examples:
  # Burn captions using the default style and store under ./captioned
  video-captioner burn -i input.mp4 -c captions.json

  # Word groups with highlight, encoded as MP4
  video-captioner burn -i input.mp4 -c captions.srt --mode wordgroups --highlight --profile mp4-h264

  # Render a single frame to check the style
  video-captioner preview -i input.mp4 -c captions.json --at 2.5 -o frame.png`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	burnCmd = &cobra.Command{
		Use:   "burn",
		Short: "Burn captions into a video",
		Long: fmt.Sprintf(`Render captions over every frame of a video and store the encoded result.

Captions are read from JSON ([{"startTime":0,"endTime":1.5,"text":"Hello"}]) or SRT.

Supported profiles:
%s
Example:
  video-captioner burn -i input.mp4 -c captions.json -o ./out --profile webm-vp9`,
			formatSupportedProfiles()),
		RunE: runBurn,
	}

	previewCmd = &cobra.Command{
		Use:   "preview",
		Short: "Render one captioned frame as PNG",
		Long: `Render the captioned frame at a given time with the configured style.

Example:
  video-captioner preview -i input.mp4 -c captions.json --at 1.2 -o frame.png`,
		RunE: runPreview,
	}

	probeCmd = &cobra.Command{
		Use:   "probe",
		Short: "Show video metadata",
		RunE:  runProbe,
	}

	profilesCmd = &cobra.Command{
		Use:         "profiles",
		Short:       "List recording profiles",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0)
			for _, p := range captioner.GetSupportedProfiles() {
				rows = append(rows, []string{p.Name, p.MimeType, p.Extension, p.VideoCodec, p.AudioCodec, p.VideoBitrate})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Name", "MIME type", "Ext", "Video", "Audio", "Bitrate"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	configInitCmd = &cobra.Command{
		Use:         "init [path]",
		Short:       "Write an annotated sample configuration",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "captioner.toml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				force, _ := cmd.Flags().GetBool("force")
				if !force {
					return errors.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", path)
			return nil
		},
	}
)

func formatSupportedProfiles() string {
	var sb strings.Builder
	for _, p := range captioner.GetSupportedProfiles() {
		sb.WriteString(fmt.Sprintf("- %s (%s)\n", p.Name, p.MimeType))
	}
	return sb.String()
}

func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "failed to load .env")
	}

	level, format := "info", "console"
	var resolved string
	var exists bool
	if cmd.Annotations[skipConfigAnnotation] == "" {
		loaded, path, found, err := captioner.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg, resolved, exists = loaded, path, found
		level, format = cfg.Logging.Level, cfg.Logging.Format
	}
	if verbose {
		level = "debug"
	}
	if quiet {
		level = "error"
	}
	if logFormat != "" {
		format = logFormat
	}

	var err error
	logger, err = logging.New(logging.Options{Level: level, Format: format})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	if exists {
		logger.Debug("configuration loaded", "path", resolved)
	}
	return nil
}

func runBurn(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	captionsPath, _ := cmd.Flags().GetString("captions")
	name, _ := cmd.Flags().GetString("name")
	if inputPath == "" || captionsPath == "" {
		return errors.New("input path and captions path are required")
	}
	if err := applyStyleFlags(cmd); err != nil {
		return err
	}
	applyExportFlags(cmd)

	var progressOut io.Writer = os.Stderr
	if quiet {
		progressOut = io.Discard
	}
	reporter := export.NewReporter(progressOut, logger, "burning captions")
	res, err := captioner.Burn(cmd.Context(), &captioner.BurnOptions{
		InputPath:    inputPath,
		CaptionsPath: captionsPath,
		OutputName:   name,
		Config:       cfg,
		Logger:       logger,
		Progress:     reporter.Update,
	})
	reporter.Finish()
	if err != nil {
		return err
	}

	rows := [][]string{
		{"Session", res.SessionID},
		{"URL", res.URL},
		{"Audio", res.Outcome.String()},
		{"Frames", fmt.Sprintf("%d (%d captioned)", res.Frames, res.CaptionFrames)},
		{"Duration", (time.Duration(res.Duration * float64(time.Second))).Round(time.Millisecond).String()},
		{"Size", humanize.Bytes(uint64(res.Size))},
		{"Elapsed", res.Elapsed.Round(time.Millisecond).String()},
	}
	if res.Degraded != nil {
		rows = append(rows, []string{"Warning", res.Degraded.Error()})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
	return nil
}

func runPreview(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	captionsPath, _ := cmd.Flags().GetString("captions")
	outputPath, _ := cmd.Flags().GetString("output")
	at, _ := cmd.Flags().GetFloat64("at")
	if err := applyStyleFlags(cmd); err != nil {
		return err
	}
	if ratio, _ := cmd.Flags().GetFloat64("pixel-ratio"); cmd.Flags().Changed("pixel-ratio") {
		cfg.Export.PixelRatio = ratio
	}

	if err := captioner.Preview(cmd.Context(), &captioner.PreviewOptions{
		InputPath:    inputPath,
		CaptionsPath: captionsPath,
		OutputPath:   outputPath,
		At:           at,
		Config:       cfg,
		Logger:       logger,
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outputPath)
	return nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	meta, err := captioner.GetVideoMetadata(inputPath)
	if err != nil {
		return err
	}
	audio := "none"
	if meta.HasAudio {
		audio = meta.AudioCodec
	}
	rows := [][]string{
		{"Resolution", fmt.Sprintf("%dx%d", meta.Width, meta.Height)},
		{"Duration", fmt.Sprintf("%.3fs", meta.Duration)},
		{"Frame rate", fmt.Sprintf("%.3f", meta.FPS)},
		{"Video codec", meta.Codec},
		{"Audio codec", audio},
		{"Bitrate", humanize.SI(float64(meta.Bitrate), "bps")},
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
	return nil
}

// applyStyleFlags overlays changed style flags onto the loaded config.
func applyStyleFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Style.DisplayMode, _ = flags.GetString("mode")
	}
	if flags.Changed("font") {
		cfg.Style.FontFamily, _ = flags.GetString("font")
	}
	if flags.Changed("font-path") {
		cfg.Style.FontPath, _ = flags.GetString("font-path")
	}
	if flags.Changed("font-size") {
		cfg.Style.FontSize, _ = flags.GetFloat64("font-size")
	}
	if flags.Changed("weight") {
		cfg.Style.Weight, _ = flags.GetString("weight")
	}
	if flags.Changed("position") {
		cfg.Style.Position, _ = flags.GetFloat64("position")
	}
	if flags.Changed("fill") {
		cfg.Style.FillColor, _ = flags.GetString("fill")
	}
	if flags.Changed("stroke-color") {
		cfg.Style.StrokeColor, _ = flags.GetString("stroke-color")
	}
	if flags.Changed("highlight-color") {
		cfg.Style.HighlightColor, _ = flags.GetString("highlight-color")
	}
	if flags.Changed("group-size") {
		cfg.Style.GroupSize, _ = flags.GetInt("group-size")
	}
	if flags.Changed("no-stroke") {
		noStroke, _ := flags.GetBool("no-stroke")
		cfg.Style.UseStroke = !noStroke
	}
	if flags.Changed("highlight") {
		cfg.Style.UseHighlight, _ = flags.GetBool("highlight")
	}
	if flags.Changed("uppercase") {
		cfg.Style.Uppercase, _ = flags.GetBool("uppercase")
	}
	if flags.Changed("word-highlight") {
		cfg.Style.WordByWordHighlight, _ = flags.GetBool("word-highlight")
	}
	if flags.Changed("bounce") {
		cfg.Style.Bounce, _ = flags.GetBool("bounce")
	}
	if flags.Changed("rainbow") {
		cfg.Style.Rainbow, _ = flags.GetBool("rainbow")
	}
	_, err := cfg.CaptionStyle()
	return err
}

func applyExportFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("profile") {
		p, _ := flags.GetString("profile")
		cfg.Export.Profile = strings.ToLower(strings.TrimSpace(p))
	}
	if flags.Changed("pixel-ratio") {
		cfg.Export.PixelRatio, _ = flags.GetFloat64("pixel-ratio")
	}
	if flags.Changed("no-reattach") {
		noReattach, _ := flags.GetBool("no-reattach")
		cfg.Export.ReattachAudio = !noReattach
	}
	if flags.Changed("merge-audio") {
		cfg.Export.MergeAudio, _ = flags.GetBool("merge-audio")
	}
	if flags.Changed("realtime") {
		cfg.Export.Realtime, _ = flags.GetBool("realtime")
	}
	if flags.Changed("downscale") {
		cfg.Export.Downscale, _ = flags.GetBool("downscale")
	}
	if flags.Changed("output") {
		cfg.Storage.Backend = "local"
		cfg.Storage.Dir, _ = flags.GetString("output")
	}
	if flags.Changed("bucket") {
		cfg.Storage.Backend = "s3"
		cfg.Storage.Bucket, _ = flags.GetString("bucket")
	}
}

func addStyleFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", "", "Display mode (lines, words, wordgroups)")
	cmd.Flags().String("font", "", "Font family (Go, mono)")
	cmd.Flags().String("font-path", "", "Path to a TTF/OTF font file")
	cmd.Flags().Float64("font-size", 0, "Font size in pixels at source resolution")
	cmd.Flags().String("weight", "", "Font weight (normal, bold, 100-900)")
	cmd.Flags().Float64("position", 0, "Caption position as percent from the bottom")
	cmd.Flags().String("fill", "", "Text color")
	cmd.Flags().String("stroke-color", "", "Stroke color")
	cmd.Flags().String("highlight-color", "", "Highlight color")
	cmd.Flags().Int("group-size", 0, "Words per group in wordgroups mode")
	cmd.Flags().Bool("no-stroke", false, "Disable the text stroke")
	cmd.Flags().Bool("highlight", false, "Draw a highlight box behind the caption")
	cmd.Flags().Bool("uppercase", false, "Render captions in upper case")
	cmd.Flags().Bool("word-highlight", false, "Highlight the active word")
	cmd.Flags().Bool("bounce", false, "Bounce captions as they appear")
	cmd.Flags().Bool("rainbow", false, "Cycle the text color")
	cmd.Flags().Float64("pixel-ratio", 1, "Display pixel ratio; oversampling is max(ratio, 3)")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default ~/.config/video-captioner/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (console or json)")

	// Burn command flags
	burnCmd.Flags().StringP("input", "i", "", "Input video file")
	burnCmd.Flags().StringP("captions", "c", "", "Caption file (JSON or SRT)")
	burnCmd.Flags().StringP("output", "o", "", "Output directory (local storage)")
	burnCmd.Flags().String("name", "", "Artifact file name")
	burnCmd.Flags().StringP("profile", "p", "",
		fmt.Sprintf("Recording profile (%s)", strings.Join(profileNames(), ", ")))
	burnCmd.Flags().Bool("no-reattach", false, "Skip muxing the original audio back in")
	burnCmd.Flags().Bool("merge-audio", false, "Feed source audio into the capture")
	burnCmd.Flags().Bool("realtime", false, "Pace rendering at the source frame rate")
	burnCmd.Flags().Bool("downscale", false, "Encode at source resolution")
	burnCmd.Flags().String("bucket", "", "Upload to this S3 bucket")
	addStyleFlags(burnCmd)

	burnCmd.MarkFlagRequired("input")
	burnCmd.MarkFlagRequired("captions")

	// Preview command flags
	previewCmd.Flags().StringP("input", "i", "", "Input video file")
	previewCmd.Flags().StringP("captions", "c", "", "Caption file (JSON or SRT)")
	previewCmd.Flags().StringP("output", "o", "preview.png", "Output PNG path")
	previewCmd.Flags().Float64("at", 0, "Time in seconds")
	addStyleFlags(previewCmd)

	previewCmd.MarkFlagRequired("input")
	previewCmd.MarkFlagRequired("captions")

	probeCmd.Flags().StringP("input", "i", "", "Input video file")
	probeCmd.MarkFlagRequired("input")

	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(burnCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(configCmd)
}

func profileNames() []string {
	profiles := captioner.GetSupportedProfiles()
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Name
	}
	return names
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
