package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"contentengine/internal/config"
	"contentengine/internal/logging"
	"contentengine/internal/services"
)

const stderrTailBytes = 2048

// commandRunner executes a binary and returns its stderr when it fails.
type commandRunner func(ctx context.Context, name string, args ...string) error

// FilterError reports a failed encoder operation. It unwraps to the
// classified service error so callers can test it with errors.Is.
type FilterError struct {
	Op     string
	Output string
	Err    error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("ffmpeg %s -> %s: %v", e.Op, filepath.Base(e.Output), e.Err)
}

func (e *FilterError) Unwrap() error { return e.Err }

// Settings describes the encoder binary and output codec choices.
type Settings struct {
	Binary     string
	VideoCodec string
	AudioCodec string
	Preset     string
	CRF        int
	FontsDir   string
}

// SettingsFromConfig extracts encoder settings from the loaded configuration.
func SettingsFromConfig(cfg *config.Config) Settings {
	if cfg == nil {
		return Settings{Binary: "ffmpeg", VideoCodec: "libx264", AudioCodec: "aac"}
	}
	return Settings{
		Binary:     cfg.Media.FFmpegBinary,
		VideoCodec: cfg.Media.VideoCodec,
		AudioCodec: cfg.Media.AudioCodec,
		Preset:     cfg.Media.Preset,
		CRF:        cfg.Media.CRF,
		FontsDir:   cfg.Subtitles.FontsDir,
	}
}

// Runner wraps the ffmpeg invocations used by the render stages. Every
// operation writes to a hidden sibling file and renames it into place so a
// killed run never leaves a truncated artifact under the final name.
type Runner struct {
	settings Settings
	logger   *slog.Logger
	run      commandRunner
}

// New constructs a runner.
func New(settings Settings, logger *slog.Logger) *Runner {
	if strings.TrimSpace(settings.Binary) == "" {
		settings.Binary = "ffmpeg"
	}
	if strings.TrimSpace(settings.VideoCodec) == "" {
		settings.VideoCodec = "libx264"
	}
	if strings.TrimSpace(settings.AudioCodec) == "" {
		settings.AudioCodec = "aac"
	}
	return &Runner{
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "ffmpeg"),
		run:      defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (r *Runner) WithCommandRunner(fn commandRunner) {
	if r != nil && fn != nil {
		r.run = fn
	}
}

// ExtractAudio writes a 16 kHz mono mp3 suitable for speech-to-text upload.
func (r *Runner) ExtractAudio(ctx context.Context, input, output string) error {
	args := []string{"-i", input, "-vn", "-ar", "16000", "-ac", "1", "-ab", "128k", "-f", "mp3"}
	return r.execute(ctx, "extract_audio", output, args)
}

// BurnSubtitles renders a subtitle file into the video frames. ASS documents
// use the ass filter so their styling survives; anything else goes through
// the subtitles filter.
func (r *Runner) BurnSubtitles(ctx context.Context, input, subtitlePath, output string) error {
	filter, err := r.subtitleFilter(subtitlePath)
	if err != nil {
		return err
	}
	args := []string{"-i", input, "-vf", filter}
	args = append(args, r.videoCodecArgs()...)
	args = append(args, "-c:a", "copy")
	return r.execute(ctx, "burn_subtitles", output, args)
}

// ExtractFrame saves the first video frame as a still image.
func (r *Runner) ExtractFrame(ctx context.Context, input, output string) error {
	args := []string{"-ss", "0", "-i", input, "-frames:v", "1", "-update", "1"}
	return r.execute(ctx, "extract_frame", output, args)
}

// StillClip turns an image into a clip of the given length with a silent
// stereo track, scaled to width x height so it can be concatenated with the
// body video.
func (r *Runner) StillClip(ctx context.Context, image string, seconds, width, height int, output string) error {
	if seconds <= 0 {
		return services.Wrap(services.ErrValidation, "ffmpeg", "still_clip", "clip length must be positive", nil)
	}
	args := []string{
		"-loop", "1", "-i", image,
		"-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=44100",
		"-t", strconv.Itoa(seconds),
		"-vf", scaleChain(width, height),
	}
	args = append(args, r.videoCodecArgs()...)
	args = append(args, "-c:a", r.settings.AudioCodec, "-shortest")
	return r.execute(ctx, "still_clip", output, args)
}

// OverlayImage composites a transparent image over the first seconds of the
// input video.
func (r *Runner) OverlayImage(ctx context.Context, input, image string, seconds int, output string) error {
	if seconds <= 0 {
		return services.Wrap(services.ErrValidation, "ffmpeg", "overlay", "overlay length must be positive", nil)
	}
	filter := fmt.Sprintf("[0:v][1:v]overlay=0:0:enable='between(t,0,%d)'[v]", seconds)
	args := []string{"-i", input, "-i", image, "-filter_complex", filter, "-map", "[v]", "-map", "0:a?"}
	args = append(args, r.videoCodecArgs()...)
	args = append(args, "-c:a", r.settings.AudioCodec)
	return r.execute(ctx, "overlay", output, args)
}

// Concat joins the intro clip and the body video. Both are normalised to the
// body's dimensions; bodyHasAudio false drops the audio leg entirely.
func (r *Runner) Concat(ctx context.Context, intro, body string, width, height int, bodyHasAudio bool, output string) error {
	scale := scaleChain(width, height)
	var graph, audioMap string
	if bodyHasAudio {
		graph = fmt.Sprintf("[0:v]%[1]s[v0];[1:v]%[1]s[v1];[0:a]aresample=44100[a0];[1:a]aresample=44100[a1];[v0][a0][v1][a1]concat=n=2:v=1:a=1[v][a]", scale)
		audioMap = "[a]"
	} else {
		graph = fmt.Sprintf("[0:v]%[1]s[v0];[1:v]%[1]s[v1];[v0][v1]concat=n=2:v=1:a=0[v]", scale)
	}
	args := []string{"-i", intro, "-i", body, "-filter_complex", graph, "-map", "[v]"}
	if audioMap != "" {
		args = append(args, "-map", audioMap)
	}
	args = append(args, r.videoCodecArgs()...)
	if audioMap != "" {
		args = append(args, "-c:a", r.settings.AudioCodec)
	}
	return r.execute(ctx, "concat", output, args)
}

func (r *Runner) subtitleFilter(subtitlePath string) (string, error) {
	abs, err := filepath.Abs(subtitlePath)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "ffmpeg", "burn_subtitles", "resolve subtitle path", err)
	}
	name := "subtitles"
	if strings.EqualFold(filepath.Ext(abs), ".ass") {
		name = "ass"
	}
	filter := name + "=" + EscapeFilterPath(abs)
	if dir := strings.TrimSpace(r.settings.FontsDir); dir != "" {
		filter += ":fontsdir=" + EscapeFilterPath(dir)
	}
	return filter, nil
}

// EscapeFilterPath escapes a filesystem path for use as a filter option value
// inside a -vf graph. Separators become forward slashes; colons, spaces and
// quotes are escaped for both the graph and the option parser.
func EscapeFilterPath(path string) string {
	replacer := strings.NewReplacer(
		`\`, "/",
		":", `\\:`,
		" ", `\\ `,
		"'", `\\'`,
	)
	return replacer.Replace(path)
}

func scaleChain(width, height int) string {
	if width <= 0 || height <= 0 {
		return "setsar=1,fps=30,format=yuv420p"
	}
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=30,format=yuv420p",
		width, height, width, height)
}

func (r *Runner) videoCodecArgs() []string {
	args := []string{"-c:v", r.settings.VideoCodec}
	if preset := strings.TrimSpace(r.settings.Preset); preset != "" {
		args = append(args, "-preset", preset)
	}
	if r.settings.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(r.settings.CRF))
	}
	return args
}

func (r *Runner) execute(ctx context.Context, op, output string, args []string) error {
	if r == nil {
		return fmt.Errorf("ffmpeg runner not initialized")
	}
	if strings.TrimSpace(output) == "" {
		return services.Wrap(services.ErrValidation, "ffmpeg", op, "output path is required", nil)
	}
	tmpPath := filepath.Join(filepath.Dir(output), ".partial-"+filepath.Base(output))
	full := append([]string{"-hide_banner", "-loglevel", "error", "-y"}, args...)
	full = append(full, tmpPath)

	r.logger.Debug("executing ffmpeg",
		logging.String("operation", op),
		logging.String("output", output),
	)
	if err := r.run(ctx, r.settings.Binary, full...); err != nil {
		_ = os.Remove(tmpPath)
		if ctx.Err() != nil {
			return &FilterError{Op: op, Output: output, Err: services.Wrap(services.ErrTimeout, "ffmpeg", op, "cancelled", ctx.Err())}
		}
		return &FilterError{Op: op, Output: output, Err: services.Wrap(services.ErrExternalTool, "ffmpeg", op, "command failed", err)}
	}
	info, err := os.Stat(tmpPath)
	if err != nil {
		return &FilterError{Op: op, Output: output, Err: services.Wrap(services.ErrExternalTool, "ffmpeg", op, "no output produced", err)}
	}
	if info.Size() == 0 {
		_ = os.Remove(tmpPath)
		return &FilterError{Op: op, Output: output, Err: services.Wrap(services.ErrExternalTool, "ffmpeg", op, "empty output produced", nil)}
	}
	if err := os.Rename(tmpPath, output); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("ffmpeg %s: move output into place: %w", op, err)
	}
	return nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		tail := stderr.Bytes()
		if len(tail) > stderrTailBytes {
			tail = tail[len(tail)-stderrTailBytes:]
		}
		msg := strings.TrimSpace(string(tail))
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
