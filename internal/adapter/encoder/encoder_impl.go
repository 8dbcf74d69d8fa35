package encoder

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/user/asset-migrator/internal/repository"
)

// command is an external encoder driven through its CLI.
type command struct {
	name  string
	ext   string
	path  string
	probe []string
	args  func(input, output string) []string
}

func (c *command) Name() string { return c.name }
func (c *command) Ext() string  { return c.ext }

// Available runs the probe invocation of the encoder.
func (c *command) Available(ctx context.Context) error {
	if _, err := exec.LookPath(c.path); err != nil {
		return fmt.Errorf("%s: %w", c.path, err)
	}
	cmd := exec.CommandContext(ctx, c.path, c.probe...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s %s failed: %w\nOutput: %s", c.path, strings.Join(c.probe, " "), err, string(output))
	}
	return nil
}

// Encode converts input into output. A non-zero exit status is an error.
func (c *command) Encode(ctx context.Context, input, output string) error {
	cmd := exec.CommandContext(ctx, c.path, c.args(input, output)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed for %s: %w\nOutput: %s", c.name, input, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// NewCWebP returns the WebP encoder backed by cwebp.
// quality is 0-100, effort is the -m compression method 0-6.
func NewCWebP(path string, quality, effort int) repository.Encoder {
	return &command{
		name:  "webp",
		ext:   ".webp",
		path:  path,
		probe: []string{"-version"},
		args: func(input, output string) []string {
			return []string{
				"-q", strconv.Itoa(quality),
				"-m", strconv.Itoa(effort),
				input,
				"-o", output,
			}
		},
	}
}

// NewAVIFEnc returns the AVIF encoder backed by avifenc in constant quality mode.
func NewAVIFEnc(path string, quality int) repository.Encoder {
	return &command{
		name:  "avif",
		ext:   ".avif",
		path:  path,
		probe: []string{"--help"},
		args: func(input, output string) []string {
			return []string{
				"--min", "0",
				"--max", "63",
				"-a", "end-usage=q",
				"-a", "cq-level=" + strconv.Itoa(quality),
				"-a", "tune=ssim",
				input,
				output,
			}
		},
	}
}
