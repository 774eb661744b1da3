package fixedlayout

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ingenia/docfactory/internal/observability/metrics"
)

// ErrConversionTimeout tags an external conversion that exceeded its bound.
var ErrConversionTimeout = errors.New("conversion_timeout")

// Converter invokes the external flow-document to fixed-layout collaborator:
// a black box with a file-in/file-out contract and bounded execution time.
type Converter struct {
	command []string
	timeout time.Duration
	retries int
	log     *zap.Logger
}

// NewConverter builds a converter from the argv template. The placeholders
// {input} and {outdir} are substituted per call. An empty command means no
// collaborator is available.
func NewConverter(command []string, timeout time.Duration, retries int, log *zap.Logger) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if retries < 0 {
		retries = 0
	}
	return &Converter{
		command: command,
		timeout: timeout,
		retries: retries,
		log:     log.Named("render.convert"),
	}
}

// Available reports whether a conversion collaborator is configured.
func (c *Converter) Available() bool {
	return c != nil && len(c.command) > 0
}

// Convert writes the flow document to disk, runs the collaborator and reads
// back the produced PDF. The call is retried up to the configured bound;
// a deadline overrun surfaces as ErrConversionTimeout.
func (c *Converter) Convert(ctx context.Context, flowDoc []byte) ([]byte, error) {
	if !c.Available() {
		return nil, errors.New("no conversion collaborator configured")
	}

	dir, err := os.MkdirTemp("", "docfactory-convert-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "document.docx")
	output := filepath.Join(dir, "document.pdf")
	if err := os.WriteFile(input, flowDoc, 0o600); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			metrics.Render().ObserveConversionRetry()
			c.log.Warn("retrying conversion", zap.Int("attempt", attempt), zap.Error(lastErr))
		}
		pdf, err := c.runOnce(ctx, input, output, dir)
		if err == nil {
			return pdf, nil
		}
		lastErr = err
		if errors.Is(err, ErrConversionTimeout) && ctx.Err() != nil {
			// The caller's context is gone; further attempts cannot succeed.
			break
		}
	}
	return nil, lastErr
}

func (c *Converter) runOnce(ctx context.Context, input, output, dir string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	argv := make([]string, len(c.command))
	for i, arg := range c.command {
		arg = strings.ReplaceAll(arg, "{input}", input)
		arg = strings.ReplaceAll(arg, "{outdir}", dir)
		argv[i] = arg
	}

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	// Converters like soffice fork workers that inherit our pipes; without a
	// wait bound the kill at the deadline still leaves CombinedOutput blocked
	// until the orphan exits.
	cmd.WaitDelay = c.timeout
	out, err := cmd.CombinedOutput()
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded || ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: after %s", ErrConversionTimeout, c.timeout)
		}
		return nil, fmt.Errorf("conversion failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	pdf, err := os.ReadFile(output)
	if err != nil {
		return nil, fmt.Errorf("conversion produced no output: %w", err)
	}
	if len(pdf) == 0 {
		return nil, errors.New("conversion produced an empty file")
	}
	return pdf, nil
}
