package diagnostics

import (
	"fmt"
	"strings"

	"github.com/SGullin/arpa/internal/parse"
)

// snr measures the signal-to-noise ratio of the fully scrunched data.
func (r *Runner) snr(path string) (*Output, error) {
	r.Logger.Info("calculating snr", "file", path)

	out, err := r.PSRChive.Run(
		"psrstat", "-Qq", "-j", "DTFp", "-c", "snr", path,
	)
	if err != nil {
		return nil, fmt.Errorf("measuring snr of %s: %w", path, err)
	}

	value, err := parse.Float(strings.TrimSpace(out))
	if err != nil {
		return nil, err
	}
	return &Output{Value: value}, nil
}
