package tmdriver

import (
	"io"
	"log/slog"

	"github.com/blockweave/tmcore/tmconsensus"
)

// Option configures a Driver at construction time.
type Option func(*Driver) error

// WithLogger overrides the default no-op logger.
func WithLogger(log *slog.Logger) Option {
	return func(d *Driver) error {
		d.log = log
		return nil
	}
}

// WithSignatureScheme overrides the default SimpleSignatureScheme.
func WithSignatureScheme(scheme tmconsensus.SignatureScheme) Option {
	return func(d *Driver) error {
		d.sigScheme = scheme
		return nil
	}
}

// WithHashScheme overrides the default SimpleHashScheme.
func WithHashScheme(scheme tmconsensus.HashScheme) Option {
	return func(d *Driver) error {
		d.hashScheme = scheme
		return nil
	}
}

// WithProposerSelector overrides the default RoundRobinProposerSelector.
func WithProposerSelector(sel tmconsensus.ProposerSelector) Option {
	return func(d *Driver) error {
		d.proposerSelector = sel
		return nil
	}
}

// WithThresholdParams overrides the default (2/3, 1/3) BFT thresholds.
func WithThresholdParams(params tmconsensus.ThresholdParams) Option {
	return func(d *Driver) error {
		d.params = params
		return nil
	}
}

// WithBufferCapacity caps how many inputs are buffered per future
// height before the oldest is dropped. Default 1024.
func WithBufferCapacity(n int) Option {
	return func(d *Driver) error {
		d.bufferCap = n
		return nil
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
