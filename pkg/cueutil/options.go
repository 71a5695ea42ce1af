// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize caps user-provided CUE input at 1 MiB. Manifests and
// config files are hand-written; anything larger is almost certainly a
// mistake or an attack.
const DefaultMaxFileSize int64 = 1 << 20

type (
	// Option configures ParseAndDecode behavior.
	Option func(*options)

	options struct {
		filename    string
		concrete    bool
		maxFileSize int64
	}
)

func defaultOptions() options {
	return options{
		concrete:    false,
		maxFileSize: DefaultMaxFileSize,
	}
}

// WithFilename sets the filename used in error messages.
// Defaults to "<input>" when unset.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithConcrete requires all values to be concrete during validation.
// Schemas that carry optional fields with defaults should leave this off
// and rely on decode-time zero values.
func WithConcrete(concrete bool) Option {
	return func(o *options) { o.concrete = concrete }
}

// WithMaxFileSize overrides the input size cap.
func WithMaxFileSize(maxBytes int64) Option {
	return func(o *options) { o.maxFileSize = maxBytes }
}
