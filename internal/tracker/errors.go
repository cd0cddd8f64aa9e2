package tracker

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Only ErrProviderUnavailable is retryable; everything
// else is surfaced to the caller verbatim.
var (
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrProjectNotFound     = errors.New("project not found")
	ErrSprintNotFound      = errors.New("sprint not found")
	ErrMalformedData       = errors.New("malformed provider data")
	ErrUnknownProvider     = errors.New("unknown provider type")
	ErrInvalidQuery        = errors.New("invalid query")
)

// Error wraps a taxonomy kind with enough request context (provider
// connection, project, chart type) for the caller to act on.
type Error struct {
	Kind     error
	Provider string
	Project  string
	Chart    string
	Msg      string
}

func (e *Error) Error() string {
	var parts []string
	if e.Chart != "" {
		parts = append(parts, "chart="+e.Chart)
	}
	if e.Provider != "" {
		parts = append(parts, "provider="+e.Provider)
	}
	if e.Project != "" {
		parts = append(parts, "project="+e.Project)
	}
	ctx := strings.Join(parts, " ")
	switch {
	case e.Msg != "" && ctx != "":
		return fmt.Sprintf("%s: %s (%s)", e.Kind.Error(), e.Msg, ctx)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
	case ctx != "":
		return fmt.Sprintf("%s (%s)", e.Kind.Error(), ctx)
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error { return e.Kind }

// WrapError attaches provider/project context to a taxonomy kind.
func WrapError(kind error, provider, project, format string, args ...any) error {
	return &Error{
		Kind:     kind,
		Provider: provider,
		Project:  project,
		Msg:      fmt.Sprintf(format, args...),
	}
}

// WithChart returns err with the chart type recorded, wrapping plain
// taxonomy kinds on the way through so context is never lost.
func WithChart(err error, chart string) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		if te.Chart == "" {
			te.Chart = chart
		}
		return err
	}
	return &Error{Kind: err, Chart: chart}
}

// Retryable reports whether err represents a transient provider
// failure worth retrying with backoff.
func Retryable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}
