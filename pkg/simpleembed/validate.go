package simpleembed

import (
	"context"
	"errors"
)

// ValidationResult collects user-facing rejections of a save.
type ValidationResult struct {
	errs []error
}

// AddError appends a rejection.
func (r *ValidationResult) AddError(err error) {
	r.errs = append(r.errs, err)
}

// Valid reports whether no rejection was recorded.
func (r *ValidationResult) Valid() bool {
	return len(r.errs) == 0
}

// Errors returns the recorded rejections.
func (r *ValidationResult) Errors() []error {
	return r.errs
}

// Err joins the recorded rejections, or returns nil when valid.
func (r *ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	if len(r.errs) == 1 {
		return r.errs[0]
	}
	return errors.Join(r.errs...)
}

// Validate enforces the embed type allow-list. It only runs when validation
// is enabled, the source URL is set and changed, and the allow-list for the
// record kind is non-empty. The fetch is shared with Normalize in the same
// session. Record fields are never modified.
func (s *service) Validate(ctx context.Context, sess *Session) (*ValidationResult, error) {
	result := &ValidationResult{}
	rec := sess.Record
	allowed := s.allowedTypes(rec)

	if !s.settings.ValidateEmbed || rec.SourceURL == "" || !sess.SourceURLChanged() || len(allowed) == 0 {
		return result, nil
	}

	raw, err := sess.metadataFor(ctx, s.fetcher)
	if err != nil {
		return result, err
	}

	typ, _ := raw.String(keyType)
	for _, a := range allowed {
		if a == typ {
			return result, nil
		}
	}

	result.AddError(&ValidationError{Type: typ, Allowed: append([]string(nil), allowed...)})
	return result, nil
}
