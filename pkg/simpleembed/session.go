package simpleembed

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Session is the per-record processing context for one save/validate cycle
// and for display. It is not safe for concurrent use.
type Session struct {
	Record *EmbedRecord

	persistedSourceURL string
	fetcher            Fetcher

	// memoized fetch, keyed by the URL it was fetched for
	metadata    RawMetadata
	metadataURL string

	classes  map[string]struct{}
	template string
}

// NewSession wraps a record. A record without an ID is treated as never
// persisted, so any non-empty source URL counts as changed.
func NewSession(rec *EmbedRecord) *Session {
	if rec == nil {
		rec = &EmbedRecord{}
	}
	s := &Session{Record: rec}
	if rec.ID != uuid.Nil {
		s.persistedSourceURL = rec.SourceURL
	}
	return s
}

// SetFetcher overrides the service fetcher for this session.
func (s *Session) SetFetcher(f Fetcher) *Session {
	s.fetcher = f
	return s
}

// Fetcher returns the session fetcher, if one was set.
func (s *Session) Fetcher() Fetcher {
	return s.fetcher
}

// SourceURLChanged reports whether the source URL differs from the last
// persisted value.
func (s *Session) SourceURLChanged() bool {
	return s.Record.SourceURL != s.persistedSourceURL
}

// MarkPersisted records the current source URL as persisted.
func (s *Session) MarkPersisted() {
	s.persistedSourceURL = s.Record.SourceURL
}

// metadataFor returns the memoized metadata for the current source URL,
// fetching at most once per URL.
func (s *Session) metadataFor(ctx context.Context, fallback Fetcher) (RawMetadata, error) {
	url := s.Record.SourceURL
	if s.metadata != nil && s.metadataURL == url {
		return s.metadata, nil
	}

	f := s.fetcher
	if f == nil {
		f = fallback
	}
	if f == nil {
		return nil, &FetchError{URL: url, Err: ErrNoFetcher}
	}

	raw, err := f.FetchFrom(ctx, url)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	if raw == nil {
		raw = RawMetadata{}
	}
	s.metadata = raw
	s.metadataURL = url
	return raw, nil
}

// AddClass adds whitespace-separated CSS classes.
func (s *Session) AddClass(class string) *Session {
	for _, name := range strings.Fields(class) {
		if s.classes == nil {
			s.classes = make(map[string]struct{})
		}
		s.classes[name] = struct{}{}
	}
	return s
}

// SetClass is an alias of AddClass.
func (s *Session) SetClass(class string) *Session {
	return s.AddClass(class)
}

// Classes returns the accumulated classes joined by single spaces, or an
// empty string when none were added.
func (s *Session) Classes() string {
	if len(s.classes) == 0 {
		return ""
	}
	names := make([]string, 0, len(s.classes))
	for name := range s.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, " ")
}

// Class is an alias of Classes.
func (s *Session) Class() string {
	return s.Classes()
}

// SetTemplate sets the template base name. Empty names are ignored.
func (s *Session) SetTemplate(name string) *Session {
	if name != "" {
		s.template = name
	}
	return s
}

// Template returns the template base name set on the session, if any.
func (s *Session) Template() string {
	return s.template
}
