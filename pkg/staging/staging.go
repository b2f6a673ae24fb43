// Package staging implements the append-only, batched-flush raw
// staging store the builder ingests from: entries and tokens are
// buffered in memory and flushed to their own append logs, which can
// then be replayed in id (ingestion) order for the final tree build.
package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/segmentio/ksuid"
)

// defaultBatchSize mirrors the reference tool's in-memory cache size
// before a flush (original_source/src/raw.rs: cache_size = 200).
const defaultBatchSize = 200

const (
	entryLogName = "entries.stage"
	tokenLogName = "tokens.stage"
)

// Staging is an append-only batched-flush store for a builder's two
// input streams: entries and tokens.
type Staging struct {
	mu sync.Mutex

	entryWriter *logWriter
	tokenWriter *logWriter

	entryBatch []*Record
	tokenBatch []*Record
	batchSize  int
}

// Open creates or resumes a staging store rooted at dir.
func Open(dir string) (*Staging, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("staging: create dir %s: %w", dir, err)
	}
	ew, err := newLogWriter(filepath.Join(dir, entryLogName))
	if err != nil {
		return nil, err
	}
	tw, err := newLogWriter(filepath.Join(dir, tokenLogName))
	if err != nil {
		ew.Close()
		return nil, err
	}
	return &Staging{
		entryWriter: ew,
		tokenWriter: tw,
		batchSize:   defaultBatchSize,
	}, nil
}

// InsertEntry buffers one (name, value) entry, flushing the entry
// batch automatically once it reaches batchSize.
func (s *Staging) InsertEntry(name string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entryBatch = append(s.entryBatch, &Record{
		ID:    ksuid.New(),
		Kind:  EntryKind,
		Name:  name,
		Value: value,
	})
	if len(s.entryBatch) >= s.batchSize {
		return s.flushEntriesLocked()
	}
	return nil
}

// InsertToken buffers one (name, alternates) token record, flushing
// the token batch automatically once it reaches batchSize. Alternates
// are stored packed in the same u16-length-prefixed format the token
// tree uses; TokenIterator.Alternates unpacks them again.
func (s *Staging) InsertToken(name string, alternates []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenBatch = append(s.tokenBatch, &Record{
		ID:    ksuid.New(),
		Kind:  TokenKind,
		Name:  name,
		Value: packAlternates(alternates),
	})
	if len(s.tokenBatch) >= s.batchSize {
		return s.flushTokensLocked()
	}
	return nil
}

// Flush writes any buffered entries and tokens to their logs and
// fsyncs both.
func (s *Staging) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.flushEntriesLocked(); err != nil {
		return err
	}
	return s.flushTokensLocked()
}

func (s *Staging) flushEntriesLocked() error {
	for _, r := range s.entryBatch {
		if _, err := s.entryWriter.Append(r); err != nil {
			return err
		}
	}
	s.entryBatch = s.entryBatch[:0]
	return s.entryWriter.Flush()
}

func (s *Staging) flushTokensLocked() error {
	for _, r := range s.tokenBatch {
		if _, err := s.tokenWriter.Append(r); err != nil {
			return err
		}
	}
	s.tokenBatch = s.tokenBatch[:0]
	return s.tokenWriter.Flush()
}

// Close flushes and closes both logs.
func (s *Staging) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.entryWriter.Close(); err != nil {
		return err
	}
	return s.tokenWriter.Close()
}

// EntryIterator enumerates flushed entries in id (ingestion) order.
type EntryIterator struct {
	reader *logReader
	rec    *Record
}

// IterEntries returns an iterator over every flushed entry record in
// ingestion order. Call Flush first to include in-memory records.
func (s *Staging) IterEntries(dir string) (*EntryIterator, error) {
	r, err := newLogReader(filepath.Join(dir, entryLogName))
	if err != nil {
		return nil, err
	}
	return &EntryIterator{reader: r}, nil
}

// Next advances the iterator, returning false at end-of-log.
func (it *EntryIterator) Next() bool {
	rec, err := it.reader.ReadNext()
	if err != nil {
		return false
	}
	it.rec = rec
	return true
}

// Name returns the current record's headword.
func (it *EntryIterator) Name() string { return it.rec.Name }

// Value returns the current record's value bytes.
func (it *EntryIterator) Value() []byte { return it.rec.Value }

// Close releases the underlying log file.
func (it *EntryIterator) Close() error { return it.reader.Close() }

// TokenIterator enumerates flushed tokens in id (ingestion) order.
type TokenIterator struct {
	reader *logReader
	rec    *Record
}

// IterTokens returns an iterator over every flushed token record in
// ingestion order. Call Flush first to include in-memory records.
func (s *Staging) IterTokens(dir string) (*TokenIterator, error) {
	r, err := newLogReader(filepath.Join(dir, tokenLogName))
	if err != nil {
		return nil, err
	}
	return &TokenIterator{reader: r}, nil
}

// Next advances the iterator, returning false at end-of-log.
func (it *TokenIterator) Next() bool {
	rec, err := it.reader.ReadNext()
	if err != nil {
		return false
	}
	it.rec = rec
	return true
}

// Name returns the current record's headword.
func (it *TokenIterator) Name() string { return it.rec.Name }

// Alternates unpacks the current record's packed alternate-spelling
// list.
func (it *TokenIterator) Alternates() []string { return unpackAlternates(it.rec.Value) }

// Close releases the underlying log file.
func (it *TokenIterator) Close() error { return it.reader.Close() }
