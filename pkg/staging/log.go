package staging

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// logWriter appends encoded staging records to one file in a
// bitcask-style append log: buffered writes, fsync on every Flush
// (the staging store flushes once per batch; staging is
// low-throughput, build-time only — no interval-based fsync timer is
// needed here).
type logWriter struct {
	file   *os.File
	writer *bufio.Writer
	offset int64
}

func newLogWriter(path string) (*logWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("staging: open log %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("staging: stat log %s: %w", path, err)
	}
	return &logWriter{file: f, writer: bufio.NewWriter(f), offset: info.Size()}, nil
}

func (w *logWriter) Append(r *Record) (int64, error) {
	data := newRecordCodec().Encode(r)
	n, err := w.writer.Write(data)
	if err != nil {
		return 0, fmt.Errorf("staging: append record: %w", err)
	}
	recordOffset := w.offset
	w.offset += int64(n)
	return recordOffset, nil
}

func (w *logWriter) Flush() error {
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("staging: flush log: %w", err)
	}
	return w.file.Sync()
}

func (w *logWriter) Close() error {
	if err := w.Flush(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// logReader provides sequential read access over a staging log file,
// used to enumerate records in append (id) order for the final tree
// build.
type logReader struct {
	file   *os.File
	reader *bufio.Reader
	codec  *recordCodec
}

func newLogReader(path string) (*logReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("staging: open log for read %s: %w", path, err)
	}
	return &logReader{file: f, reader: bufio.NewReader(f), codec: newRecordCodec()}, nil
}

func (r *logReader) ReadNext() (*Record, error) {
	hdr := make([]byte, recordHeaderSize)
	if _, err := io.ReadFull(r.reader, hdr); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: %v", ErrCorruption, err)
	}
	h, err := r.codec.DecodeHeader(hdr)
	if err != nil {
		return nil, err
	}

	bodyLen := int(h.nameSize + h.valueSize)
	body := make([]byte, bodyLen)
	if bodyLen > 0 {
		if _, err := io.ReadFull(r.reader, body); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruption, err)
		}
	}
	rec, err := r.codec.DecodeBody(h, body)
	if err != nil {
		return nil, err
	}
	if err := r.codec.Validate(rec, h.crc32); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *logReader) Close() error {
	return r.file.Close()
}
