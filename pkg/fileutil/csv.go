package fileutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// Row is a single CSV record and the line it started on
type Row struct {
	Fields []string
	Line   int
}

// CSVReader provides a helper/utility to stream CSV input, either from a file
// or from an already open reader
type CSVReader struct {
	FilePath string
	source   io.Reader
}

// NewCSVReader returns a CSVReader instance for a specified CSV file
func NewCSVReader(fp string) *CSVReader {
	return &CSVReader{
		FilePath: fp,
	}
}

// NewCSVReaderFrom returns a CSVReader that consumes r. It can be read once.
func NewCSVReaderFrom(r io.Reader) *CSVReader {
	return &CSVReader{
		source: r,
	}
}

func (r *CSVReader) open() (io.ReadCloser, error) {
	if r.source != nil {
		return io.NopCloser(r.source), nil
	}

	f, err := os.Open(r.FilePath)
	if err != nil {
		return nil, fmt.Errorf("opening a csv file: %w", err)
	}
	return f, nil
}

func newReader(src io.Reader) *csv.Reader {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1 // rows may omit trailing optional columns
	reader.TrimLeadingSpace = true
	return reader
}

// ReadAndProcessByRow streams the CSV input: headerFn receives the header row,
// then processorFn is called for every following row in order. The input is
// read once, so arbitrarily large files are never held in memory.
func (r *CSVReader) ReadAndProcessByRow(headerFn func([]string) error, processorFn func(Row) error) error {
	src, err := r.open()
	if err != nil {
		return err
	}
	defer src.Close()

	reader := newReader(src)

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("reading CSV header: %w", err)
	}

	if err := headerFn(header); err != nil {
		return err
	}

	// read and process row by row
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break // end of file, stop
		}
		if err != nil {
			return fmt.Errorf("reading CSV row: %w", err)
		}

		line, _ := reader.FieldPos(0)
		if err = processorFn(Row{Fields: fields, Line: line}); err != nil {
			return err
		}
	}

	return nil
}
