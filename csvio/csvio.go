// Package csvio reads contact operation rows and writes the status report.
package csvio

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goliatone/go-connect-contacts/core"
)

const (
	HeaderMarker = "ExternalNetwork"
	StatusColumn = "Status"
	ColumnCount  = 8
)

var Columns = []string{
	"ExternalNetwork",
	"ContactAction",
	"ContactFirstName",
	"ContactLastName",
	"ContactCompany",
	"ContactEmail",
	"ContactPhone",
	"AdvisorEmailList",
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadRecords parses the input CSV. Blank lines are ignored and a row whose
// first column is the literal header marker is skipped. Any other row must
// have exactly eight columns.
func ReadRecords(r io.Reader) ([]core.ContactRecord, error) {
	buffered := bufio.NewReader(r)
	if prefix, err := buffered.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = buffered.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1

	records := []core.ContactRecord{}
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, core.BadInputError("csvio: parse input: "+err.Error(), nil)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(fields) {
			continue
		}
		if len(fields) != ColumnCount {
			return nil, core.BadInputError(
				fmt.Sprintf("csvio: invalid CSV file format on line %d - expect %d columns - %s",
					line, ColumnCount, strings.Join(Columns, ", ")),
				map[string]any{"line": line, "columns": len(fields)},
			)
		}
		if fields[0] == HeaderMarker {
			continue
		}
		records = append(records, core.ContactRecord{
			Line:             line,
			ExternalNetwork:  fields[0],
			ContactAction:    fields[1],
			ContactFirstName: fields[2],
			ContactLastName:  fields[3],
			ContactCompany:   fields[4],
			ContactEmail:     fields[5],
			ContactPhone:     fields[6],
			AdvisorEmailList: fields[7],
		})
	}
	return records, nil
}

func ReadFile(path string) ([]core.ContactRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, core.BadInputError("csvio: open input: "+err.Error(), map[string]any{"path": path})
	}
	defer file.Close()
	return ReadRecords(file)
}

// WriteReport writes the header, then one line per row with the Status column
// appended. Output starts with a UTF-8 byte order mark.
func WriteReport(w io.Writer, rows []core.ReportRow) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	header := append(append([]string{}, Columns...), StatusColumn)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(append(row.Record.Fields(), row.Status)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func WriteFile(path string, rows []core.ReportRow) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return core.StorageError(err, "csvio: create output", map[string]any{"path": path})
	}
	defer func() {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = core.StorageError(closeErr, "csvio: close output", map[string]any{"path": path})
		}
	}()
	if err := WriteReport(file, rows); err != nil {
		return core.StorageError(err, "csvio: write output", map[string]any{"path": path})
	}
	return nil
}

func isBlank(fields []string) bool {
	return len(fields) == 0 || (len(fields) == 1 && fields[0] == "")
}
