// Copyright (c) 2023 The KBase Project and its Contributors
// Copyright (c) 2023 Cohere Consulting, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package journal

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/frictionlessdata/datapackage-go/datapackage"
	"github.com/frictionlessdata/datapackage-go/validator"
	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/kbase/gdc/config"
)

// This is the download journal, which logs every gdc-client download. The
// journal is a SQLite table of download records (one per download), stored
// in the service's data directory.

// name of the journal's database file within the data directory
const DatabaseFile = "download_journal.db"

// a record storing all information relevant to a download
type Record struct {
	// UUID associated with the download
	Id uuid.UUID `json:"id"`
	// projects searched and the data category downloaded
	Projects     []string `json:"projects"`
	DataCategory string   `json:"data_category"`
	// manifest handed to gdc-client and the directory receiving the files
	ManifestFile string `json:"manifest_file"`
	Directory    string `json:"directory"`
	// times at which the download was started and at which it completed
	StartTime time.Time `json:"start_time"`
	StopTime  time.Time `json:"stop_time"`
	// status of the download ("succeeded" or "failed")
	Status string `json:"status"`
	// a description of the failure, if any
	Message string `json:"message,omitempty"`
	// size of the download's payload in bytes
	PayloadSize int64 `json:"payload_size"`
	// number of files in the download's payload
	NumFiles int `json:"num_files"`
	// data package describing the downloaded files (stored separately)
	Package *datapackage.Package `json:"-"`
}

// initializes the download journal, opening (or creating) its database
func Init() error {
	if IsOpen() {
		return nil
	}
	opened := make(chan error)
	go downloadJournalProcess(opened)
	return <-opened
}

// closes the download journal (if it's been opened)
func Finalize() error {
	if !IsOpen() {
		return nil
	}
	channels_.Mutex.Lock()
	defer channels_.Mutex.Unlock()
	channels_.Input.Shutdown <- struct{}{}
	err := <-channels_.Output.Error
	closeChannels()
	return err
}

// returns true if the journal is open for reading and writing, false if not
func IsOpen() bool {
	channels_.Mutex.Lock()
	defer channels_.Mutex.Unlock()
	if channels_.Open { // has Init() been called?
		channels_.Input.CheckIfOpen <- struct{}{}
		select {
		case isOpen := <-channels_.Output.IsOpen:
			return isOpen
		case <-time.After(1 * time.Second): // after a second, we assume the goroutine has crashed
			closeChannels()
			return false
		}
	}
	return false
}

// records a completed download
func RecordDownload(record Record) error {
	switch record.Status {
	case "succeeded", "failed":
		// pass-through (see below)
	default:
		return &NewRecordError{
			Id:      record.Id,
			Message: fmt.Sprintf("Invalid status: %s", record.Status),
		}
	}
	if record.Id == uuid.Nil {
		return &NewRecordError{
			Message: "No download ID was given",
		}
	}

	if !IsOpen() {
		return &NotOpenError{}
	}
	channels_.Mutex.Lock()
	defer channels_.Mutex.Unlock()
	channels_.Input.CreateRecord <- record
	return <-channels_.Output.Error
}

// retrieves the record for the download with the given ID
func DownloadRecord(id uuid.UUID) (Record, error) {
	if !IsOpen() {
		return Record{}, &NotOpenError{}
	}
	channels_.Mutex.Lock()
	defer channels_.Mutex.Unlock()
	channels_.Input.FetchRecord <- id
	select {
	case record := <-channels_.Output.Record:
		return record, nil
	case err := <-channels_.Output.Error:
		return Record{}, err
	}
}

// retrieves records for downloads that started and finished within the time
// range with the given (inclusive) bounds, ordered by start time
func Records(start, stop time.Time) ([]Record, error) {
	if !IsOpen() {
		return nil, &NotOpenError{}
	}
	channels_.Mutex.Lock()
	defer channels_.Mutex.Unlock()
	channels_.Input.FetchRecords <- TimeRange{Start: start, Stop: stop}
	select {
	case records := <-channels_.Output.Records:
		return records, nil
	case err := <-channels_.Output.Error:
		return nil, err
	}
}

//-----------
// Internals
//-----------

// The journal's database connection belongs to its own goroutine, since a
// SQLite connection can't be shared. Here we define "input" channels (main
// process -> goroutine) and "output" channels (goroutine -> main process) for
// passing data back and forth. The mutex admits one exchange at a time.

type TimeRange struct {
	Start, Stop time.Time
}

var channels_ struct {
	Mutex sync.Mutex
	Open  bool // true if channels are open, false if not
	Input struct {
		CreateRecord chan Record    // for creating new records
		CheckIfOpen  chan struct{}  // for checking to see whether the database is open
		FetchRecord  chan uuid.UUID // for fetching a record by ID
		FetchRecords chan TimeRange // for fetching records within a time range
		Shutdown     chan struct{}  // for shutting down the database
	}

	Output struct {
		Record  chan Record   // for returning a single record
		Records chan []Record // for returning records
		Error   chan error    // for returning errors
		IsOpen  chan bool     // for answering queries about whether the database is open
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS downloads (
  id TEXT PRIMARY KEY,
  projects TEXT NOT NULL,
  data_category TEXT NOT NULL,
  manifest_file TEXT NOT NULL,
  directory TEXT NOT NULL,
  start_time TEXT NOT NULL,
  stop_time TEXT NOT NULL,
  status TEXT NOT NULL,
  message TEXT NOT NULL,
  payload_size INTEGER NOT NULL,
  num_files INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS downloads_by_start_time ON downloads(start_time);
CREATE TABLE IF NOT EXISTS packages (
  id TEXT PRIMARY KEY REFERENCES downloads(id),
  descriptor TEXT NOT NULL
);
`

func downloadJournalProcess(opened chan<- error) {

	// open the database, creating the schema if necessary
	dbPath := filepath.Join(config.Service.DataDirectory, DatabaseFile)
	conn, err := sqlite.OpenConn(dbPath)
	if err != nil {
		opened <- &CantOpenError{Message: err.Error()}
		return
	}
	err = sqlitex.ExecuteScript(conn, schema, nil)
	if err != nil {
		conn.Close()
		opened <- &CantOpenError{Message: err.Error()}
		return
	}

	channels_.Mutex.Lock()
	openChannels()
	channels_.Mutex.Unlock()
	opened <- nil

	// handle requests
	running := true
	for running {
		select {

		case <-channels_.Input.CheckIfOpen:
			channels_.Output.IsOpen <- true // always true if this goroutine is running!

		case record := <-channels_.Input.CreateRecord:
			channels_.Output.Error <- createRecord(conn, record)

		case id := <-channels_.Input.FetchRecord:
			record, err := fetchRecord(conn, id)
			if err != nil {
				channels_.Output.Error <- err
			} else {
				channels_.Output.Record <- record
			}

		case timeRange := <-channels_.Input.FetchRecords:
			records, err := fetchRecords(conn, timeRange.Start, timeRange.Stop)
			if err != nil {
				channels_.Output.Error <- err
			} else {
				channels_.Output.Records <- records
			}

		case <-channels_.Input.Shutdown:
			err := conn.Close()
			if err != nil {
				err = &CantCloseError{Message: err.Error()}
			}
			channels_.Output.Error <- err
			running = false
		}
	}
}

func openChannels() {
	channels_.Open = true
	channels_.Input.CreateRecord = make(chan Record)
	channels_.Input.CheckIfOpen = make(chan struct{})
	channels_.Input.FetchRecord = make(chan uuid.UUID)
	channels_.Input.FetchRecords = make(chan TimeRange)
	channels_.Input.Shutdown = make(chan struct{})
	channels_.Output.Record = make(chan Record)
	channels_.Output.Records = make(chan []Record)
	channels_.Output.Error = make(chan error)
	channels_.Output.IsOpen = make(chan bool)
}

func closeChannels() {
	channels_.Open = false
	close(channels_.Input.CreateRecord)
	close(channels_.Input.CheckIfOpen)
	close(channels_.Input.FetchRecord)
	close(channels_.Input.FetchRecords)
	close(channels_.Input.Shutdown)
	close(channels_.Output.Record)
	close(channels_.Output.Records)
	close(channels_.Output.Error)
	close(channels_.Output.IsOpen)
}

// journal times are stored as RFC 3339 UTC text, which sorts chronologically
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func createRecord(conn *sqlite.Conn, record Record) (err error) {
	defer sqlitex.Save(conn)(&err)

	err = sqlitex.ExecuteTransient(conn, `INSERT INTO downloads
  (id, projects, data_category, manifest_file, directory, start_time, stop_time,
   status, message, payload_size, num_files)
  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
		Args: []any{
			record.Id.String(),
			strings.Join(record.Projects, ","),
			record.DataCategory,
			record.ManifestFile,
			record.Directory,
			formatTime(record.StartTime),
			formatTime(record.StopTime),
			record.Status,
			record.Message,
			record.PayloadSize,
			record.NumFiles,
		},
	})
	if err != nil {
		return &NewRecordError{
			Id:      record.Id,
			Message: err.Error(),
		}
	}

	// store the data package describing the download's files, if any
	if record.Package != nil {
		descriptor, err := json.Marshal(record.Package.Descriptor())
		if err != nil {
			return &NewRecordError{
				Id:      record.Id,
				Message: err.Error(),
			}
		}
		err = sqlitex.ExecuteTransient(conn,
			"INSERT INTO packages (id, descriptor) VALUES (?, ?)", &sqlitex.ExecOptions{
				Args: []any{record.Id.String(), string(descriptor)},
			})
		if err != nil {
			return &NewRecordError{
				Id:      record.Id,
				Message: err.Error(),
			}
		}
	}
	return nil
}

const selectRecords = `SELECT d.id, d.projects, d.data_category, d.manifest_file,
  d.directory, d.start_time, d.stop_time, d.status, d.message, d.payload_size,
  d.num_files, p.descriptor
  FROM downloads d LEFT JOIN packages p ON p.id = d.id`

// reads a record from a row produced by selectRecords
func scanRecord(stmt *sqlite.Stmt) (Record, error) {
	id, err := uuid.Parse(stmt.ColumnText(0))
	if err != nil {
		return Record{}, &InvalidRecordError{Message: err.Error()}
	}
	record := Record{
		Id:           id,
		DataCategory: stmt.ColumnText(2),
		ManifestFile: stmt.ColumnText(3),
		Directory:    stmt.ColumnText(4),
		StartTime:    parseTime(stmt.ColumnText(5)),
		StopTime:     parseTime(stmt.ColumnText(6)),
		Status:       stmt.ColumnText(7),
		Message:      stmt.ColumnText(8),
		PayloadSize:  stmt.ColumnInt64(9),
		NumFiles:     int(stmt.ColumnInt64(10)),
	}
	if projects := stmt.ColumnText(1); projects != "" {
		record.Projects = strings.Split(projects, ",")
	}
	if descriptor := stmt.ColumnText(11); descriptor != "" {
		record.Package, err = datapackage.FromString(descriptor, "datapackage.json",
			validator.InMemoryLoader())
		if err != nil {
			return Record{}, &InvalidRecordError{
				Id:      id,
				Message: "unable to retrieve data package for download",
			}
		}
	}
	return record, nil
}

func fetchRecord(conn *sqlite.Conn, id uuid.UUID) (Record, error) {
	var record Record
	found := false
	err := sqlitex.ExecuteTransient(conn, selectRecords+" WHERE d.id = ?", &sqlitex.ExecOptions{
		Args: []any{id.String()},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			var err error
			record, err = scanRecord(stmt)
			found = true
			return err
		},
	})
	if err != nil {
		return Record{}, err
	}
	if !found {
		return Record{}, &RecordNotFoundError{Id: id}
	}
	return record, nil
}

func fetchRecords(conn *sqlite.Conn, start, stop time.Time) ([]Record, error) {
	records := make([]Record, 0)
	err := sqlitex.ExecuteTransient(conn,
		selectRecords+" WHERE d.start_time >= ? AND d.stop_time <= ? ORDER BY d.start_time",
		&sqlitex.ExecOptions{
			Args: []any{formatTime(start), formatTime(stop)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				record, err := scanRecord(stmt)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			},
		})
	return records, err
}
