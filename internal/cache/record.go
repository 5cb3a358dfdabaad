package cache

import (
	"bytes"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/yorozuya-cybersecurity/docaudit/internal/schema"
)

// Current schema version - increment when Record format changes.
const recordSchemaVersion uint16 = 1

// Record is the persisted form of a corpus snapshot.
type Record struct {
	Schema uint16 `json:"schema"`

	ID                 string                       `json:"id"`
	Root               string                       `json:"root"`
	Results            []schema.DocumentAuditResult `json:"results"`
	Timestamp          int64                        `json:"timestamp"` // epoch millis
	Partial            bool                         `json:"partial"`
	DuplicatesComplete bool                         `json:"duplicates_complete"`
	Total              int                          `json:"total"`

	// Fingerprint of the configuration the snapshot was produced with.
	Fingerprint string `json:"fingerprint"`
}

// defaultRecord is what a decoded record starts from, so fields added in
// later versions keep sane values when reading older blobs.
func defaultRecord() Record {
	return Record{
		Schema:             recordSchemaVersion,
		Results:            []schema.DocumentAuditResult{},
		DuplicatesComplete: true,
	}
}

func newRecord(s *schema.CorpusSnapshot, fingerprint string) *Record {
	return &Record{
		Schema:             recordSchemaVersion,
		ID:                 s.ID,
		Root:               s.Root,
		Results:            s.Results,
		Timestamp:          s.Timestamp.UnixMilli(),
		Partial:            s.Partial,
		DuplicatesComplete: s.DuplicatesComplete,
		Total:              s.Total,
		Fingerprint:        fingerprint,
	}
}

// Snapshot converts the record back.
func (r *Record) Snapshot() *schema.CorpusSnapshot {
	results := r.Results
	if results == nil {
		results = []schema.DocumentAuditResult{}
	}
	return &schema.CorpusSnapshot{
		ID:                 r.ID,
		Root:               r.Root,
		Timestamp:          time.UnixMilli(r.Timestamp),
		Results:            results,
		Partial:            r.Partial,
		DuplicatesComplete: r.DuplicatesComplete,
		Total:              r.Total,
	}
}

// Encode serializes a record with msgpack, keyed by the json tag names.
func Encode(r *Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a record on top of the defaults.
func Decode(data []byte) (*Record, error) {
	rec := defaultRecord()
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
