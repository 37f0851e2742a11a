// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package persistence

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/tomtom215/rhythmdb/internal/logging"
	"github.com/tomtom215/rhythmdb/internal/metrics"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
	"github.com/tomtom215/rhythmdb/internal/rhythmdberrors"
)

// Save drains every persistable, non-deleted entry from the store sorted by
// location, writes the document to a temporary file beside path, fsyncs it,
// and atomically renames it into place — the same write-temp/fsync/rename
// sequence the teacher's WAL compaction uses for segment rotation.
func (m *Manager) Save(ctx context.Context, path string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordPersistence("save", time.Since(start), err) }()

	entries := m.collectSortedByLocation()

	tmpPath := path + ".tmp"
	f, createErr := os.Create(tmpPath)
	if createErr != nil {
		err = rhythmdberrors.IO("create temp database file %q: %v", tmpPath, createErr)
		return err
	}

	if werr := writeDocument(f, entries); werr != nil {
		f.Close()
		os.Remove(tmpPath)
		err = rhythmdberrors.IO("write database document: %v", werr)
		return err
	}
	if serr := f.Sync(); serr != nil {
		f.Close()
		os.Remove(tmpPath)
		err = rhythmdberrors.IO("fsync temp database file %q: %v", tmpPath, serr)
		return err
	}
	if cerr := f.Close(); cerr != nil {
		os.Remove(tmpPath)
		err = rhythmdberrors.IO("close temp database file %q: %v", tmpPath, cerr)
		return err
	}
	if rerr := os.Rename(tmpPath, path); rerr != nil {
		os.Remove(tmpPath)
		err = rhythmdberrors.IO("rename %q to %q: %v", tmpPath, path, rerr)
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if df, derr := os.Open(dir); derr == nil {
			_ = df.Sync()
			df.Close()
		}
	}

	logging.WithComponent("persistence").Info().
		Int("entries", len(entries)).Str("path", path).Msg("database saved")
	return nil
}

// collectSortedByLocation snapshots every live, persistable entry sorted by
// location, the deterministic order the saved document's entries appear in.
func (m *Manager) collectSortedByLocation() []*rhythmdb.Entry {
	var entries []*rhythmdb.Entry
	m.store.ForEach(func(e *rhythmdb.Entry) {
		if e.Deleted() || !e.Committed() {
			return
		}
		if e.Type != nil && !e.Type.Persistent {
			return
		}
		entries = append(entries, e)
	})
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Location().String() < entries[j].Location().String()
	})
	return entries
}

func writeDocument(f *os.File, entries []*rhythmdb.Entry) error {
	if _, err := f.WriteString(xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")

	start := xml.StartElement{
		Name: xml.Name{Local: rootElement},
		Attr: []xml.Attr{{Name: xml.Name{Local: versionAttr}, Value: strconv.Itoa(CurrentVersion)}},
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	props := rhythmdb.PropertiesInPersistOrder()
	for _, e := range entries {
		if err := writeEntry(enc, e, props); err != nil {
			return err
		}
	}

	if err := enc.EncodeToken(start.End()); err != nil {
		return err
	}
	return enc.Flush()
}

func writeEntry(enc *xml.Encoder, e *rhythmdb.Entry, props []rhythmdb.Property) error {
	typeName := ""
	if e.Type != nil {
		typeName = e.Type.Name
	}
	start := xml.StartElement{
		Name: xml.Name{Local: entryElement},
		Attr: []xml.Attr{{Name: xml.Name{Local: typeAttr}, Value: typeName}},
	}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	for _, p := range props {
		v := e.Get(p)
		if isDefaultValue(p, v) {
			continue
		}
		text := formatValue(p, v)
		leaf := xml.StartElement{Name: xml.Name{Local: p.Name()}}
		if err := enc.EncodeToken(leaf); err != nil {
			return err
		}
		if err := enc.EncodeToken(xml.CharData([]byte(text))); err != nil {
			return err
		}
		if err := enc.EncodeToken(leaf.End()); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}

// isDefaultValue reports whether v is p's zero value and therefore omitted
// from the saved document, per "one leaf element per non-default property".
func isDefaultValue(p rhythmdb.Property, v rhythmdb.Value) bool {
	switch p.ValueType() {
	case rhythmdb.TypeString:
		return v.Str == nil || v.Str.String() == ""
	case rhythmdb.TypeULong:
		return v.ULong == 0
	case rhythmdb.TypeDouble:
		return v.Double == 0
	case rhythmdb.TypeBoolean:
		return !v.Bool
	case rhythmdb.TypeTimestamp:
		return v.Timestamp == 0
	case rhythmdb.TypeJulianDay:
		return v.JulianDay == 0
	case rhythmdb.TypeInt64:
		return v.Int64 == 0
	default:
		return true
	}
}

func formatValue(p rhythmdb.Property, v rhythmdb.Value) string {
	switch p.ValueType() {
	case rhythmdb.TypeString:
		if v.Str == nil {
			return ""
		}
		return v.Str.String()
	case rhythmdb.TypeULong:
		return strconv.FormatUint(v.ULong, 10)
	case rhythmdb.TypeDouble:
		return fmt.Sprintf("%g", v.Double)
	case rhythmdb.TypeBoolean:
		return strconv.FormatBool(v.Bool)
	case rhythmdb.TypeTimestamp:
		return strconv.FormatInt(v.Timestamp, 10)
	case rhythmdb.TypeJulianDay:
		return strconv.FormatInt(v.JulianDay, 10)
	case rhythmdb.TypeInt64:
		return strconv.FormatInt(v.Int64, 10)
	default:
		return ""
	}
}
