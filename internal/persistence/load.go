// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package persistence

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/tomtom215/rhythmdb/internal/entrytype"
	"github.com/tomtom215/rhythmdb/internal/logging"
	"github.com/tomtom215/rhythmdb/internal/metrics"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
	"github.com/tomtom215/rhythmdb/internal/rhythmdberrors"
)

// Load streams path's XML document into the store via a SAX-style token
// reader, staging up to CommitBatchEntries entries at a time before
// flushing an intermediate commit, and applying, in ascending order, every
// registered migration hook whose fromVersion is at or above the document's
// declared version attribute and below CurrentVersion to each entry it
// stages. A document version at or above CurrentVersion needs no migration.
//
// Malformed XML aborts the load with a KindParseError. The load is not
// rolled back: entries read before the error stay in the store, those in
// batches already flushed committed and the rest staged for the next
// commit. An entry with a schema error of its own (unknown type, missing or
// duplicate location) is dropped with a logged warning; the rest of the
// document continues loading.
func (m *Manager) Load(ctx context.Context, path string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordPersistence("load", time.Since(start), err) }()

	log := logging.Ctx(ctx)

	f, openErr := os.Open(path)
	if openErr != nil {
		err = rhythmdberrors.IO("open database file %q: %v", path, openErr)
		return err
	}
	defer f.Close()

	dec := xml.NewDecoder(f)

	docVersion := CurrentVersion
	pending := 0
	total := 0

	for {
		tok, tokErr := dec.Token()
		if tokErr == io.EOF {
			break
		}
		if tokErr != nil {
			line, col := dec.InputPos()
			err = rhythmdberrors.NewParseError(line, col, tokErr.Error())
			return err
		}

		elem, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch elem.Name.Local {
		case rootElement:
			docVersion = readVersionAttr(elem)

		case entryElement:
			if loadErr := m.loadEntry(ctx, dec, elem, docVersion); loadErr != nil {
				var dbErr *rhythmdberrors.Error
				if errors.As(loadErr, &dbErr) && dbErr.Kind == rhythmdberrors.KindParseError {
					err = loadErr
					return err
				}
				log.Warn().Err(loadErr).Msg("dropping malformed entry")
				continue
			}
			total++
			pending++
			if pending >= CommitBatchEntries {
				if _, cerr := m.engine.Commit(ctx); cerr != nil {
					err = rhythmdberrors.IO("commit load batch: %v", cerr)
					return err
				}
				pending = 0
			}
		}
	}

	if pending > 0 {
		if _, cerr := m.engine.Commit(ctx); cerr != nil {
			err = rhythmdberrors.IO("commit final load batch: %v", cerr)
			return err
		}
	}

	log.Info().Int("entries", total).Int("doc_version", docVersion).Str("path", path).Msg("database loaded")
	return nil
}

func readVersionAttr(start xml.StartElement) int {
	for _, a := range start.Attr {
		if a.Name.Local == versionAttr {
			if v, err := strconv.Atoi(a.Value); err == nil {
				return v
			}
		}
	}
	return 1
}

// loadEntry reads one <entry> element's leaf property values, creates the
// entry in the store, applies any migration hooks whose fromVersion is at
// or above docVersion and below CurrentVersion, and stages it. A schema
// error confined to this single entry (unknown type, missing location, a
// location already in the store) returns a non-parse error so the caller
// drops just this entry and keeps reading the document; a malformed token
// stream anywhere inside the entry surfaces as KindParseError.
func (m *Manager) loadEntry(ctx context.Context, dec *xml.Decoder, start xml.StartElement, docVersion int) error {
	typeName := attrValue(start, typeAttr)
	ty, ok := m.types.Lookup(typeName)
	if !ok {
		if err := skipElement(dec); err != nil {
			return toParseErr(dec, err)
		}
		return rhythmdberrors.Invalid("unknown entry type %q", typeName)
	}

	props := make(map[rhythmdb.Property]string)
	for {
		tok, err := dec.Token()
		if err != nil {
			return toParseErr(dec, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			prop, ok := rhythmdb.LookupByName(t.Name.Local)
			if !ok {
				if err := skipElement(dec); err != nil {
					return toParseErr(dec, err)
				}
				continue
			}
			text, err := readCharData(dec)
			if err != nil {
				return toParseErr(dec, err)
			}
			props[prop] = text
		case xml.EndElement:
			if t.Name.Local == entryElement {
				return m.stageLoadedEntry(ctx, ty, props, docVersion)
			}
		}
	}
}

func (m *Manager) stageLoadedEntry(ctx context.Context, ty *entrytype.Type, props map[rhythmdb.Property]string, docVersion int) error {
	location, ok := props[rhythmdb.PropLocation]
	if !ok || location == "" {
		return rhythmdberrors.Invalid("entry missing location")
	}

	e, err := m.store.New(ty, location)
	if err != nil {
		return err
	}

	for prop, text := range props {
		if prop == rhythmdb.PropLocation {
			continue
		}
		if prop.ValueType() == rhythmdb.TypeString {
			m.store.Set(e, prop, rhythmdb.Value{Str: m.store.InternAtom(text)})
			continue
		}
		v, ok := parseValue(prop, text)
		if !ok {
			continue
		}
		m.store.Set(e, prop, v)
	}

	for from := docVersion; from < CurrentVersion; from++ {
		if fn, ok := m.migrations[from]; ok {
			fn(e, m.store)
		}
	}

	return nil
}

func attrValue(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func readCharData(dec *xml.Decoder) (string, error) {
	var text string
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text += string(t)
		case xml.EndElement:
			return text, nil
		case xml.StartElement:
			if err := skipElement(dec); err != nil {
				return "", err
			}
		}
	}
}

// skipElement consumes tokens up to and including the matching end element
// for a start element already read, for unknown leaf elements the loader
// tolerates rather than rejects.
func skipElement(dec *xml.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

func toParseErr(dec *xml.Decoder, err error) error {
	line, col := dec.InputPos()
	return rhythmdberrors.NewParseError(line, col, err.Error())
}

func parseValue(prop rhythmdb.Property, text string) (rhythmdb.Value, bool) {
	switch prop.ValueType() {
	case rhythmdb.TypeString:
		// Caller interns string properties directly via the store's atom
		// pool before reaching here; parseValue only handles scalar types.
		return rhythmdb.Value{}, false
	case rhythmdb.TypeULong:
		n, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return rhythmdb.Value{}, false
		}
		return rhythmdb.Value{ULong: n}, true
	case rhythmdb.TypeDouble:
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return rhythmdb.Value{}, false
		}
		return rhythmdb.Value{Double: n}, true
	case rhythmdb.TypeBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return rhythmdb.Value{}, false
		}
		return rhythmdb.Value{Bool: b}, true
	case rhythmdb.TypeTimestamp:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return rhythmdb.Value{}, false
		}
		return rhythmdb.Value{Timestamp: n}, true
	case rhythmdb.TypeJulianDay:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return rhythmdb.Value{}, false
		}
		return rhythmdb.Value{JulianDay: n}, true
	case rhythmdb.TypeInt64:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return rhythmdb.Value{}, false
		}
		return rhythmdb.Value{Int64: n}, true
	default:
		return rhythmdb.Value{}, false
	}
}
