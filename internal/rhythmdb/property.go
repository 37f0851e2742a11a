// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package rhythmdb

import "github.com/tomtom215/rhythmdb/internal/atom"

// ValueType identifies the Go type a Property's value is stored and
// compared as.
type ValueType int

const (
	// TypeString properties hold a *atom.Atom and carry folded/sort-key
	// derived siblings.
	TypeString ValueType = iota
	// TypeULong holds a non-negative integer (track/disc numbers, play count).
	TypeULong
	// TypeDouble holds a floating-point value (rating).
	TypeDouble
	// TypeBoolean holds a true/false flag (hidden).
	TypeBoolean
	// TypeTimestamp holds a Unix timestamp (last-played) and carries a
	// locale-formatted string sibling.
	TypeTimestamp
	// TypeJulianDay holds a Julian day number (date), used for year-based
	// query clauses.
	TypeJulianDay
	// TypeInt64 holds a signed 64-bit quantity (file size, duration seconds).
	TypeInt64
)

// Property identifies one of the entry's fixed typed slots.
type Property int

const (
	PropLocation Property = iota
	PropTitle
	PropGenre
	PropArtist
	PropAlbum
	PropTrackNumber
	PropDiscNumber
	PropDuration
	PropFileSize
	PropBitrate
	PropDate
	PropLastPlayed
	PropPlayCount
	PropRating
	PropHidden
	PropTitleSortname
	PropArtistSortname
	PropAlbumSortname
	PropGenreSortname
	PropSearchMatch // synthetic, read-only: expanded by internal/query preprocessing
	PropMimeType
	PropMountpoint
	PropStreamTitle
	PropStreamArtist
	PropStreamAlbum
	PropPodcastSubtitle
	PropPodcastGUID
	PropComment
	PropComposer
	PropFileDescription

	// Derived siblings. Entry.ApplyPending recomputes these automatically
	// whenever their source property changes; callers never set them
	// directly. Limited to the string/timestamp properties that actually
	// flow through entry_set (PropLocation is assigned outside the staging
	// path by Store.New/Relocate; PropSearchMatch is synthetic and expanded
	// at query-preprocess time, never staged; the PropStream* trio bypass
	// staging entirely via Store.SetStreaming*), so every sibling here is
	// reachable from a real write.
	PropTitleFolded
	PropTitleSortKey
	PropGenreFolded
	PropGenreSortKey
	PropArtistFolded
	PropArtistSortKey
	PropAlbumFolded
	PropAlbumSortKey
	PropTitleSortnameFolded
	PropTitleSortnameSortKey
	PropArtistSortnameFolded
	PropArtistSortnameSortKey
	PropAlbumSortnameFolded
	PropAlbumSortnameSortKey
	PropGenreSortnameFolded
	PropGenreSortnameSortKey
	PropMimeTypeFolded
	PropMimeTypeSortKey
	PropMountpointFolded
	PropMountpointSortKey
	PropPodcastSubtitleFolded
	PropPodcastSubtitleSortKey
	PropPodcastGUIDFolded
	PropPodcastGUIDSortKey
	PropCommentFolded
	PropCommentSortKey
	PropComposerFolded
	PropComposerSortKey
	PropFileDescriptionFolded
	PropFileDescriptionSortKey
	PropLastPlayedFormatted

	propCount // sentinel, not a real property
)

// derivedKind identifies which auto-maintained sibling role a Property
// plays, if any. The zero value, derivedNone, marks an ordinary property.
type derivedKind int

const (
	derivedNone derivedKind = iota
	derivedFolded
	derivedSortKey
	derivedFormatted
)

// propertyInfo describes one Property's static shape: its stored type,
// display name (used by persistence and the query language), and whether it
// participates in sortname pairing or derived-sibling maintenance.
type propertyInfo struct {
	name string
	valueType   ValueType
	persistable bool // false for synthetic/derived-only properties

	// isSortname is true for a *_SORTNAME property; sortnameFor then names
	// the display property it pairs with.
	isSortname  bool
	sortnameFor Property

	// derivedKind/derivedFrom identify a sibling property: derivedKind is
	// non-zero and derivedFrom names the property it is automatically
	// recomputed from on every write.
	derivedKind derivedKind
	derivedFrom Property
}

var propertyTable = [propCount]propertyInfo{
	PropLocation:        {name: "location", valueType: TypeString, persistable: true},
	PropTitle:           {name: "title", valueType: TypeString, persistable: true},
	PropGenre:           {name: "genre", valueType: TypeString, persistable: true},
	PropArtist:          {name: "artist", valueType: TypeString, persistable: true},
	PropAlbum:           {name: "album", valueType: TypeString, persistable: true},
	PropTrackNumber:     {name: "track-number", valueType: TypeULong, persistable: true},
	PropDiscNumber:      {name: "disc-number", valueType: TypeULong, persistable: true},
	PropDuration:        {name: "duration", valueType: TypeInt64, persistable: true},
	PropFileSize:        {name: "file-size", valueType: TypeInt64, persistable: true},
	PropBitrate:         {name: "bitrate", valueType: TypeULong, persistable: true},
	PropDate:            {name: "date", valueType: TypeJulianDay, persistable: true},
	PropLastPlayed:      {name: "last-played", valueType: TypeTimestamp, persistable: true},
	PropPlayCount:       {name: "play-count", valueType: TypeULong, persistable: true},
	PropRating:          {name: "rating", valueType: TypeDouble, persistable: true},
	PropHidden:          {name: "hidden", valueType: TypeBoolean, persistable: true},
	PropTitleSortname:   {name: "title-sortname", valueType: TypeString, persistable: true, isSortname: true, sortnameFor: PropTitle},
	PropArtistSortname:  {name: "artist-sortname", valueType: TypeString, persistable: true, isSortname: true, sortnameFor: PropArtist},
	PropAlbumSortname:   {name: "album-sortname", valueType: TypeString, persistable: true, isSortname: true, sortnameFor: PropAlbum},
	PropGenreSortname:   {name: "genre-sortname", valueType: TypeString, persistable: true, isSortname: true, sortnameFor: PropGenre},
	PropSearchMatch:     {name: "search-match", valueType: TypeString, persistable: false},
	PropMimeType:        {name: "mime-type", valueType: TypeString, persistable: true},
	PropMountpoint:      {name: "mountpoint", valueType: TypeString, persistable: true},
	PropStreamTitle:     {name: "stream-title", valueType: TypeString, persistable: false},
	PropStreamArtist:    {name: "stream-artist", valueType: TypeString, persistable: false},
	PropStreamAlbum:     {name: "stream-album", valueType: TypeString, persistable: false},
	PropPodcastSubtitle: {name: "podcast-subtitle", valueType: TypeString, persistable: true},
	PropPodcastGUID:     {name: "podcast-guid", valueType: TypeString, persistable: true},
	PropComment:         {name: "comment", valueType: TypeString, persistable: true},
	PropComposer:        {name: "composer", valueType: TypeString, persistable: true},
	PropFileDescription: {name: "file-description", valueType: TypeString, persistable: true},

	PropTitleFolded:            {name: "title-folded", valueType: TypeString, derivedKind: derivedFolded, derivedFrom: PropTitle},
	PropTitleSortKey:           {name: "title-sort-key", valueType: TypeString, derivedKind: derivedSortKey, derivedFrom: PropTitle},
	PropGenreFolded:            {name: "genre-folded", valueType: TypeString, derivedKind: derivedFolded, derivedFrom: PropGenre},
	PropGenreSortKey:           {name: "genre-sort-key", valueType: TypeString, derivedKind: derivedSortKey, derivedFrom: PropGenre},
	PropArtistFolded:           {name: "artist-folded", valueType: TypeString, derivedKind: derivedFolded, derivedFrom: PropArtist},
	PropArtistSortKey:          {name: "artist-sort-key", valueType: TypeString, derivedKind: derivedSortKey, derivedFrom: PropArtist},
	PropAlbumFolded:            {name: "album-folded", valueType: TypeString, derivedKind: derivedFolded, derivedFrom: PropAlbum},
	PropAlbumSortKey:           {name: "album-sort-key", valueType: TypeString, derivedKind: derivedSortKey, derivedFrom: PropAlbum},
	PropTitleSortnameFolded:    {name: "title-sortname-folded", valueType: TypeString, derivedKind: derivedFolded, derivedFrom: PropTitleSortname},
	PropTitleSortnameSortKey:   {name: "title-sortname-sort-key", valueType: TypeString, derivedKind: derivedSortKey, derivedFrom: PropTitleSortname},
	PropArtistSortnameFolded:   {name: "artist-sortname-folded", valueType: TypeString, derivedKind: derivedFolded, derivedFrom: PropArtistSortname},
	PropArtistSortnameSortKey:  {name: "artist-sortname-sort-key", valueType: TypeString, derivedKind: derivedSortKey, derivedFrom: PropArtistSortname},
	PropAlbumSortnameFolded:    {name: "album-sortname-folded", valueType: TypeString, derivedKind: derivedFolded, derivedFrom: PropAlbumSortname},
	PropAlbumSortnameSortKey:   {name: "album-sortname-sort-key", valueType: TypeString, derivedKind: derivedSortKey, derivedFrom: PropAlbumSortname},
	PropGenreSortnameFolded:    {name: "genre-sortname-folded", valueType: TypeString, derivedKind: derivedFolded, derivedFrom: PropGenreSortname},
	PropGenreSortnameSortKey:   {name: "genre-sortname-sort-key", valueType: TypeString, derivedKind: derivedSortKey, derivedFrom: PropGenreSortname},
	PropMimeTypeFolded:         {name: "mime-type-folded", valueType: TypeString, derivedKind: derivedFolded, derivedFrom: PropMimeType},
	PropMimeTypeSortKey:        {name: "mime-type-sort-key", valueType: TypeString, derivedKind: derivedSortKey, derivedFrom: PropMimeType},
	PropMountpointFolded:       {name: "mountpoint-folded", valueType: TypeString, derivedKind: derivedFolded, derivedFrom: PropMountpoint},
	PropMountpointSortKey:      {name: "mountpoint-sort-key", valueType: TypeString, derivedKind: derivedSortKey, derivedFrom: PropMountpoint},
	PropPodcastSubtitleFolded:  {name: "podcast-subtitle-folded", valueType: TypeString, derivedKind: derivedFolded, derivedFrom: PropPodcastSubtitle},
	PropPodcastSubtitleSortKey: {name: "podcast-subtitle-sort-key", valueType: TypeString, derivedKind: derivedSortKey, derivedFrom: PropPodcastSubtitle},
	PropPodcastGUIDFolded:      {name: "podcast-guid-folded", valueType: TypeString, derivedKind: derivedFolded, derivedFrom: PropPodcastGUID},
	PropPodcastGUIDSortKey:     {name: "podcast-guid-sort-key", valueType: TypeString, derivedKind: derivedSortKey, derivedFrom: PropPodcastGUID},
	PropCommentFolded:          {name: "comment-folded", valueType: TypeString, derivedKind: derivedFolded, derivedFrom: PropComment},
	PropCommentSortKey:         {name: "comment-sort-key", valueType: TypeString, derivedKind: derivedSortKey, derivedFrom: PropComment},
	PropComposerFolded:         {name: "composer-folded", valueType: TypeString, derivedKind: derivedFolded, derivedFrom: PropComposer},
	PropComposerSortKey:        {name: "composer-sort-key", valueType: TypeString, derivedKind: derivedSortKey, derivedFrom: PropComposer},
	PropFileDescriptionFolded:  {name: "file-description-folded", valueType: TypeString, derivedKind: derivedFolded, derivedFrom: PropFileDescription},
	PropFileDescriptionSortKey: {name: "file-description-sort-key", valueType: TypeString, derivedKind: derivedSortKey, derivedFrom: PropFileDescription},
	PropLastPlayedFormatted:    {name: "last-played-formatted", valueType: TypeString, derivedKind: derivedFormatted, derivedFrom: PropLastPlayed},
}

// Name returns the property's persisted/query-language name.
func (p Property) Name() string { return propertyTable[p].name }

// ValueType returns the property's stored Go-level type.
func (p Property) ValueType() ValueType { return propertyTable[p].valueType }

// Persistable reports whether the property is written to the saved database
// file (false for synthetic properties like search-match and non-persistent
// streaming metadata).
func (p Property) Persistable() bool { return propertyTable[p].persistable }

// IsSortname reports whether p is a *_SORTNAME property, and if so, which
// display property it pairs with.
func (p Property) IsSortname() (Property, bool) {
	info := propertyTable[p]
	return info.sortnameFor, info.isSortname
}

// SortnameOf returns the *_SORTNAME property paired with display property p,
// and false if p has no sortname variant.
func (p Property) SortnameOf() (Property, bool) {
	for i := Property(0); i < propCount; i++ {
		if propertyTable[i].isSortname && propertyTable[i].sortnameFor == p {
			return i, true
		}
	}
	return 0, false
}

// FoldedSibling returns the Property holding p's auto-maintained case-folded
// form, and false if p has none.
func (p Property) FoldedSibling() (Property, bool) {
	return findDerived(p, derivedFolded)
}

// SortKeySibling returns the Property holding p's auto-maintained collation
// sort key, and false if p has none.
func (p Property) SortKeySibling() (Property, bool) {
	return findDerived(p, derivedSortKey)
}

// FormattedSibling returns the Property holding p's auto-maintained
// locale-formatted string form (timestamps only), and false if p has none.
func (p Property) FormattedSibling() (Property, bool) {
	return findDerived(p, derivedFormatted)
}

func findDerived(from Property, kind derivedKind) (Property, bool) {
	for i := Property(0); i < propCount; i++ {
		if propertyTable[i].derivedKind == kind && propertyTable[i].derivedFrom == from {
			return i, true
		}
	}
	return 0, false
}

// LookupByName returns the Property named name, used when parsing queries
// and persisted XML element names.
func LookupByName(name string) (Property, bool) {
	for i := Property(0); i < propCount; i++ {
		if propertyTable[i].name == name {
			return i, true
		}
	}
	return 0, false
}

// PropertiesInPersistOrder returns every persistable property in the fixed
// deterministic order entries are written to disk.
func PropertiesInPersistOrder() []Property {
	out := make([]Property, 0, propCount)
	for i := Property(0); i < propCount; i++ {
		if propertyTable[i].persistable {
			out = append(out, i)
		}
	}
	return out
}

// Value is a tagged union holding one property's value. Exactly one field is
// meaningful, selected by the owning Property's ValueType.
type Value struct {
	Str       *atom.Atom
	ULong     uint64
	Double    float64
	Bool      bool
	Timestamp int64 // unix seconds
	JulianDay int64
	Int64     int64
}
