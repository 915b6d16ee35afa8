package c64conv

import (
	"database/sql"
	"fmt"

	"github.com/bodgit/c64conv/bitmap"
	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

var (
	encoder, _ = zstd.NewWriter(nil)
	decoder, _ = zstd.NewReader(nil)
)

// Key identifies a conversion of some source image with some options.
type Key struct {
	Hash    string
	Options string
}

// NewKey returns the key for converting the image data b with opt.
func NewKey(b []byte, opt Options) Key {
	return Key{
		Hash:    fmt.Sprintf("%016X", xxhash.Sum64(b)),
		Options: opt.String(),
	}
}

// Entry is a stored conversion. Image is only populated by Lookup.
type Entry struct {
	Path    string
	Hash    string
	Options string
	Width   int
	Height  int
	Image   *bitmap.Image
}

// Catalog records converted bitmaps so repeat conversions of the same image
// can be skipped.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens or creates the catalog in file.
func OpenCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS source (id INTEGER PRIMARY KEY NOT NULL, hash TEXT NOT NULL UNIQUE, path TEXT NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS conversion (id INTEGER PRIMARY KEY NOT NULL, source_id INTEGER NOT NULL, options TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, multicolor INTEGER NOT NULL, background INTEGER NOT NULL, bitmap BLOB NOT NULL, color BLOB NOT NULL, d800 BLOB, UNIQUE(source_id, options), FOREIGN KEY(source_id) REFERENCES source(id))"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the catalog.
func (db *Catalog) Close() error {
	return db.db.Close()
}

func (db *Catalog) addSource(hash, path string) (int64, error) {
	if _, err := db.db.Exec("INSERT OR IGNORE INTO source (hash, path) VALUES (?, ?)", hash, path); err != nil {
		return 0, err
	}

	var id int64
	if err := db.db.QueryRow("SELECT id FROM source WHERE hash = ?", hash).Scan(&id); err != nil {
		return 0, err
	}

	return id, nil
}

// Store records m as the conversion for key. width and height are the size of
// the converted area before it was placed on the screen.
func (db *Catalog) Store(key Key, path string, width, height int, m *bitmap.Image) error {
	source, err := db.addSource(key.Hash, path)
	if err != nil {
		return err
	}

	var d800 []byte
	if m.Multicolor {
		d800 = encoder.EncodeAll(m.D800, nil)
	}

	if _, err := db.db.Exec("INSERT OR REPLACE INTO conversion (source_id, options, width, height, multicolor, background, bitmap, color, d800) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", source, key.Options, width, height, m.Multicolor, m.Background, encoder.EncodeAll(m.Bitmap, nil), encoder.EncodeAll(m.ColorRAM, nil), d800); err != nil {
		return err
	}

	return nil
}

// Lookup returns the conversion stored for key, or nil if there isn't one.
func (db *Catalog) Lookup(key Key) (*Entry, error) {
	e := Entry{
		Hash:    key.Hash,
		Options: key.Options,
		Image:   new(bitmap.Image),
	}

	var bm, color, d800 []byte
	switch err := db.db.QueryRow("SELECT s.path, c.width, c.height, c.multicolor, c.background, c.bitmap, c.color, c.d800 FROM conversion AS c JOIN source AS s ON c.source_id = s.id WHERE s.hash = ? AND c.options = ?", key.Hash, key.Options).Scan(&e.Path, &e.Width, &e.Height, &e.Image.Multicolor, &e.Image.Background, &bm, &color, &d800); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
	default:
		return nil, err
	}

	var err error
	if e.Image.Bitmap, err = decoder.DecodeAll(bm, nil); err != nil {
		return nil, err
	}
	if e.Image.ColorRAM, err = decoder.DecodeAll(color, nil); err != nil {
		return nil, err
	}
	if e.Image.Multicolor {
		if e.Image.D800, err = decoder.DecodeAll(d800, nil); err != nil {
			return nil, err
		}
	}

	return &e, nil
}

// Entries returns every stored conversion without the bitmap data.
func (db *Catalog) Entries() ([]Entry, error) {
	rows, err := db.db.Query("SELECT s.path, s.hash, c.options, c.width, c.height FROM conversion AS c JOIN source AS s ON c.source_id = s.id ORDER BY s.path, c.options")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.Hash, &e.Options, &e.Width, &e.Height); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
