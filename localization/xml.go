package localization

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// The game's string tables are <root><language id><entry id>text</...>.
// Reading and writing use separate shapes: chardata accepts both plain and
// CDATA text on the way in, while the writer always emits CDATA the way the
// stock files do.

type xmlRootIn struct {
	XMLName   xml.Name `xml:"root"`
	Languages []struct {
		ID      string `xml:"id,attr"`
		Entries []struct {
			ID   string `xml:"id,attr"`
			Text string `xml:",chardata"`
		} `xml:"entry"`
	} `xml:"language"`
}

type xmlEntryOut struct {
	ID   string `xml:"id,attr"`
	Text string `xml:",cdata"`
}

type xmlLanguageOut struct {
	ID      string        `xml:"id,attr"`
	Entries []xmlEntryOut `xml:"entry"`
}

type xmlRootOut struct {
	XMLName   xml.Name         `xml:"root"`
	Languages []xmlLanguageOut `xml:"language"`
}

// Parse reads one string table from XML.
func Parse(id string, r io.Reader) (*Table, error) {
	var root xmlRootIn
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, fmt.Errorf("parsing string table %s: %w", id, err)
	}
	table := New(id)
	for _, language := range root.Languages {
		for _, entry := range language.Entries {
			table.Set(language.ID, entry.ID, strings.TrimSpace(entry.Text))
		}
	}
	return table, nil
}

// Load reads one string table file. The table id is the file's base name.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	return Parse(base, f)
}

// Deploy writes the table back out, languages and entries in sorted order so
// repeated runs produce identical files.
func (t *Table) Deploy(path string) error {
	var root xmlRootOut
	languages := make([]string, 0, len(t.Languages))
	for language := range t.Languages {
		languages = append(languages, language)
	}
	sort.Strings(languages)
	for _, language := range languages {
		entries := t.Languages[language]
		ids := make([]string, 0, len(entries))
		for id := range entries {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out := xmlLanguageOut{ID: language, Entries: make([]xmlEntryOut, 0, len(ids))}
		for _, id := range ids {
			out.Entries = append(out.Entries, xmlEntryOut{ID: id, Text: entries[id]})
		}
		root.Languages = append(root.Languages, out)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := io.WriteString(f, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(f)
	enc.Indent("", "\t")
	if err := enc.Encode(root); err != nil {
		return fmt.Errorf("writing string table %s: %w", t.ID, err)
	}
	_, err = io.WriteString(f, "\n")
	return err
}
