package exploits

import (
	"fmt"
	"strconv"
	"strings"
)

// LinkTemplate dipakai untuk menurunkan URL dari ID exploit
const LinkTemplate = "https://www.exploit-db.com/exploits/%s"

// Record is one catalog entry. All fields are plain strings; columns missing
// from the source are empty, never nil.
type Record struct {
	ID          string `json:"id"`
	Signatures  string `json:"signatures"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Platform    string `json:"platform"`
	Author      string `json:"author"`
	Date        string `json:"date"`
	Verified    string `json:"verified"`
	FilePath    string `json:"file_path"`
}

// Link derives the public URL of the record. It is never stored.
func (r Record) Link() string {
	return fmt.Sprintf(LinkTemplate, r.ID)
}

// ExploitID returns the last path segment of Link.
func (r Record) ExploitID() string {
	link := r.Link()
	if i := strings.LastIndex(link, "/"); i >= 0 {
		return link[i+1:]
	}
	return link
}

// HasSignatures reports whether the record carries at least one known identifier.
func (r Record) HasSignatures() bool {
	return strings.TrimSpace(r.Signatures) != ""
}

// DateKey returns the publication date with dashes removed as an integer.
// ok is false when the remaining text is not a plain base-10 number.
func (r Record) DateKey() (key int64, ok bool) {
	s := strings.TrimSpace(strings.ReplaceAll(r.Date, "-", ""))
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// searchText is the lower-cased haystack used by Search.
func (r Record) searchText() string {
	return strings.Join([]string{
		strings.ToLower(r.Signatures),
		strings.ToLower(r.Description),
		strings.ToLower(r.Type),
		strings.ToLower(r.Platform),
	}, " ")
}

// View is the JSON shape handed to presentation layers; it adds the derived link.
type View struct {
	Record
	Link string `json:"link"`
}

// NewView wraps a record together with its derived link.
func NewView(r Record) View {
	return View{Record: r, Link: r.Link()}
}
