package meta

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Bead is the metadata view of a frozen computation: what it is called, which
// lineage it belongs to (Kind), the digest of its exact content, when it was
// frozen, and which other beads it consumed. Values are immutable once
// constructed; treat the Inputs slice as read-only.
type Bead struct {
	Name          string
	Kind          string
	ContentID     string
	FreezeTimeStr string
	FreezeTime    time.Time
	Inputs        []InputSpec
	BoxName       string
}

// Ref is the identity key for beads inside the provenance web. Two beads with
// the same Ref are the same node.
type Ref struct {
	Name      string
	ContentID string
}

// Ref returns the bead's identity key.
func (b Bead) Ref() Ref {
	return Ref{Name: b.Name, ContentID: b.ContentID}
}

// InputSpec is a reference carried inside a bead's metadata to another bead
// that was used as input. Name is the local alias the consuming bead used;
// Kind and ContentID identify the referenced bead.
type InputSpec struct {
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	ContentID     string `json:"content_id"`
	FreezeTimeStr string `json:"freeze_time"`
}

// FreezeTime parses the input's freeze time string.
func (s InputSpec) FreezeTime() (time.Time, error) {
	return ParseTimestamp(s.FreezeTimeStr)
}

// Trailing freeze-time suffix of archive filenames: an 8-digit date,
// optionally followed by T/t and the rest of the timestamp.
var nameSuffixRe = regexp.MustCompile(`_[0-9]{8}(?:[tT][-+0-9]*)?$`)

// BeadNameFromPath parses the bead name out of an archive file path.
// "analysis_20230102T030405060708+0000.zip" yields "analysis".
// Used before the archive metadata is loaded.
func BeadNameFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return nameSuffixRe.ReplaceAllString(base, "")
}
