package ziparchive

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/beadwork/bead/internal/meta"
)

// MetaVersion identifies the metadata document format written by this tool.
// Readers reject documents with an unknown version.
const MetaVersion = "2"

// beadMeta is the JSON document stored at meta/bead. Inputs are kept ordered
// by name so the serialization is deterministic.
type beadMeta struct {
	MetaVersion string           `json:"meta_version"`
	Kind        string           `json:"kind"`
	ContentID   string           `json:"content_id"`
	FreezeTime  string           `json:"freeze_time"`
	Inputs      []meta.InputSpec `json:"inputs"`
}

func encodeBeadMeta(m beadMeta) ([]byte, error) {
	sort.Slice(m.Inputs, func(i, j int) bool { return m.Inputs[i].Name < m.Inputs[j].Name })
	return json.MarshalIndent(m, "", "    ")
}

func decodeBeadMeta(data []byte) (beadMeta, error) {
	var m beadMeta
	if err := json.Unmarshal(data, &m); err != nil {
		return beadMeta{}, err
	}
	if m.MetaVersion != MetaVersion {
		return beadMeta{}, fmt.Errorf("unsupported meta version %q", m.MetaVersion)
	}
	if m.Kind == "" || m.ContentID == "" || m.FreezeTime == "" {
		return beadMeta{}, fmt.Errorf("incomplete bead metadata")
	}
	return m, nil
}
