package ziparchive

// Logical layout inside a bead archive. The tree partitions into meta/,
// code/ and data/; everything else is rejected by validation.
const (
	MetaDir = "meta"
	CodeDir = "code"
	DataDir = "data"

	BeadMetaPath = MetaDir + "/bead"
	ManifestPath = MetaDir + "/manifest"
)

// ArchiveComment is embedded as the zip file comment of every bead archive.
// It identifies the file for humans poking at it with standard zip tools.
const ArchiveComment = `
This file is a BEAD zip archive.

It is a normal zip file that stores a discrete computation of the form

    output = code(*inputs)

The archive contains

- inputs as part of metadata file: references (content_id) to other BEADs
- code   as files
- output as files
- extra metadata to support
  - linking different versions of the same computation
  - determining the newest version
  - reproducing multi-BEAD computation sequences built by a distributed team

----

`
