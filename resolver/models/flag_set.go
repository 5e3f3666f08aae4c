package models

// FlagSet is an ordered list of compiler command-line arguments.
type FlagSet []string

// Clone returns a copy that shares no backing array with fs.
func (fs FlagSet) Clone() FlagSet {
	if fs == nil {
		return nil
	}
	out := make(FlagSet, len(fs))
	copy(out, fs)
	return out
}

// SourceKind tells which compilation context a source file belongs to
type SourceKind string

const (
	KindApplication  SourceKind = "application"
	KindKernelModule SourceKind = "kernel-module"
)

// Resolution is the answer handed to the editor tooling for one file.
type Resolution struct {
	Flags     FlagSet    `json:"flags"`
	Cacheable bool       `json:"do_cache"`
	Kind      SourceKind `json:"kind"`
}
