package snapshot

import (
	"os"
	"syscall"
)

// Record captures the comparable stat attributes of one filesystem entry.
// A Record is an immutable value; it is written once during collection and
// never updated afterwards.
type Record struct {
	Path   string `json:"path"`
	IsDir  bool   `json:"is_dir"`
	IsFile bool   `json:"is_file"`
	Mode   uint32 `json:"mode"`
	UID    int    `json:"uid"`
	GID    int    `json:"gid"`
	Size   int64  `json:"size"`
	MTime  int64  `json:"mtime"`
}

// NewRecord builds a Record from a stat result. The two kind flags come from
// the traversal, not from the mode bits, so entries that are neither a regular
// file nor a directory (sockets, symlinks) carry both flags false.
func NewRecord(path string, info os.FileInfo, isDir, isFile bool) Record {
	rec := Record{
		Path:   path,
		IsDir:  isDir,
		IsFile: isFile,
		Mode:   uint32(info.Mode()),
		Size:   info.Size(),
		MTime:  info.ModTime().Unix(),
	}

	// Raw ownership and mode bits are only available through the platform stat
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		rec.Mode = uint32(stat.Mode)
		rec.UID = int(stat.Uid)
		rec.GID = int(stat.Gid)
	}

	return rec
}

// AsMap converts the record to a plain key-value mapping for external serialization.
func (r Record) AsMap() map[string]any {
	return map[string]any{
		"path":    r.Path,
		"is_dir":  r.IsDir,
		"is_file": r.IsFile,
		"mode":    r.Mode,
		"uid":     r.UID,
		"gid":     r.GID,
		"size":    r.Size,
		"mtime":   r.MTime,
	}
}
