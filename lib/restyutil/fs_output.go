package restyutil

import (
	"log/slog"
	"os"
	"path/filepath"
)

// FilesystemOutput stores diagnostic payloads as files in one directory.
type FilesystemOutput struct {
	directory string
}

func NewFilesystemOutput(dir string) FilesystemOutput {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		panic(err)
	}
	return FilesystemOutput{directory: dir}
}

// Write stores contents under id and returns the path of the written file,
// or "" if the write failed. An existing file under the same id is
// replaced.
func (o FilesystemOutput) Write(id string, contents string) string {
	path := filepath.Join(o.directory, id)
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write diagnostic file", "id", id, "err", err)
		return ""
	}
	return path
}
