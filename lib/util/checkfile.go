package util

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Check if a file exists and is readable etc
// returns false if not
func CheckFileExists(fpath string) bool {
	_, e := os.Stat(fpath)
	return e == nil
}

// CheckRegularFileExists reports whether fpath exists and is a regular file,
// not a directory.
func CheckRegularFileExists(fpath string) bool {
	info, err := os.Stat(fpath)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// CheckDirExists reports whether dpath exists and is a directory.
func CheckDirExists(dpath string) bool {
	info, err := os.Stat(dpath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// CheckDirWritable probes write access to a directory by creating and removing
// a uniquely named file inside it. Stat alone cannot answer this portably
// (ACLs, read-only mounts), so an actual write is attempted.
func CheckDirWritable(dpath string) error {
	probe := filepath.Join(dpath, ".castwave-write-"+uuid.NewString())
	f, err := os.OpenFile(probe, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(probe)
}
