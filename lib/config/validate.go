package config

import (
	"github.com/castwave/castwave/lib/util"
	"github.com/castwave/castwave/lib/util/logger"
)

// pathChecker abstracts the filesystem probes used by the replacement rules
// so tests can exercise denial branches without permission games.
type pathChecker interface {
	DirExists(path string) bool
	FileExists(path string) bool
	DirWritable(path string) error
}

// osPathChecker probes the real filesystem through lib/util.
type osPathChecker struct{}

func (osPathChecker) DirExists(path string) bool    { return util.CheckDirExists(path) }
func (osPathChecker) FileExists(path string) bool   { return util.CheckRegularFileExists(path) }
func (osPathChecker) DirWritable(path string) error { return util.CheckDirWritable(path) }

// replacementRule checks one aspect of a candidate against the current
// configuration before any state changes.
type replacementRule func(candidate, current *ServerConfiguration, fs pathChecker) error

// replacementRules is the fixed evaluation order: metadata path first,
// certificate path second. The first failure aborts the replacement.
var replacementRules = []replacementRule{
	validateMetadataPath,
	validateCertificatePath,
}

// validateReplacement runs the replacement rules in order and returns the
// first rejection, or nil when the candidate is acceptable.
func validateReplacement(candidate, current *ServerConfiguration, fs pathChecker) error {
	for _, rule := range replacementRules {
		if err := rule(candidate, current, fs); err != nil {
			return err
		}
	}
	return nil
}

// validateMetadataPath requires a changed, non-empty metadata path to be an
// existing writable directory. Empty or unchanged values (ordinal string
// comparison) skip the rule entirely, with no filesystem access.
func validateMetadataPath(candidate, current *ServerConfiguration, fs pathChecker) error {
	next := candidate.MetadataPath
	if isBlank(next) || next == current.MetadataPath {
		return nil
	}

	log.WithFields(logger.Fields{
		"at":   "validateMetadataPath",
		"path": next,
	}).Debug("checking candidate metadata path")

	if !fs.DirExists(next) {
		return newPathError("MetadataPath", next, ErrPathNotFound)
	}
	if err := fs.DirWritable(next); err != nil {
		log.WithError(err).WithField("path", next).Warn("metadata path write probe failed")
		return newPathError("MetadataPath", next, ErrAccessDenied)
	}
	return nil
}

// validateCertificatePath requires a changed, non-empty certificate path to
// be an existing regular file. Empty or unchanged values skip the rule.
func validateCertificatePath(candidate, current *ServerConfiguration, fs pathChecker) error {
	next := candidate.CertificatePath
	if isBlank(next) || next == current.CertificatePath {
		return nil
	}

	log.WithFields(logger.Fields{
		"at":   "validateCertificatePath",
		"path": next,
	}).Debug("checking candidate certificate path")

	if !fs.FileExists(next) {
		return newPathError("CertificatePath", next, ErrFileNotFound)
	}
	return nil
}
