package storage

import (
	"Next_Express/utils"
	"path"
	"strings"
)

const (
	FilesPrefix           = "files/"
	ProfilePicturesPrefix = "profile-pictures/"
)

// FileKey returns a fresh key for an uploaded file: files/<uuid>-<name>.
func FileKey(name string) string {
	return FilesPrefix + utils.NewObjectID() + "-" + utils.SanitizeObjectName(name)
}

// ProfilePictureKey returns a fresh key for a profile picture: profile-pictures/<uuid>.<ext>.
func ProfilePictureKey(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(utils.SanitizeObjectName(filename)), "."))
	if ext == "" {
		ext = "bin"
	}
	return ProfilePicturesPrefix + utils.NewObjectID() + "." + ext
}

// IsPublicKey reports whether the key lives in the publicly readable namespace.
func IsPublicKey(key string) bool {
	return strings.HasPrefix(key, ProfilePicturesPrefix) && !strings.Contains(key, "..")
}
