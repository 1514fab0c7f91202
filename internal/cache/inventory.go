package cache

import "fmt"

// Cache names used as metric labels.
const (
	NamePost    = "post"
	NameProfile = "profile"
)

const (
	postKeyFormat    = "post:%d"
	profileKeyFormat = "profile:%d"
)

// PostKey is the cache key of a post detail view.
func PostKey(postID uint) string {
	return fmt.Sprintf(postKeyFormat, postID)
}

// ProfileKey is the cache key of a profile, by profile ID.
func ProfileKey(profileID uint) string {
	return fmt.Sprintf(profileKeyFormat, profileID)
}
