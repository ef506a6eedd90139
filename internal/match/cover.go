package match

import (
	"strings"

	"github.com/circleapp/photomatch/internal/media"
)

// SelectCover picks the hero photo for an album cover. Preference order:
// first image with tagged people, then first image whose caption mentions
// "family", then the first image at all. Returns nil when the pool holds
// no images. The pool's order is the caller's (typically newest-dated
// first), so "first" is deterministic for a fixed snapshot.
func SelectCover(photos []media.Candidate) *media.Candidate {
	images := imageCandidates(photos)
	if len(images) == 0 {
		return nil
	}

	for i := range images {
		if len(images[i].People) > 0 {
			return &images[i]
		}
	}

	for i := range images {
		if strings.Contains(strings.ToLower(images[i].Caption), "family") {
			return &images[i]
		}
	}

	return &images[0]
}
