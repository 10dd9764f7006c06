// Package media holds the pure media helpers shared by the publish and
// preview paths: the priority-based type resolver and the URL validator.
package media

import "postgate/internal/entity"

// ResolveType maps the set of present media fields to the implied post type
// using a fixed priority: media[] > document > audio > video > cover. The
// highest-priority field wins; lower-priority fields are not an error, they
// are returned as suppressed so the caller can surface warnings. media[]
// suppresses everything silently. With no media at all the type is a plain
// post.
//
// Both publish and preview resolve through this function, so a preview is
// guaranteed to report what a publish would actually send.
func ResolveType(req *entity.PostRequest) (entity.PostType, []string) {
	if len(req.Media) > 0 {
		return entity.TypeAlbum, nil
	}

	type slot struct {
		name    string
		present bool
		implied entity.PostType
	}
	slots := []slot{
		{"document", req.Document != nil, entity.TypeDocument},
		{"audio", req.Audio != nil, entity.TypeAudio},
		{"video", req.Video != nil, entity.TypeVideo},
		{"cover", req.Cover != nil, entity.TypeImage},
	}

	for i, winner := range slots {
		if !winner.present {
			continue
		}
		var suppressed []string
		for _, loser := range slots[i+1:] {
			if loser.present {
				suppressed = append(suppressed, loser.name)
			}
		}
		return winner.implied, suppressed
	}

	return entity.TypePost, nil
}
