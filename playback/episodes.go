package playback

import (
	"sort"

	"streamfusion/catalog"
)

// EpisodeRef addresses one episode of a series.
type EpisodeRef struct {
	Season  int `json:"season"`
	Episode int `json:"episode"`
}

// Neighbors finds the episodes before and after season/episode in airing
// order. Navigation crosses season boundaries. Either result is nil at the
// ends of the series or when the episode does not exist.
func Neighbors(item catalog.Item, season, episode int) (prev, next *EpisodeRef) {
	order := episodeOrder(item)
	for i, ref := range order {
		if ref.Season != season || ref.Episode != episode {
			continue
		}
		if i > 0 {
			p := order[i-1]
			prev = &p
		}
		if i+1 < len(order) {
			n := order[i+1]
			next = &n
		}
		return prev, next
	}
	return nil, nil
}

func episodeOrder(item catalog.Item) []EpisodeRef {
	var out []EpisodeRef
	for sn, s := range item.Seasons {
		for en := range s.Episodes {
			out = append(out, EpisodeRef{Season: sn, Episode: en})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].Episode < out[j].Episode
	})
	return out
}
