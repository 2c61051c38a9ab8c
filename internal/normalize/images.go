package normalize

import (
	"github.com/tiperlive/reconciler/internal/extract"
)

var (
	posterKeys = []string{"image_url", "posterimage"}
	jacketKeys = []string{"jacket_url", "jacketimage"}

	// size priority, each with the spellings seen upstream
	imageSizes = [][]string{
		{"large"},
		{"medium", "midium"},
		{"small"},
	}
)

// PrimaryImageCandidates lists main image URLs, poster before jacket within each size
func PrimaryImageCandidates(item any) []string {
	return imageCandidates(item, posterKeys, jacketKeys)
}

// OGImageCandidates lists OGP image URLs, jacket before poster within each size
func OGImageCandidates(item any) []string {
	return imageCandidates(item, jacketKeys, posterKeys)
}

func imageCandidates(item any, first, second []string) []string {
	a := imageFamily(item, first)
	b := imageFamily(item, second)

	var out []string
	for _, size := range imageSizes {
		if u := firstString(a, size); u != nil {
			out = append(out, *u)
		}
		if u := firstString(b, size); u != nil {
			out = append(out, *u)
		}
	}
	if u := extract.CleanString(extract.Get(item, "thumbnail", 0, "image")); u != nil {
		out = append(out, *u)
	}
	return out
}

// imageFamily returns the size map of the first family key present, taking index 0 of arrays
func imageFamily(item any, keys []string) any {
	for _, key := range keys {
		switch v := extract.Get(item, key).(type) {
		case []any:
			if len(v) > 0 {
				return v[0]
			}
		case map[string]any:
			return v
		}
	}
	return nil
}

func firstString(node any, keys []string) *string {
	for _, key := range keys {
		if s := extract.CleanString(extract.Get(node, key)); s != nil {
			return s
		}
	}
	return nil
}

// SelectFirst returns the first non-empty candidate, or nil
func SelectFirst(candidates []string) *string {
	for _, c := range dedupe(candidates) {
		if s := extract.CleanString(c); s != nil {
			return s
		}
	}
	return nil
}

// SampleMovie returns the sample movie and capture URLs of an item
func SampleMovie(item any) (movie *string, capture *string) {
	movie = extract.CleanString(extract.Get(item, "sample_movie_url"))
	capture = extract.CleanString(extract.Get(item, "sample_movie_capture_url"))
	if movie == nil {
		movie = extract.CleanString(extract.Get(item, "samplemovie", 0, "midium", "movie"))
	}
	if capture == nil {
		capture = extract.CleanString(extract.Get(item, "samplemovie", 0, "midium", "capture"))
	}
	return movie, capture
}
