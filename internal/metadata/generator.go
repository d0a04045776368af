// Package metadata generates YouTube-ready titles, descriptions, and tag lists
// for type beat videos. Generation is a pure string transformation with no
// state or I/O.
package metadata

import (
	"fmt"
	"strings"
)

// maxTags caps the tag list; YouTube rejects uploads whose combined tag
// length is too large, and 50 tags keeps well under that limit.
const maxTags = 50

// descriptionTagCount is how many tags are inlined into the description body.
const descriptionTagCount = 20

// VideoMetadata holds the generated publishing fields for one video.
type VideoMetadata struct {
	// Title is the full video title, e.g. `[FREE] Drake Type Beat - "Midnight"`.
	Title string
	// Description is the complete multi-line description body.
	Description string
	// Tags is the deduplicated tag list, at most maxTags entries.
	Tags []string
}

// Generate builds publishing metadata for a beat.
// artistType is the style label (e.g. "Drake"), beatName the beat title.
// purchaseLink may be empty; producerName defaults should be applied by the
// caller (the HTTP layer substitutes "Producer" when the field is omitted).
func Generate(artistType, beatName, purchaseLink, producerName string) VideoMetadata {
	title := fmt.Sprintf("[FREE] %s Type Beat - %q", artistType, beatName)
	tags := generateTags(artistType, producerName)
	description := generateDescription(artistType, beatName, purchaseLink, tags)

	return VideoMetadata{
		Title:       title,
		Description: description,
		Tags:        tags,
	}
}

// generateTags builds the discoverability tag list for an artist style.
// Duplicates are removed while preserving first-seen order.
func generateTags(artistType, producerName string) []string {
	artist := strings.ToLower(artistType)
	producer := strings.ToLower(producerName)

	tags := []string{
		producer,
		artist + " type beat",
		"free " + artist + " type beat",
		artist + " type beat 2025",
		"free " + artist + " type beat 2025",
		"type beat",
		"free type beat",
		"type beat 2025",
		"free type beat 2025",
		"beat",
		"beats",
		"type beats",
		"free type beats",
		"instrumental",
		"free instrumental",
		"rap beat",
		"hip hop beat",
		"trap beat",
		"free beat",
		"beats to rap to",
		"rap instrumental",
	}

	// Spaced artist names also get a run-together variant.
	if strings.Contains(artistType, " ") {
		nospace := strings.ToLower(strings.ReplaceAll(artistType, " ", ""))
		tags = append(tags,
			nospace+" type beat",
			"free "+nospace+" type beat",
		)
	}

	seen := make(map[string]bool, len(tags))
	unique := make([]string, 0, len(tags))
	for _, tag := range tags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		unique = append(unique, tag)
	}

	if len(unique) > maxTags {
		unique = unique[:maxTags]
	}
	return unique
}

// generateDescription builds the full description body, including the
// purchase link section, tag line, and hashtags.
func generateDescription(artistType, beatName, purchaseLink string, tags []string) string {
	inlined := tags
	if len(inlined) > descriptionTagCount {
		inlined = inlined[:descriptionTagCount]
	}
	tagsText := strings.Join(inlined, ",")

	artistHashtag := strings.ToLower(artistType)
	artistHashtag = strings.ReplaceAll(artistHashtag, " ", "")
	artistHashtag = strings.ReplaceAll(artistHashtag, "-", "")
	hashtags := fmt.Sprintf("#%stypebeat #typebeat #freetypebeat #beats #instrumental", artistHashtag)

	purchaseSection := "Purchase This Beat (Untagged) | [Add your beat store link]\n\n"
	if purchaseLink != "" {
		purchaseSection = fmt.Sprintf("Purchase This Beat (Untagged) | %s\n\n", purchaseLink)
	}

	return fmt.Sprintf(`%sConnect with me:
Email | [Add your email]
Instagram | [Add your Instagram]
Beat Store | [Add your beat store]
YouTube | [Add your YouTube channel]

[FREE] %s Type Beat - %q

This is a FREE type beat inspired by %s's style. Perfect for artists looking for high-quality instrumentals to create their next hit!

FREE FOR NON-PROFIT USE
Purchase a license for commercial use
Download link in bio

Tags: %s

%s

#music #hiphop #rap #producer #beatmaker #typebeats #freebeats`,
		purchaseSection, artistType, beatName, artistType, tagsText, hashtags)
}
