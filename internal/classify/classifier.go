// Package classify implements the fixed-rule heuristic ad classifier. A
// Classifier is a pure function of the item's text fields: no state, no
// network, same verdict for the same input on every call.
package classify

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mpopa/adscout/internal/ads"
)

// Field weights for keyword hits.
const (
	titleWeight       = 3
	descriptionWeight = 2
	channelWeight     = 1
)

// CategoryOther is the fallback category when no keyword set intersects.
const CategoryOther = "other"

// Classifier scores items against a weighted keyword taxonomy.
type Classifier struct {
	taxonomy   Taxonomy
	threshold  int
	normalizer float64
}

// New builds a Classifier for the given policy. Observed deployments use
// threshold 3 with normalizer 10 or threshold 4 with normalizer 15; both are
// supported, neither is hard-coded.
func New(taxonomy Taxonomy, threshold int, normalizer float64) *Classifier {
	return &Classifier{taxonomy: taxonomy, threshold: threshold, normalizer: normalizer}
}

// Default builds a Classifier with the default taxonomy, threshold 3 and
// normalizer 10.
func Default() *Classifier {
	return New(DefaultTaxonomy(), 3, 10)
}

// Classify scores the item and returns the verdict with full keyword
// provenance.
func (c *Classifier) Classify(item ads.ContentItem) ads.Classification {
	title := newDocument(item.Title)
	description := newDocument(item.Description)
	channel := newDocument(item.ChannelTitle)

	score := 0
	var matched []string

	for _, group := range c.taxonomy.AdKeywords {
		for _, kw := range group.Keywords {
			if title.contains(kw) {
				score += titleWeight
				matched = append(matched, "title:"+kw)
			}
			if description.contains(kw) {
				score += descriptionWeight
				matched = append(matched, "desc:"+kw)
			}
		}
	}
	for _, indicator := range c.taxonomy.BrandIndicators {
		if channel.contains(indicator) {
			score += channelWeight
			matched = append(matched, "channel:"+indicator)
		}
	}

	confidence := float64(score) / c.normalizer
	if confidence > 1 {
		confidence = 1
	}

	return ads.Classification{
		VideoID:    item.VideoID,
		IsAd:       score >= c.threshold,
		Confidence: confidence,
		Score:      score,
		Category:   c.category(title, description),
		Matched:    matched,
	}
}

// category is an independent second pass over title+description: the first
// category, in taxonomy order, whose keyword set intersects the text.
func (c *Classifier) category(title, description document) string {
	for _, cat := range c.taxonomy.Categories {
		for _, kw := range cat.Keywords {
			if title.contains(kw) || description.contains(kw) {
				return cat.Name
			}
		}
	}
	return CategoryOther
}

// document is a lower-cased text prepared for keyword lookup: short plain
// tokens match on word boundaries, anything with spaces or punctuation
// matches as a substring. Plain substring matching would let "ad" hit
// "road trip".
type document struct {
	text  string
	words map[string]struct{}
}

func newDocument(s string) document {
	text := strings.ToLower(s)
	words := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(text, isWordBoundary) {
		words[w] = struct{}{}
	}
	return document{text: text, words: words}
}

func isWordBoundary(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r)
}

func (d document) contains(keyword string) bool {
	if isPlainToken(keyword) {
		_, ok := d.words[keyword]
		return ok
	}
	return strings.Contains(d.text, keyword)
}

func isPlainToken(kw string) bool {
	for _, r := range kw {
		if isWordBoundary(r) {
			return false
		}
	}
	return true
}

// Describe summarizes the policy for startup logging.
func (c *Classifier) Describe() string {
	return fmt.Sprintf("threshold=%d normalizer=%.0f categories=%d",
		c.threshold, c.normalizer, len(c.taxonomy.Categories))
}
