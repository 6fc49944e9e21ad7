package insights

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/AntonioRamos11/RestaurantIA/internal/persistence"
)

// SummaryKeywords is the number of keywords a review summary carries.
const SummaryKeywords = 15

var wordPattern = regexp.MustCompile(`[A-Za-zÀ-ÿ']+`)

var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "to": {}, "of": {},
	"in": {}, "on": {}, "for": {}, "with": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"it": {}, "this": {}, "that": {}, "i": {}, "we": {}, "you": {}, "they": {}, "he": {},
	"she": {}, "at": {}, "as": {}, "by": {}, "from": {}, "be": {}, "been": {}, "have": {},
	"has": {}, "had": {}, "very": {}, "so": {}, "too": {}, "not": {}, "no": {}, "yes": {},
	"my": {}, "our": {}, "their": {}, "your": {},
}

// Keywords returns the topK most frequent words of text. Words are case folded,
// stopwords and words of two letters or fewer are dropped, and ties keep the
// order in which words first appear.
func Keywords(text string, topK int) []string {
	folded := cases.Fold().String(text)

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, token := range wordPattern.FindAllString(folded, -1) {
		if _, stop := stopwords[token]; stop || len([]rune(token)) <= 2 {
			continue
		}
		if counts[token] == 0 {
			order = append(order, token)
		}
		counts[token]++
	}

	// Insertion sort keeps equal counts in first-appearance order.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && counts[order[j]] > counts[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	return limit(order, topK)
}

// ReviewSummary aggregates a set of reviews.
type ReviewSummary struct {
	Count        int
	AvgRating    *float64
	AvgSentiment *float64
	TopKeywords  []string
}

// SummarizeReviews averages ratings and sentiment over the reviews that carry
// them and extracts keywords from all review text.
func SummarizeReviews(reviews []persistence.Review) ReviewSummary {
	summary := ReviewSummary{Count: len(reviews), TopKeywords: []string{}}
	if len(reviews) == 0 {
		return summary
	}

	var (
		ratingSum, sentimentSum float64
		ratings, sentiments     int
		texts                   = make([]string, 0, len(reviews))
	)
	for _, review := range reviews {
		if review.Rating != nil {
			ratingSum += float64(*review.Rating)
			ratings++
		}
		if review.Sentiment != nil {
			sentimentSum += *review.Sentiment
			sentiments++
		}
		texts = append(texts, review.Text)
	}

	if ratings > 0 {
		summary.AvgRating = roundedPtr(ratingSum/float64(ratings), 3)
	}
	if sentiments > 0 {
		summary.AvgSentiment = roundedPtr(sentimentSum/float64(sentiments), 4)
	}
	summary.TopKeywords = Keywords(strings.Join(texts, "\n"), SummaryKeywords)
	return summary
}
