package validator

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TextArtifacts flags common scraping artifacts in a document body.
type TextArtifacts struct {
	ExcessiveWhitespace bool `json:"excessive_whitespace"`
	HTMLTags            bool `json:"html_tags"`
	EncodingErrors      bool `json:"encoding_errors"`
	Truncated           bool `json:"truncated"`
	BoilerplateHeavy    bool `json:"boilerplate_heavy"`
}

// Count returns how many artifacts are flagged.
func (a TextArtifacts) Count() int {
	n := 0
	for _, flagged := range []bool{a.ExcessiveWhitespace, a.HTMLTags, a.EncodingErrors, a.Truncated, a.BoilerplateHeavy} {
		if flagged {
			n++
		}
	}
	return n
}

// TextQuality summarizes how usable a document body is.
type TextQuality struct {
	// Quality is "empty" for blank text and "ok" otherwise
	Quality           string        `json:"quality"`
	WordCount         int           `json:"word_count"`
	SentenceCount     int           `json:"sentence_count"`
	AvgSentenceLength float64       `json:"avg_sentence_length"`
	Artifacts         TextArtifacts `json:"artifacts"`
	ArtifactCount     int           `json:"artifact_count"`
	Score             float64       `json:"quality_score"`
}

var (
	sentenceSplit   = regexp.MustCompile(`[.!?]+`)
	wideWhitespace  = regexp.MustCompile(`\s{10,}`)
	htmlTag         = regexp.MustCompile(`<[a-zA-Z][^>]*>`)
	encodingGarbage = regexp.MustCompile(`[ï¿½â€™â€œ]`)

	boilerplatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)all rights reserved`),
		regexp.MustCompile(`(?i)disclaimer`),
		regexp.MustCompile(`(?i)terms of use`),
		regexp.MustCompile(`(?i)copyright \d{4}`),
		regexp.MustCompile(`(?i)click here`),
		regexp.MustCompile(`(?i)page \d+ of \d+`),
		regexp.MustCompile(`(?i)login required`),
	}
)

// CheckTextQuality scores a document body for length and scraping artifacts.
func CheckTextQuality(text string) TextQuality {
	if text == "" {
		return TextQuality{Quality: "empty", Score: 0.0}
	}

	words := strings.Fields(text)
	sentences := 0
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}

	artifacts := TextArtifacts{
		ExcessiveWhitespace: wideWhitespace.MatchString(text),
		HTMLTags:            htmlTag.MatchString(text),
		EncodingErrors:      encodingGarbage.MatchString(text),
		Truncated:           strings.HasSuffix(strings.TrimRightFunc(text, unicode.IsSpace), "...") || len(words) < 50,
		BoilerplateHeavy:    boilerplateRatio(text) > 0.3,
	}

	score := 1.0
	switch {
	case len(words) < 50:
		score -= 0.4
	case len(words) < 200:
		score -= 0.1
	}
	score -= float64(artifacts.Count()) * 0.15
	score = math.Max(score, 0.0)

	q := TextQuality{
		Quality:       "ok",
		WordCount:     len(words),
		SentenceCount: sentences,
		Artifacts:     artifacts,
		ArtifactCount: artifacts.Count(),
		Score:         Round(score, 3),
	}
	if sentences > 0 {
		q.AvgSentenceLength = Round(float64(len(words))/float64(sentences), 1)
	}
	return q
}

// boilerplateRatio estimates the fraction of text that is legal boilerplate.
func boilerplateRatio(text string) float64 {
	if text == "" {
		return 0.0
	}
	chars := 0
	for _, re := range boilerplatePatterns {
		for _, m := range re.FindAllString(text, -1) {
			chars += utf8.RuneCountInString(m)
		}
	}
	return float64(chars) / float64(utf8.RuneCountInString(text))
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
