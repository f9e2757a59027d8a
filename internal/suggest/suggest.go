// Package suggest turns extracted post text into a short, ordered list of
// engagement suggestions using a fixed set of textual checks.
package suggest

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"
)

// Type identifies which check produced a suggestion.
type Type string

const (
	TypeHashtag     Type = "hashtag"
	TypeReadability Type = "readability"
	TypeCTA         Type = "cta"
	TypeLength      Type = "length"
	TypeEngagement  Type = "engagement"
	TypeHook        Type = "hook"
	TypeVisual      Type = "visual"
)

// Types lists every suggestion type in rule evaluation order.
var Types = []Type{
	TypeHashtag,
	TypeReadability,
	TypeCTA,
	TypeLength,
	TypeEngagement,
	TypeVisual,
	TypeHook,
}

// MaxSuggestions caps the number of suggestions returned by Generate.
const MaxSuggestions = 6

const (
	targetHashtags      = 3
	maxAvgSentenceWords = 20
	minWords            = 50
	maxWords            = 300
	minWordsForVisual   = 20
	maxHookLength       = 100
)

type Suggestion struct {
	Type        Type   `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Features are the textual signals the rules are evaluated against.
type Features struct {
	WordCount         int
	HasHashtags       bool
	HashtagCount      int
	HasQuestion       bool
	HasEmoji          bool
	HasCTA            bool
	Sentences         []string
	AvgSentenceLength float64
}

var (
	// ASCII whitespace plus Unicode separators and BOM, the same set as JavaScript's \s.
	reWhitespace  = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
	reHashtag     = regexp.MustCompile(`#\w+`)
	reEmoji       = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}]`)
	reCTA         = regexp.MustCompile(`(?i)(click|visit|check out|learn more|sign up|download|buy|shop|get|try)`)
	reSentenceEnd = regexp.MustCompile(`[.!?]+`)
)

// Analyze extracts the features used by Generate.
func Analyze(text string) Features {
	f := Features{
		WordCount:   CountWords(text),
		HasQuestion: strings.Contains(text, "?"),
		HasEmoji:    reEmoji.MatchString(text),
		HasCTA:      reCTA.MatchString(text),
	}

	hashtags := reHashtag.FindAllString(text, -1)
	f.HashtagCount = len(hashtags)
	f.HasHashtags = f.HashtagCount > 0

	for _, s := range reSentenceEnd.Split(text, -1) {
		if !isBlank(s) {
			f.Sentences = append(f.Sentences, s)
		}
	}
	if len(f.Sentences) > 0 {
		f.AvgSentenceLength = float64(f.WordCount) / float64(len(f.Sentences))
	}

	return f
}

// CountWords returns the number of whitespace-delimited tokens in text.
// Empty and whitespace-only text has zero words.
func CountWords(text string) int {
	n := 0
	for _, tok := range reWhitespace.Split(text, -1) {
		if tok != "" {
			n++
		}
	}
	return n
}

// Generate evaluates every rule against text and returns at most
// MaxSuggestions suggestions in rule order.
func Generate(text string) []Suggestion {
	f := Analyze(text)
	suggestions := make([]Suggestion, 0, len(Types))

	if !f.HasHashtags {
		suggestions = append(suggestions, Suggestion{
			Type:        TypeHashtag,
			Title:       "Add Relevant Hashtags",
			Description: "Include 3-5 relevant hashtags to increase discoverability and reach a wider audience.",
		})
	} else if f.HashtagCount < targetHashtags {
		suggestions = append(suggestions, Suggestion{
			Type:  TypeHashtag,
			Title: "Add More Hashtags",
			Description: fmt.Sprintf("You have %d hashtag(s). Consider adding %d more for better reach.",
				f.HashtagCount, targetHashtags-f.HashtagCount),
		})
	}

	if f.AvgSentenceLength > maxAvgSentenceWords {
		suggestions = append(suggestions, Suggestion{
			Type:        TypeReadability,
			Title:       "Improve Readability",
			Description: "Your sentences are quite long. Break them into shorter, punchier sentences for better engagement.",
		})
	}

	if !f.HasCTA {
		suggestions = append(suggestions, Suggestion{
			Type:        TypeCTA,
			Title:       "Add a Call-to-Action",
			Description: `Include a clear call-to-action (e.g., "Click the link", "Share your thoughts", "Tag a friend") to drive engagement.`,
		})
	}

	if f.WordCount < minWords {
		suggestions = append(suggestions, Suggestion{
			Type:        TypeLength,
			Title:       "Expand Your Content",
			Description: "Your post is quite short. Add more context, examples, or storytelling to make it more engaging.",
		})
	} else if f.WordCount > maxWords {
		suggestions = append(suggestions, Suggestion{
			Type:        TypeLength,
			Title:       "Consider Breaking It Up",
			Description: "Long posts can lose attention. Consider creating a thread or breaking it into multiple posts.",
		})
	}

	if !f.HasQuestion {
		suggestions = append(suggestions, Suggestion{
			Type:        TypeEngagement,
			Title:       "Ask a Question",
			Description: "End with a question to encourage comments and start conversations with your audience.",
		})
	}

	if !f.HasEmoji && f.WordCount > minWordsForVisual {
		suggestions = append(suggestions, Suggestion{
			Type:        TypeVisual,
			Title:       "Add Visual Elements",
			Description: "Consider adding emojis to make your post more visually appealing and expressive.",
		})
	}

	if textLength(f.firstSentence()) > maxHookLength {
		suggestions = append(suggestions, Suggestion{
			Type:        TypeHook,
			Title:       "Strengthen Your Hook",
			Description: "Your opening is long. Start with a short, compelling hook to grab attention immediately.",
		})
	}

	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions
}

// isBlank reports whether s holds only characters matched by reWhitespace.
func isBlank(s string) bool {
	return reWhitespace.ReplaceAllString(s, "") == ""
}

// textLength measures s in UTF-16 code units, so characters outside the
// Basic Multilingual Plane, such as most emoji, count as two.
func textLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func (f Features) firstSentence() string {
	if len(f.Sentences) == 0 {
		return ""
	}
	return f.Sentences[0]
}
