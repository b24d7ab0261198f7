package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"

	"github.com/Adithya-Monish-Kumar-K/invindex/pkg/config"
)

// StageKind identifies one filter stage. The numeric order is the order in
// which enabled stages are applied.
type StageKind int

const (
	StageLowercase StageKind = iota
	StageAlphanumeric
	StageStopword
	StageLength
	StageSymbol
	StageStem
)

func (k StageKind) String() string {
	switch k {
	case StageLowercase:
		return "lowercase"
	case StageAlphanumeric:
		return "alphanumeric"
	case StageStopword:
		return "stopword"
	case StageLength:
		return "length"
	case StageSymbol:
		return "symbol"
	case StageStem:
		return "stem"
	default:
		return "unknown"
	}
}

// Stage is a filter stage descriptor. Transform stages map one token to
// one (possibly empty) token; predicate stages drop tokens.
type Stage struct {
	Kind      StageKind
	Min       int
	Max       int
	Stopwords map[string]struct{}
}

// Predicate reports whether the stage drops tokens instead of rewriting
// them.
func (s Stage) Predicate() bool {
	return s.Kind == StageStopword || s.Kind == StageLength
}

func (s Stage) apply(tok string) string {
	switch s.Kind {
	case StageLowercase:
		return strings.ToLower(tok)
	case StageAlphanumeric:
		return strings.Map(keepAlphanumeric, tok)
	case StageSymbol:
		return strings.Map(dropSymbol, tok)
	case StageStem:
		if tok == "" {
			return tok
		}
		return english.Stem(tok, false)
	default:
		return tok
	}
}

// accept never lets an empty token through.
func (s Stage) accept(tok string) bool {
	if tok == "" {
		return false
	}
	switch s.Kind {
	case StageStopword:
		_, stop := s.Stopwords[tok]
		return !stop
	case StageLength:
		n := utf8.RuneCountInString(tok)
		return n >= s.Min && n <= s.Max
	default:
		return true
	}
}

// StagesFromConfig returns the enabled stages in their fixed order:
// lowercase, alphanumeric, stopword, length, symbol, stem.
func StagesFromConfig(cfg config.AnalysisConfig) []Stage {
	var stages []Stage
	if cfg.Lowercase {
		stages = append(stages, Stage{Kind: StageLowercase})
	}
	if cfg.Alphanumeric {
		stages = append(stages, Stage{Kind: StageAlphanumeric})
	}
	if cfg.Stopword {
		words := cfg.Stopwords
		if len(words) == 0 {
			words = DefaultStopwords
		}
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		stages = append(stages, Stage{Kind: StageStopword, Stopwords: set})
	}
	if cfg.Length {
		stages = append(stages, Stage{Kind: StageLength, Min: cfg.MinLength, Max: cfg.MaxLength})
	}
	if cfg.Symbol {
		stages = append(stages, Stage{Kind: StageSymbol})
	}
	if cfg.Stem {
		stages = append(stages, Stage{Kind: StageStem})
	}
	return stages
}

func keepAlphanumeric(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return r
	}
	return -1
}

// dropSymbol removes punctuation and symbols, keeping '-' and '_' so that
// hyphenated words and identifiers survive.
func dropSymbol(r rune) rune {
	if r == '-' || r == '_' {
		return r
	}
	if unicode.IsPunct(r) || unicode.IsSymbol(r) {
		return -1
	}
	return r
}
