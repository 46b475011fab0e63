package session

// SuggestionType selects what the editor suggests while typing.
type SuggestionType int

// Suggestion types.
const (
	SuggestNone SuggestionType = iota
	SuggestHistory
	SuggestCompleter
	SuggestTailTip
)

func (t SuggestionType) String() string {
	switch t {
	case SuggestHistory:
		return "HISTORY"
	case SuggestCompleter:
		return "COMPLETER"
	case SuggestTailTip:
		return "TAIL_TIP"
	}
	return "NONE"
}

// TipType selects what the tail-tip widget shows.
type TipType int

// Tip types.
const (
	// TipTailTip hints the remaining argument names after the cursor.
	TipTailTip TipType = iota
	// TipCompleter suggests the common prefix of the completions instead.
	TipCompleter
	// TipCombined does both.
	TipCombined
)

func (t TipType) String() string {
	switch t {
	case TipCompleter:
		return "COMPLETER"
	case TipCombined:
		return "COMBINED"
	}
	return "TAIL_TIP"
}

// State is the widget configuration of a session. Transitions return a new
// value; the loop owns the current one.
type State struct {
	Autopair   bool
	Suggestion SuggestionType
	TipType    TipType

	// Trigger is the line that causes one masked read; empty disables it.
	Trigger string
	Mask    rune

	Prompt      string
	RightPrompt string
}

// NewState returns the initial widget configuration: no autopair, no
// suggestions and the completer tip type for when tail tips are enabled.
func NewState(prompt string) State {
	return State{Suggestion: SuggestNone, TipType: TipCompleter, Prompt: prompt}
}

// ToggleAutopair flips bracket and quote pairing.
func (s State) ToggleAutopair() State {
	s.Autopair = !s.Autopair
	return s
}

// WithSuggestion selects a suggestion type.
func (s State) WithSuggestion(t SuggestionType) State {
	s.Suggestion = t
	return s
}

// WithTailTip enables tail tips of the given type.
func (s State) WithTailTip(t TipType) State {
	s.Suggestion = SuggestTailTip
	s.TipType = t
	return s
}

// WithTrigger arms masked re-entry.
func (s State) WithTrigger(trigger string, mask rune) State {
	s.Trigger = trigger
	s.Mask = mask
	return s
}

// Descriptions reports whether the description rows under the prompt are
// shown.
func (s State) Descriptions() bool {
	return s.Suggestion == SuggestTailTip
}

// ArgumentHints reports whether the names of the arguments still to type
// are shown after the cursor.
func (s State) ArgumentHints() bool {
	return s.Suggestion == SuggestTailTip && s.TipType != TipCompleter
}

// CompleterHints reports whether the common completion prefix is
// suggested inline.
func (s State) CompleterHints() bool {
	return s.Suggestion == SuggestCompleter || (s.Suggestion == SuggestTailTip && s.TipType != TipTailTip)
}

// Describe renders the state the way the autosuggestion command reports it.
func (s State) Describe() string {
	if s.Suggestion == SuggestTailTip {
		return "tailtip/" + s.TipType.String()
	}
	return s.Suggestion.String()
}
