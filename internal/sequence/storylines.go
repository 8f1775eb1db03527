package sequence

import (
	"sort"

	"slidereel/internal/cards"
)

// Storyline identifiers.
const (
	StorylinePersonality = "personality"
	StorylinePlotTwist   = "plot_twist"
	StorylineCompetition = "competition"
	StorylineBattle      = "battle"
)

const defaultEquation = "e^(iπ) + 1 = 0"

// segment is one slot of a storyline template. Exactly one of frame and
// perItem is set.
type segment struct {
	name     string
	duration float64
	frame    func(s *Sequencer, c Content) (cards.Kind, cards.Params)
	perItem  func(s *Sequencer, c Content, item Item) (cards.Kind, cards.Params)
}

type storyline struct {
	id       string
	segments []segment
}

func textFrame(style cards.TextStyle, lines ...string) func(*Sequencer, Content) (cards.Kind, cards.Params) {
	return func(*Sequencer, Content) (cards.Kind, cards.Params) {
		return cards.KindText, cards.Params{Style: style, Lines: lines}
	}
}

var storylines = map[string]storyline{
	StorylinePersonality: {
		id: StorylinePersonality,
		segments: []segment{
			{name: "hook", duration: 2, frame: textFrame(cards.StyleDramatic,
				"I asked 4 AIs to visualize", "the SAME math equation...", "", "Their personalities?")},
			{name: "reveal", duration: 2, perItem: func(s *Sequencer, _ Content, item Item) (cards.Kind, cards.Params) {
				return cards.KindReveal, cards.Params{Entity: s.entity(item)}
			}},
			{name: "comparison", duration: 4, frame: func(s *Sequencer, c Content) (cards.Kind, cards.Params) {
				return cards.KindSplit, cards.Params{Title: "Same equation. Different vibes.", Entities: s.entities(c.Items)}
			}},
			{name: "cta", duration: 3, frame: textFrame(cards.StyleCTA,
				"Which AI matches", "YOUR coding style?", "", "Comment below!", "#AIPersonality #CodingStyle")},
		},
	},
	StorylinePlotTwist: {
		id: StorylinePlotTwist,
		segments: []segment{
			{name: "equation", duration: 3, frame: func(_ *Sequencer, c Content) (cards.Kind, cards.Params) {
				eq := c.Equation
				if eq == "" {
					eq = defaultEquation
				}
				return cards.KindEquation, cards.Params{Caption: "Every AI gave me this:", Equation: eq}
			}},
			{name: "twist", duration: 2, frame: textFrame(cards.StyleSuspense,
				"But when I asked them", "to VISUALIZE it...")},
			{name: "reveal", duration: 2, perItem: func(s *Sequencer, _ Content, item Item) (cards.Kind, cards.Params) {
				e := s.entity(item)
				if e.Reaction == "" {
					e.Reaction = s.reactions[normalizeName(item.Name)]
				}
				return cards.KindDramaticReveal, cards.Params{Entity: e}
			}},
			{name: "mind_blown", duration: 3, frame: textFrame(cards.StyleDramatic,
				"Same math.", "Same prompt.", "TOTALLY different results.", "", "Why?")},
		},
	},
	StorylineCompetition: {
		id: StorylineCompetition,
		segments: []segment{
			{name: "hook", duration: 2, frame: textFrame(cards.StyleDramatic,
				"Math teachers HATE", "this one trick...", "", "AI Visualization Battle!")},
			{name: "scoring", duration: 2.5, perItem: func(s *Sequencer, _ Content, item Item) (cards.Kind, cards.Params) {
				e := s.entity(item)
				scores := item.Scores
				if len(scores) == 0 {
					scores = s.scores[normalizeName(item.Name)]
				}
				for _, category := range orderedCategories(scores) {
					e.Scores = append(e.Scores, cards.Score{Category: category, Value: scores[category]})
				}
				return cards.KindScoring, cards.Params{Entity: e}
			}},
			{name: "winner", duration: 3, frame: func(*Sequencer, Content) (cards.Kind, cards.Params) {
				return cards.KindWinner, cards.Params{}
			}},
			{name: "cta", duration: 2, frame: textFrame(cards.StyleCTA,
				"Try it yourself!", "Link in bio", "", "#AIBattle #MathViz")},
		},
	},
	StorylineBattle: {
		id: StorylineBattle,
		segments: []segment{
			{name: "intro", duration: 2, frame: func(_ *Sequencer, c Content) (cards.Kind, cards.Params) {
				lines := []string{"AI BUILD BATTLE", ""}
				if c.Title != "" {
					lines = append(lines, "Challenge: "+c.Title, "")
				}
				lines = append(lines, "Same prompt.", "Different vibes.")
				return cards.KindText, cards.Params{Style: cards.StyleBanner, Lines: lines}
			}},
			{name: "reveal", duration: 2.5, perItem: func(s *Sequencer, _ Content, item Item) (cards.Kind, cards.Params) {
				return cards.KindScreenshot, cards.Params{Entity: s.entity(item)}
			}},
			{name: "grid", duration: 4, frame: func(s *Sequencer, c Content) (cards.Kind, cards.Params) {
				return cards.KindGrid, cards.Params{Entities: s.entities(c.Items)}
			}},
			{name: "outro", duration: 2, frame: textFrame(cards.StyleBanner,
				"FOLLOW FOR MORE", "AI BATTLES", "", "Drop your favorite", "in the comments!")},
		},
	},
}

// Storylines returns the known storyline identifiers in sorted order.
func Storylines() []string {
	ids := make([]string, 0, len(storylines))
	for id := range storylines {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
