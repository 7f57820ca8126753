package view

import (
	"time"

	"example.com/timestats/internal/stats"
)

// RevealStep is the stagger between consecutive card reveals.
const RevealStep = 100 * time.Millisecond

// RenderedView is the complete output of one render.
type RenderedView struct {
	Timeframe stats.Timeframe                `json:"timeframe"`
	Loading   bool                           `json:"loading"`
	Cards     []CardData                     `json:"cards"`
	Issues    []*stats.MissingTimeframeError `json:"-"`
}

// Render projects snapshot under tf. It has no hidden state; card order follows the snapshot.
func Render(snapshot stats.Snapshot, tf stats.Timeframe) RenderedView {
	out := RenderedView{Timeframe: tf, Cards: []CardData{}}
	if len(snapshot) == 0 {
		out.Loading = true
		return out
	}
	for _, rec := range snapshot {
		card := DeriveCard(rec, tf)
		if card.Missing {
			out.Issues = append(out.Issues, &stats.MissingTimeframeError{Title: rec.Title, Timeframe: tf})
		}
		out.Cards = append(out.Cards, card)
	}
	return out
}

// RenderState renders a view state.
func RenderState(state stats.ViewState) RenderedView {
	return Render(state.Snapshot, state.Timeframe)
}

// RevealDelay is the cosmetic appearance offset of the card at index.
func RevealDelay(index int) time.Duration {
	if index < 0 {
		return 0
	}
	return time.Duration(index) * RevealStep
}
