package domain

import (
	"encoding/json"
	"strings"
	"unicode"
)

const (
	// Top-level string fields (room id, keys, slide ids) are clamped to this.
	MaxStringLen = 50
	// controls.selectedSp is clamped harder.
	MaxSelectedSpLen = 25
	// Inbound element/drawing sequences are truncated here before merge;
	// the merge layer applies the tighter MaxStateSeqLen on top.
	MaxInboundSeqLen = 1000
	// Stored/broadcast element/drawing sequences never exceed this.
	MaxStateSeqLen = 200
)

// CleanString strips control characters and clamps to max runes.
func CleanString(s string, max int) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max])
	}
	return s
}

// CleanControls clamps the selectedSp pointer string in place.
func CleanControls(controls map[string]any) map[string]any {
	if controls == nil {
		return nil
	}
	if sp, ok := controls["selectedSp"].(string); ok {
		controls["selectedSp"] = CleanString(sp, MaxSelectedSpLen)
	}
	return controls
}

// CleanSeq truncates a raw JSON sequence to at most max entries.
func CleanSeq(seq []json.RawMessage, max int) []json.RawMessage {
	if len(seq) > max {
		return seq[:max]
	}
	return seq
}

// CleanState bounds every field of an inbound slide state.
func CleanState(state SlideState) SlideState {
	state.Controls = CleanControls(state.Controls)
	state.Elements = CleanSeq(state.Elements, MaxInboundSeqLen)
	state.Drawings = CleanSeq(state.Drawings, MaxInboundSeqLen)
	return state
}

// CleanSlides bounds an inbound slide list: ids clamped, sequences truncated
// to the stored cap. The list itself is capped at MaxInboundSeqLen entries.
func CleanSlides(slides []Slide) []Slide {
	if len(slides) > MaxInboundSeqLen {
		slides = slides[:MaxInboundSeqLen]
	}
	for i := range slides {
		slides[i].ID = CleanString(slides[i].ID, MaxStringLen)
		slides[i].State.Controls = CleanControls(slides[i].State.Controls)
		slides[i].State.Elements = CleanSeq(slides[i].State.Elements, MaxStateSeqLen)
		slides[i].State.Drawings = CleanSeq(slides[i].State.Drawings, MaxStateSeqLen)
	}
	return slides
}
