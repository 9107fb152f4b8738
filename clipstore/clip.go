/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package clipstore

import (
	"errors"
	"time"
)

// Vote values.
const (
	VoteUp   = 1
	VoteDown = -1
)

// Difficulty rating bounds.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// ErrClipNotFound is returned when the requested clip does not exist in the catalog.
var ErrClipNotFound = errors.New("clip not found")

// SpeakerInfo describes the speaker of a clip.
type SpeakerInfo struct {
	Gender         string `json:"gender,omitempty"`
	AgeRange       string `json:"ageRange,omitempty"`
	NativeLanguage string `json:"nativeLanguage,omitempty"`
}

// Clip is an audio recording with linguistic metadata used for chorusing practice.
type Clip struct {
	ID         string      `json:"id"`
	Language   string      `json:"language"`
	Dialect    string      `json:"dialect,omitempty"`
	Speaker    SpeakerInfo `json:"speaker"`
	Transcript string      `json:"transcript"`
	AudioFile  string      `json:"audioFile"`
	CreatedBy  string      `json:"createdBy"`
	CreatedAt  time.Time   `json:"createdAt"`

	// Votes maps a voter's subject to VoteUp or VoteDown. Re-voting replaces the previous vote.
	Votes map[string]int `json:"votes,omitempty"`

	// Ratings maps a rater's subject to a difficulty rating in [MinDifficulty, MaxDifficulty].
	Ratings map[string]int `json:"ratings,omitempty"`
}

// Score returns the sum of all votes.
func (c *Clip) Score() int {
	score := 0
	for _, v := range c.Votes {
		score += v
	}
	return score
}

// Difficulty returns the average difficulty rating and the number of ratings.
func (c *Clip) Difficulty() (avg float64, count int) {
	if len(c.Ratings) == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range c.Ratings {
		sum += r
	}
	return float64(sum) / float64(len(c.Ratings)), len(c.Ratings)
}

type catalog struct {
	Clips map[string]*Clip `json:"clips"`
}

func newCatalog() *catalog {
	return &catalog{Clips: make(map[string]*Clip)}
}
