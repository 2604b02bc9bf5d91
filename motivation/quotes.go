// Package motivation serves the quote pool shown on the home screen.
// Quotes rotate deterministically by day of year so every device shows
// the same set on the same date without any stored state.
package motivation

import (
	"math/rand"

	"github.com/cleanslate/tracker/ledger"
)

type Quote struct {
	Text   string
	Author string
	Source string
}

// Pool is the shipped quote set.
var Pool = []Quote{
	{Text: "Discomfort is the price of admission to a meaningful life.", Author: "Susan David", Source: "Emotional Agility"},
	{Text: "We are what we repeatedly do. Excellence, then, is not an act but a habit.", Author: "Will Durant", Source: "The Story of Philosophy"},
	{Text: "You do not rise to the level of your goals. You fall to the level of your systems.", Author: "James Clear", Source: "Atomic Habits"},
	{Text: "Discipline is choosing what you want most over what you want now.", Author: "Abraham Lincoln"},
	{Text: "It does not matter how slowly you go as long as you do not stop.", Author: "Confucius"},
	{Text: "Success is the sum of small efforts, repeated day in and day out.", Author: "Robert Collier"},
	{Text: "Motivation gets you going, but discipline keeps you growing.", Author: "John C. Maxwell"},
	{Text: "Suffer the pain of discipline or the pain of regret.", Author: "Jim Rohn"},
	{Text: "Tiny gains, remarkable results.", Author: "James Clear", Source: "Atomic Habits"},
	{Text: "The only way out is through.", Author: "Robert Frost"},
	{Text: "Action is the antidote to anxiety.", Author: "Naval Ravikant"},
	{Text: "Fall in love with the process and the results will come.", Author: "Eric Thomas"},
	{Text: "Hard choices, easy life. Easy choices, hard life.", Author: "Jerzy Gregorek"},
	{Text: "First we form habits, then they form us.", Author: "John Dryden"},
	{Text: "The secret of your future is hidden in your daily routine.", Author: "Mike Murdock"},
	{Text: "Discipline equals freedom.", Author: "Jocko Willink"},
	{Text: "Mood follows action.", Author: "Rich Roll", Source: "Podcast"},
	{Text: "What you practice grows stronger.", Author: "Shauna Shapiro"},
	{Text: "Cravings are waves - learn to surf them.", Author: "Adapted from Urge Surfing"},
	{Text: "Start where you are. Use what you have. Do what you can.", Author: "Arthur Ashe"},
}

// ForDay returns up to n quotes for the given date. The window starts at
// (day of year mod pool size) and wraps, so the selection shifts daily
// and repeats annually.
func ForDay(day ledger.Day, n int) []Quote {
	if len(Pool) == 0 || n <= 0 {
		return nil
	}
	if n > len(Pool) {
		n = len(Pool)
	}
	start := day.Time.YearDay() % len(Pool)
	out := make([]Quote, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Pool[(start+i)%len(Pool)])
	}
	return out
}

// Random returns one quote at random.
func Random() Quote {
	return Pool[rand.Intn(len(Pool))]
}
