// Package funnel holds the ordered screen configuration consumed by the
// tracking pipeline. The descriptors are opaque input to the core: nothing
// here validates copy or choice content, it only gives each screen an id,
// a type tag, and the answer options the UI renders.
package funnel

import (
	"encoding/json"
	"fmt"
	"os"
)

// Option is one selectable answer on a question or image-pick block.
type Option struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Points int    `json:"points,omitempty"`
}

// Block is one screen in the funnel sequence.
type Block struct {
	ID      int      `json:"id"`
	Type    string   `json:"type"`
	Title   string   `json:"title,omitempty"`
	Options []Option `json:"options,omitempty"`
}

// Config is the full funnel definition handed to the UI.
type Config struct {
	Blocks      []Block `json:"blocks"`
	TotalBlocks int     `json:"totalBlocks"`
	CheckoutURL string  `json:"checkoutUrl,omitempty"`
	// BeaconEndpoint, when set, is where the UI should point its
	// unload-safe transport instead of the standard track endpoints.
	BeaconEndpoint string `json:"beaconEndpoint,omitempty"`
}

// LoadFromFile reads a funnel definition from a JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read funnel config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse funnel config: %w", err)
	}
	if cfg.TotalBlocks == 0 {
		cfg.TotalBlocks = len(cfg.Blocks)
	}
	return &cfg, nil
}

// DefaultConfig returns the built-in 21-block sequence used when no funnel
// file is configured.
func DefaultConfig() *Config {
	blocks := []Block{
		{ID: 1, Type: "video", Title: "Welcome"},
		{ID: 2, Type: "question", Title: "What is your main goal?", Options: []Option{
			{ID: "a", Text: "More energy", Points: 100},
			{ID: "b", Text: "Better sleep", Points: 100},
			{ID: "c", Text: "Less stress", Points: 100},
		}},
		{ID: 3, Type: "question", Title: "How do you feel when you wake up?", Options: []Option{
			{ID: "a", Text: "Rested", Points: 150},
			{ID: "b", Text: "Tired", Points: 50},
			{ID: "c", Text: "Exhausted", Points: 25},
		}},
		{ID: 4, Type: "number", Title: "What is your age?"},
		{ID: 5, Type: "question", Title: "How many hours do you sleep?", Options: []Option{
			{ID: "a", Text: "Less than 6", Points: 25},
			{ID: "b", Text: "6 to 8", Points: 100},
			{ID: "c", Text: "More than 8", Points: 150},
		}},
		{ID: 6, Type: "image", Title: "Which routine looks most like yours?", Options: []Option{
			{ID: "a", Text: "Desk all day", Points: 50},
			{ID: "b", Text: "On my feet", Points: 100},
			{ID: "c", Text: "Always moving", Points: 150},
		}},
		{ID: 7, Type: "question", Title: "How often do you exercise?", Options: []Option{
			{ID: "a", Text: "Never", Points: 25},
			{ID: "b", Text: "Sometimes", Points: 75},
			{ID: "c", Text: "Regularly", Points: 150},
		}},
		{ID: 8, Type: "number", Title: "What is your weight?"},
		{ID: 9, Type: "question", Title: "How is your hydration?", Options: []Option{
			{ID: "a", Text: "Mostly coffee", Points: 25},
			{ID: "b", Text: "Some water", Points: 75},
			{ID: "c", Text: "Plenty of water", Points: 150},
		}},
		{ID: 10, Type: "question", Title: "How would you rate your stress?", Options: []Option{
			{ID: "a", Text: "Low", Points: 150},
			{ID: "b", Text: "Moderate", Points: 75},
			{ID: "c", Text: "High", Points: 25},
		}},
		{ID: 11, Type: "image", Title: "Pick the plate closest to your dinner", Options: []Option{
			{ID: "a", Text: "Fast food", Points: 25},
			{ID: "b", Text: "Home cooked", Points: 100},
			{ID: "c", Text: "Balanced plate", Points: 150},
		}},
		{ID: 12, Type: "question", Title: "Do you snack late at night?", Options: []Option{
			{ID: "a", Text: "Every night", Points: 25},
			{ID: "b", Text: "Sometimes", Points: 75},
			{ID: "c", Text: "Rarely", Points: 150},
		}},
		{ID: 13, Type: "question", Title: "How is your focus during the day?", Options: []Option{
			{ID: "a", Text: "Sharp", Points: 150},
			{ID: "b", Text: "Up and down", Points: 75},
			{ID: "c", Text: "Foggy", Points: 25},
		}},
		{ID: 14, Type: "question", Title: "Have you tried routines before?", Options: []Option{
			{ID: "a", Text: "Many times", Points: 75},
			{ID: "b", Text: "Once or twice", Points: 100},
			{ID: "c", Text: "Never", Points: 100},
		}},
		{ID: 15, Type: "question", Title: "How committed are you right now?", Options: []Option{
			{ID: "a", Text: "All in", Points: 200},
			{ID: "b", Text: "Curious", Points: 100},
			{ID: "c", Text: "Just looking", Points: 50},
		}},
		{ID: 16, Type: "analysis", Title: "Building your vitality profile"},
		{ID: 17, Type: "result", Title: "Your vitality score"},
		{ID: 18, Type: "testimonial", Title: "What others achieved"},
		{ID: 19, Type: "roulette", Title: "Spin for your discount"},
		{ID: 20, Type: "video", Title: "Your personalized plan"},
		{ID: 21, Type: "offer", Title: "Start your plan"},
	}
	return &Config{
		Blocks:      blocks,
		TotalBlocks: len(blocks),
	}
}
