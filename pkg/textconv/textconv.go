// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

// Package textconv converts generated text between Chinese scripts.
package textconv

import (
	"fmt"
	"strings"
	"sync"

	"github.com/longbridgeapp/opencc"
)

// Converter rewrites text into another script.
type Converter interface {
	Convert(text string) (string, error)
}

// OpenCC converts using an OpenCC profile such as "s2t" (simplified to
// traditional) or "s2tw" (simplified to Taiwan standard).
type OpenCC struct {
	profile string

	once sync.Once
	cc   *opencc.OpenCC
	err  error
}

// NewOpenCC returns a converter for profile. Dictionaries are loaded on the
// first Convert call.
func NewOpenCC(profile string) *OpenCC {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = "s2t"
	}
	return &OpenCC{profile: profile}
}

func (c *OpenCC) Profile() string {
	return c.profile
}

func (c *OpenCC) Convert(text string) (string, error) {
	c.once.Do(func() {
		c.cc, c.err = opencc.New(c.profile)
	})
	if c.err != nil {
		return text, fmt.Errorf("load opencc profile %s: %w", c.profile, c.err)
	}
	if text == "" {
		return text, nil
	}
	out, err := c.cc.Convert(text)
	if err != nil {
		return text, fmt.Errorf("opencc convert: %w", err)
	}
	return out, nil
}

// Nop returns text unchanged.
type Nop struct{}

func (Nop) Convert(text string) (string, error) {
	return text, nil
}
