// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

// Package persona loads the role-play configuration that shapes the system
// prompt sent with every reply.
package persona

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zhaopengme/topicbot/pkg/logger"
)

const (
	defaultLanguage      = "繁體中文"
	characterInstruction = "請完全以下列角色的身分與口吻回覆，不要跳脫角色。"
	phraseDelimiter      = "、"
)

type CharacterProfile struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Background  string `json:"background" yaml:"background"`
	Appearance  string `json:"appearance" yaml:"appearance"`
}

func (p CharacterProfile) IsZero() bool {
	return p == CharacterProfile{}
}

type Scenario struct {
	Meeting   string `json:"meeting" yaml:"meeting"`
	Challenge string `json:"challenge" yaml:"challenge"`
}

func (s Scenario) IsZero() bool {
	return s == Scenario{}
}

// Config accepts both the short {language, tone} document and the richer
// role-play document; fields of both may appear together.
type Config struct {
	Language         string           `json:"language" yaml:"language"`
	Tone             string           `json:"tone" yaml:"tone"`
	Instructions     string           `json:"instructions" yaml:"instructions"`
	CharacterProfile CharacterProfile `json:"character_profile" yaml:"character_profile"`
	Scenario         Scenario         `json:"scenario" yaml:"scenario"`
	ReferencePhrases []string         `json:"reference_phrases" yaml:"reference_phrases"`
}

// Load reads the persona document at path. A missing or malformed file
// yields the zero Config; the problem is logged, never returned.
func Load(path string) Config {
	if strings.TrimSpace(path) == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.WarnCF("persona", "Failed to read persona file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
		return Config{}
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		logger.WarnCF("persona", "Malformed persona file, using defaults", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return Config{}
	}
	return cfg
}

// Parse decodes a persona document. ext selects YAML for ".yaml"/".yml",
// JSON otherwise.
func Parse(data []byte, ext string) (Config, error) {
	var cfg Config
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// FileSource loads the persona from disk on every call so edits apply to
// the next message without a restart.
type FileSource struct {
	Path string
}

func (s FileSource) Load() Config {
	return Load(s.Path)
}

// SystemPrompt renders the sections in fixed order: language and tone,
// instructions, character instruction, profile, scenario, reference phrases.
func (c Config) SystemPrompt() string {
	var sections []string

	language := strings.TrimSpace(c.Language)
	if language == "" {
		language = defaultLanguage
	}
	line := "請使用" + language + "回答。"
	if tone := strings.TrimSpace(c.Tone); tone != "" {
		line += "語氣請保持" + tone + "。"
	}
	sections = append(sections, line)

	if s := strings.TrimSpace(c.Instructions); s != "" {
		sections = append(sections, s)
	}

	if !c.CharacterProfile.IsZero() {
		sections = append(sections, characterInstruction)

		var b strings.Builder
		b.WriteString("【角色設定】")
		writeField(&b, "名字", c.CharacterProfile.Name)
		writeField(&b, "描述", c.CharacterProfile.Description)
		writeField(&b, "背景", c.CharacterProfile.Background)
		writeField(&b, "外貌", c.CharacterProfile.Appearance)
		sections = append(sections, b.String())
	}

	if !c.Scenario.IsZero() {
		var b strings.Builder
		b.WriteString("【情境】")
		writeField(&b, "相遇", c.Scenario.Meeting)
		writeField(&b, "挑戰", c.Scenario.Challenge)
		sections = append(sections, b.String())
	}

	phrases := make([]string, 0, len(c.ReferencePhrases))
	for _, p := range c.ReferencePhrases {
		if p = strings.TrimSpace(p); p != "" {
			phrases = append(phrases, p)
		}
	}
	if len(phrases) > 0 {
		sections = append(sections, "【參考語句】"+strings.Join(phrases, phraseDelimiter))
	}

	return strings.Join(sections, "\n\n")
}

func writeField(b *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	b.WriteString("\n")
	b.WriteString(label)
	b.WriteString("：")
	b.WriteString(value)
}
