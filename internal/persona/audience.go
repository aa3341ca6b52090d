// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package persona

import "strings"

// Audience is a preset listener an explanation can be tailored to.
type Audience struct {
	Emoji string `json:"emoji" yaml:"emoji"`
	Name  string `json:"name" yaml:"name"`
}

// Label returns the picker label, e.g. "🤖 Skeptical robot".
func (a Audience) Label() string { return a.Emoji + " " + a.Name }

// JustMe is the preset meaning "no particular audience".
const JustMe = "Just me"

var audiences = []Audience{
	{Emoji: "👤", Name: JustMe},
	{Emoji: "👵", Name: "Confused grandmother"},
	{Emoji: "🤖", Name: "Skeptical robot"},
	{Emoji: "👽", Name: "Alien visitor"},
	{Emoji: "🧟", Name: "Zombie"},
	{Emoji: "👔", Name: "Stressed CEO"},
}

// Audiences returns the preset audiences in picker order.
func Audiences() []Audience {
	return append([]Audience(nil), audiences...)
}

// AudienceChoices returns the preset picker labels in order.
func AudienceChoices() []string {
	out := make([]string, 0, len(audiences))
	for _, a := range audiences {
		out = append(out, a.Label())
	}
	return out
}

// NormalizeAudience turns a picker label or free text into the audience
// passed to generation. A preset's emoji prefix is dropped and "Just me"
// becomes empty. Free text is kept as typed, minus surrounding space.
func NormalizeAudience(s string) string {
	s = strings.TrimSpace(s)
	if head, rest, found := strings.Cut(s, " "); found {
		for _, a := range audiences {
			if head == a.Emoji {
				s = strings.TrimSpace(rest)
				break
			}
		}
	}
	if strings.EqualFold(s, JustMe) {
		return ""
	}
	return s
}
