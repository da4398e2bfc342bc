package session

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedFormat is the encoding of a seed file.
type SeedFormat string

const (
	SeedFormatJSON SeedFormat = "json"
	SeedFormatYAML SeedFormat = "yaml"
)

// SeedFormatForPath picks the format from a file extension, defaulting to JSON.
func SeedFormatForPath(path string) SeedFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return SeedFormatYAML
	default:
		return SeedFormatJSON
	}
}

type seedPerson struct {
	Name        string `json:"name" yaml:"name"`
	LinkedInURL string `json:"linkedin_url" yaml:"linkedin_url"`
}

type seedRecord struct {
	WebsiteIndex      *int64       `json:"website_index" yaml:"website_index"`
	Title             string       `json:"title" yaml:"title"`
	Date              string       `json:"date" yaml:"date"`
	Time              string       `json:"time" yaml:"time"`
	Venue             string       `json:"venue" yaml:"venue"`
	Room              string       `json:"room" yaml:"room"`
	Speakers          string       `json:"speakers" yaml:"speakers"`
	Description       string       `json:"description" yaml:"description"`
	KnowledgePartners string       `json:"knowledge_partners" yaml:"knowledge_partners"`
	WatchLiveLink     string       `json:"watch_live_link" yaml:"watch_live_link"`
	Transcript        *string      `json:"transcript" yaml:"transcript"`
	People            []seedPerson `json:"people" yaml:"people"`
}

// DecodeSeed reads an array of session objects. Missing transcripts become ""
// and missing people become an empty list. Every record must carry a unique
// website_index.
func DecodeSeed(r io.Reader, format SeedFormat) ([]Session, error) {
	var records []seedRecord
	switch format {
	case SeedFormatYAML:
		if err := yaml.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("decode yaml seed: %w", err)
		}
	case SeedFormatJSON:
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("decode json seed: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported seed format %q", format)
	}

	seen := make(map[int64]int, len(records))
	sessions := make([]Session, 0, len(records))
	for i, rec := range records {
		if rec.WebsiteIndex == nil {
			return nil, fmt.Errorf("seed record %d: website_index is required", i)
		}
		if prev, dup := seen[*rec.WebsiteIndex]; dup {
			return nil, fmt.Errorf("seed record %d: website_index %d already used by record %d", i, *rec.WebsiteIndex, prev)
		}
		seen[*rec.WebsiteIndex] = i

		people := make([]Person, 0, len(rec.People))
		for _, p := range rec.People {
			people = append(people, Person{Name: p.Name, LinkedInURL: p.LinkedInURL})
		}

		sessions = append(sessions, Normalize(Record{
			WebsiteIndex:      *rec.WebsiteIndex,
			Title:             rec.Title,
			Date:              rec.Date,
			Time:              rec.Time,
			Venue:             rec.Venue,
			Room:              rec.Room,
			Speakers:          rec.Speakers,
			Description:       rec.Description,
			KnowledgePartners: rec.KnowledgePartners,
			WatchLiveLink:     rec.WatchLiveLink,
			Transcript:        rec.Transcript,
			People:            people,
		}))
	}
	return sessions, nil
}
