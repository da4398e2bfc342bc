package session

// Record is a stored session as read from a backend, before normalization.
// Optional fields are pointers or nil slices because older rows and documents
// may lack them.
type Record struct {
	ID                ID
	WebsiteIndex      int64
	Title             string
	Date              string
	Time              string
	Venue             string
	Room              string
	Speakers          string
	Description       string
	KnowledgePartners string
	WatchLiveLink     string
	Transcript        *string
	People            []Person
}

// Normalize maps a backend record onto the canonical Session shape: transcript
// is never nil and people is never a nil slice.
func Normalize(r Record) Session {
	transcript := ""
	if r.Transcript != nil {
		transcript = *r.Transcript
	}

	people := make([]Person, len(r.People))
	copy(people, r.People)

	return Session{
		ID:                r.ID,
		WebsiteIndex:      r.WebsiteIndex,
		Title:             r.Title,
		Date:              r.Date,
		Time:              r.Time,
		Venue:             r.Venue,
		Room:              r.Room,
		Speakers:          r.Speakers,
		Description:       r.Description,
		KnowledgePartners: r.KnowledgePartners,
		WatchLiveLink:     r.WatchLiveLink,
		Transcript:        transcript,
		People:            people,
	}
}

// CopyPeople returns a non-nil copy of people.
func CopyPeople(people []Person) []Person {
	out := make([]Person, len(people))
	copy(out, people)
	return out
}
