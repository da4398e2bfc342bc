package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/janhq/sessions-api/internal/domain/session"
)

// store is what every backend under contract test must provide.
type store interface {
	domain.Repository
	domain.Seeder
}

type storeFactory func(t *testing.T) store

func contractSeed() []domain.Session {
	return []domain.Session{
		{WebsiteIndex: 3, Title: "Panel B", Speakers: "Ravi Kumar", Description: "Closing panel", Room: "Hall 2"},
		{WebsiteIndex: 1, Title: "Keynote", Speakers: "Asha Rao", Description: "Opening remarks", WatchLiveLink: "https://youtu.be/abcdefghijk"},
		{WebsiteIndex: 2, Title: "Panel A", Speakers: "Meera N", Description: "Data and AI", Transcript: "existing", People: []domain.Person{{Name: "Meera N", LinkedInURL: "https://linkedin.com/in/meera"}}},
		{WebsiteIndex: 10, Title: "100% Open Models", Speakers: "R_and_D team", Description: "Weights and data"},
	}
}

func seeded(t *testing.T, newStore storeFactory) store {
	t.Helper()
	s := newStore(t)
	n, err := s.ReplaceAll(context.Background(), contractSeed())
	require.NoError(t, err)
	require.Equal(t, len(contractSeed()), n)
	return s
}

func resolve(repo domain.Repository, raw string) domain.Identifier {
	return domain.ResolveIdentifier(raw, repo)
}

func titles(sessions []domain.Session) []string {
	out := make([]string, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Title)
	}
	return out
}

func nativeIDOf(t *testing.T, repo domain.Repository, websiteIndex int64) string {
	t.Helper()
	sessions, _, err := repo.List(context.Background(), domain.NewListParams(1, domain.MaxLimit, ""))
	require.NoError(t, err)
	for _, s := range sessions {
		if s.WebsiteIndex == websiteIndex {
			require.False(t, s.ID.IsZero())
			return s.ID.String()
		}
	}
	t.Fatalf("website_index %d not seeded", websiteIndex)
	return ""
}

func runRepositoryContract(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	t.Run("ListOrdersByWebsiteIndex", func(t *testing.T) {
		repo := seeded(t, newStore)
		sessions, total, err := repo.List(ctx, domain.NewListParams(1, 20, ""))
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Equal(t, []string{"Keynote", "Panel A", "Panel B", "100% Open Models"}, titles(sessions))
	})

	t.Run("ListPaginates", func(t *testing.T) {
		repo := seeded(t, newStore)
		sessions, total, err := repo.List(ctx, domain.NewListParams(2, 2, ""))
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Equal(t, []string{"Panel B", "100% Open Models"}, titles(sessions))

		sessions, total, err = repo.List(ctx, domain.NewListParams(5, 2, ""))
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Empty(t, sessions)
	})

	t.Run("ListSearchIsCaseInsensitive", func(t *testing.T) {
		repo := seeded(t, newStore)
		sessions, total, err := repo.List(ctx, domain.NewListParams(1, 10, "panel"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, []string{"Panel A", "Panel B"}, titles(sessions))
	})

	t.Run("ListSearchCoversSpeakersAndDescription", func(t *testing.T) {
		repo := seeded(t, newStore)
		sessions, total, err := repo.List(ctx, domain.NewListParams(1, 10, "ASHA"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []string{"Keynote"}, titles(sessions))

		sessions, total, err = repo.List(ctx, domain.NewListParams(1, 10, "data"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, []string{"Panel A", "100% Open Models"}, titles(sessions))
	})

	t.Run("ListSearchTreatsMetacharactersLiterally", func(t *testing.T) {
		repo := seeded(t, newStore)
		sessions, total, err := repo.List(ctx, domain.NewListParams(1, 10, "%"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []string{"100% Open Models"}, titles(sessions))

		sessions, total, err = repo.List(ctx, domain.NewListParams(1, 10, "r_and"))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []string{"100% Open Models"}, titles(sessions))

		_, total, err = repo.List(ctx, domain.NewListParams(1, 10, ".*"))
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("ListSearchAbsentTerm", func(t *testing.T) {
		repo := seeded(t, newStore)
		sessions, total, err := repo.List(ctx, domain.NewListParams(1, 10, "quantum"))
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, sessions)
	})

	t.Run("ListNormalizesOptionalFields", func(t *testing.T) {
		repo := seeded(t, newStore)
		sessions, _, err := repo.List(ctx, domain.NewListParams(1, 20, ""))
		require.NoError(t, err)
		for _, s := range sessions {
			assert.NotNil(t, s.People, "people for %s", s.Title)
		}
		assert.Equal(t, "", sessions[0].Transcript)
		assert.Equal(t, "existing", sessions[1].Transcript)
		assert.Equal(t, []domain.Person{{Name: "Meera N", LinkedInURL: "https://linkedin.com/in/meera"}}, sessions[1].People)
	})

	t.Run("FindOneByNativeID", func(t *testing.T) {
		repo := seeded(t, newStore)
		raw := nativeIDOf(t, repo, 3)
		id := resolve(repo, raw)
		require.Equal(t, domain.KindNativeID, id.Kind)

		s, err := repo.FindOne(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Panel B", s.Title)
		assert.Equal(t, raw, s.ID.String())
	})

	t.Run("FindOneByWebsiteIndex", func(t *testing.T) {
		repo := seeded(t, newStore)
		for _, raw := range []string{"10", "10abc", " 10"} {
			id := resolve(repo, raw)
			if id.Kind == domain.KindNativeID {
				continue
			}
			s, err := repo.FindOne(ctx, id)
			require.NoError(t, err, raw)
			assert.Equal(t, int64(10), s.WebsiteIndex, raw)
		}
	})

	t.Run("FindOneMissing", func(t *testing.T) {
		repo := seeded(t, newStore)
		for _, raw := range []string{"999abc", "abc", "-4x"} {
			_, err := repo.FindOne(ctx, resolve(repo, raw))
			assert.ErrorIs(t, err, domain.ErrNotFound, raw)
		}
	})

	t.Run("UpdateTranscript", func(t *testing.T) {
		repo := seeded(t, newStore)
		raw := nativeIDOf(t, repo, 1)

		updated, err := repo.UpdateTranscript(ctx, resolve(repo, raw), "hello")
		require.NoError(t, err)
		assert.Equal(t, "hello", updated.Transcript)
		assert.Equal(t, "Keynote", updated.Title)

		got, err := repo.FindOne(ctx, resolve(repo, raw))
		require.NoError(t, err)
		assert.Equal(t, "hello", got.Transcript)

		cleared, err := repo.UpdateTranscript(ctx, resolve(repo, raw), "")
		require.NoError(t, err)
		assert.Equal(t, "", cleared.Transcript)
	})

	t.Run("UpdateTranscriptByWebsiteIndexText", func(t *testing.T) {
		repo := seeded(t, newStore)
		id := resolve(repo, "3rd")
		require.Equal(t, domain.KindSequence, id.Kind)

		updated, err := repo.UpdateTranscript(ctx, id, "panel b notes")
		require.NoError(t, err)
		assert.Equal(t, int64(3), updated.WebsiteIndex)
		assert.Equal(t, "panel b notes", updated.Transcript)
	})

	t.Run("UpdateTranscriptMissing", func(t *testing.T) {
		repo := seeded(t, newStore)
		_, err := repo.UpdateTranscript(ctx, resolve(repo, "404x"), "hello")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("UpdatePeopleReplacesList", func(t *testing.T) {
		repo := seeded(t, newStore)
		raw := nativeIDOf(t, repo, 2)
		people := []domain.Person{
			{Name: "Ana", LinkedInURL: "https://linkedin.com/in/ana"},
			{Name: "Bo", LinkedInURL: ""},
		}

		updated, err := repo.UpdatePeople(ctx, resolve(repo, raw), people)
		require.NoError(t, err)
		assert.Equal(t, people, updated.People)
		assert.Equal(t, "existing", updated.Transcript)

		emptied, err := repo.UpdatePeople(ctx, resolve(repo, raw), []domain.Person{})
		require.NoError(t, err)
		assert.NotNil(t, emptied.People)
		assert.Empty(t, emptied.People)

		got, err := repo.FindOne(ctx, resolve(repo, raw))
		require.NoError(t, err)
		assert.Empty(t, got.People)
	})

	t.Run("UpdatePeopleMissing", func(t *testing.T) {
		repo := seeded(t, newStore)
		_, err := repo.UpdatePeople(ctx, resolve(repo, "nope"), nil)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ReplaceAllResetsContents", func(t *testing.T) {
		repo := seeded(t, newStore)
		n, err := repo.ReplaceAll(ctx, []domain.Session{{WebsiteIndex: 7, Title: "Only"}})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		sessions, total, err := repo.List(ctx, domain.NewListParams(1, 20, ""))
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []string{"Only"}, titles(sessions))
	})

	t.Run("Ping", func(t *testing.T) {
		repo := newStore(t)
		assert.NoError(t, repo.Ping(ctx))
	})
}
