package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/janhq/sessions-api/internal/domain/session"
	"github.com/janhq/sessions-api/internal/infrastructure/database/entities"
)

const seedBatchSize = 200

// likeEscaper escapes LIKE metacharacters so search terms match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const searchCondition = `LOWER(title) LIKE ? ESCAPE '\' OR LOWER(speakers) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`

// PostgresRepository persists sessions in a relational table via GORM.
type PostgresRepository struct {
	domain.SerialIDParser

	db *gorm.DB
}

var (
	_ domain.Repository = (*PostgresRepository)(nil)
	_ domain.Seeder     = (*PostgresRepository)(nil)
)

// NewPostgresRepository creates a repository backed by the provided DB.
func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List counts the matching rows and fetches one page ordered by website_index.
func (r *PostgresRepository) List(ctx context.Context, params domain.ListParams) ([]domain.Session, int64, error) {
	filtered := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&entities.Session{})
		if params.HasQuery() {
			pattern := "%" + likeEscaper.Replace(strings.ToLower(params.Query)) + "%"
			query = query.Where(searchCondition, pattern, pattern, pattern)
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	var rows []entities.Session
	err := filtered().
		Order("website_index ASC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, rowToDomain(row))
	}
	return sessions, total, nil
}

// FindOne returns the row addressed by id.
func (r *PostgresRepository) FindOne(ctx context.Context, id domain.Identifier) (domain.Session, error) {
	var row entities.Session
	err := r.db.WithContext(ctx).Scopes(identifierScope(id)).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("find session: %w", err)
	}
	return rowToDomain(row), nil
}

// UpdateTranscript runs a single UPDATE ... RETURNING statement.
func (r *PostgresRepository) UpdateTranscript(ctx context.Context, id domain.Identifier, transcript string) (domain.Session, error) {
	return r.updateReturning(ctx, id, map[string]any{"transcript": transcript})
}

// UpdatePeople replaces the people column in a single UPDATE ... RETURNING statement.
func (r *PostgresRepository) UpdatePeople(ctx context.Context, id domain.Identifier, people []domain.Person) (domain.Session, error) {
	return r.updateReturning(ctx, id, map[string]any{"people": peopleToColumn(people)})
}

// Ping checks the connection pool.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ReplaceAll truncates the table, restarts the id sequence and inserts sessions
// in one transaction.
func (r *PostgresRepository) ReplaceAll(ctx context.Context, sessions []domain.Session) (int, error) {
	rows := make([]entities.Session, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, domainToRow(s))
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("TRUNCATE TABLE sessions RESTART IDENTITY").Error; err != nil {
				return err
			}
		} else if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entities.Session{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, seedBatchSize).Error
	})
	if err != nil {
		return 0, fmt.Errorf("replace sessions: %w", err)
	}
	return len(rows), nil
}

func (r *PostgresRepository) updateReturning(ctx context.Context, id domain.Identifier, values map[string]any) (domain.Session, error) {
	var rows []entities.Session
	err := r.db.WithContext(ctx).
		Model(&rows).
		Clauses(clause.Returning{}).
		Scopes(identifierScope(id)).
		Updates(values).Error
	if err != nil {
		return domain.Session{}, fmt.Errorf("update session: %w", err)
	}
	if len(rows) == 0 {
		return domain.Session{}, domain.ErrNotFound
	}
	return rowToDomain(rows[0]), nil
}

func identifierScope(id domain.Identifier) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch id.Kind {
		case domain.KindNativeID:
			n, ok := id.NativeID.Serial()
			if !ok {
				return db.Where("1 = 0")
			}
			return db.Where("id = ?", n)
		case domain.KindSequence:
			if id.HasSequence {
				return db.Where("website_index = ?", id.Sequence)
			}
			return db.Where("CAST(website_index AS TEXT) = ?", id.Raw)
		default:
			return db.Where("1 = 0")
		}
	}
}

func rowToDomain(row entities.Session) domain.Session {
	people := make([]domain.Person, 0, len(row.People))
	for _, p := range row.People {
		people = append(people, domain.Person{Name: p.Name, LinkedInURL: p.LinkedInURL})
	}
	return domain.Normalize(domain.Record{
		ID:                domain.SerialID(row.ID),
		WebsiteIndex:      row.WebsiteIndex,
		Title:             row.Title,
		Date:              row.Date,
		Time:              row.Time,
		Venue:             row.Venue,
		Room:              row.Room,
		Speakers:          row.Speakers,
		Description:       row.Description,
		KnowledgePartners: row.KnowledgePartners,
		WatchLiveLink:     row.WatchLiveLink,
		Transcript:        row.Transcript,
		People:            people,
	})
}

func domainToRow(s domain.Session) entities.Session {
	transcript := s.Transcript
	return entities.Session{
		WebsiteIndex:      s.WebsiteIndex,
		Title:             s.Title,
		Date:              s.Date,
		Time:              s.Time,
		Venue:             s.Venue,
		Room:              s.Room,
		Speakers:          s.Speakers,
		Description:       s.Description,
		KnowledgePartners: s.KnowledgePartners,
		WatchLiveLink:     s.WatchLiveLink,
		Transcript:        &transcript,
		People:            peopleToColumn(s.People),
	}
}

func peopleToColumn(people []domain.Person) datatypes.JSONSlice[entities.Person] {
	out := make([]entities.Person, 0, len(people))
	for _, p := range people {
		out = append(out, entities.Person{Name: p.Name, LinkedInURL: p.LinkedInURL})
	}
	return datatypes.NewJSONSlice(out)
}
