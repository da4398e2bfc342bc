package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"golang.org/x/sync/errgroup"

	domain "github.com/janhq/sessions-api/internal/domain/session"
)

var searchFields = []string{"title", "speakers", "description"}

type personDoc struct {
	Name        string `bson:"name"`
	LinkedInURL string `bson:"linkedin_url"`
}

// sessionDoc is the stored document. Transcript and people are optional on
// documents written before those fields existed.
type sessionDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	WebsiteIndex      int64              `bson:"website_index"`
	Title             string             `bson:"title"`
	Date              string             `bson:"date"`
	Time              string             `bson:"time"`
	Venue             string             `bson:"venue"`
	Room              string             `bson:"room"`
	Speakers          string             `bson:"speakers"`
	Description       string             `bson:"description"`
	KnowledgePartners string             `bson:"knowledge_partners"`
	WatchLiveLink     string             `bson:"watch_live_link"`
	Transcript        *string            `bson:"transcript,omitempty"`
	People            []personDoc        `bson:"people,omitempty"`
}

// MongoRepository stores sessions as documents in a single collection.
type MongoRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var (
	_ domain.Repository = (*MongoRepository)(nil)
	_ domain.Seeder     = (*MongoRepository)(nil)
)

// NewMongoRepository wraps the sessions collection. client may be nil, in
// which case Ping runs a lightweight command on the collection's database.
func NewMongoRepository(client *mongo.Client, coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{client: client, coll: coll}
}

// EnsureIndexes creates the unique website_index index.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "website_index", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("website_index_unique"),
	})
	if err != nil {
		return fmt.Errorf("create website_index index: %w", err)
	}
	return nil
}

// ParseNativeID accepts only the canonical lowercase 24 character hex form.
func (r *MongoRepository) ParseNativeID(raw string) (domain.ID, bool) {
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil || oid.Hex() != raw {
		return domain.ID{}, false
	}
	return domain.DocumentID(raw), true
}

// List runs the page query and the count concurrently.
func (r *MongoRepository) List(ctx context.Context, params domain.ListParams) ([]domain.Session, int64, error) {
	filter := searchFilter(params)

	var (
		docs  []sessionDoc
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opts := options.Find().
			SetSort(bson.D{{Key: "website_index", Value: 1}}).
			SetSkip(int64(params.Offset())).
			SetLimit(int64(params.Limit))
		cur, err := r.coll.Find(gctx, filter, opts)
		if err != nil {
			return fmt.Errorf("find sessions: %w", err)
		}
		if err := cur.All(gctx, &docs); err != nil {
			return fmt.Errorf("decode sessions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		n, err := r.coll.CountDocuments(gctx, filter)
		if err != nil {
			return fmt.Errorf("count sessions: %w", err)
		}
		total = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	sessions := make([]domain.Session, 0, len(docs))
	for _, doc := range docs {
		sessions = append(sessions, docToDomain(doc))
	}
	return sessions, total, nil
}

// FindOne returns the document addressed by id.
func (r *MongoRepository) FindOne(ctx context.Context, id domain.Identifier) (domain.Session, error) {
	filter, err := identifierFilter(id)
	if err != nil {
		return domain.Session{}, err
	}
	var doc sessionDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("find session: %w", err)
	}
	return docToDomain(doc), nil
}

// UpdateTranscript sets transcript and returns the post-update document.
func (r *MongoRepository) UpdateTranscript(ctx context.Context, id domain.Identifier, transcript string) (domain.Session, error) {
	return r.findOneAndSet(ctx, id, bson.M{"transcript": transcript})
}

// UpdatePeople replaces people and returns the post-update document.
func (r *MongoRepository) UpdatePeople(ctx context.Context, id domain.Identifier, people []domain.Person) (domain.Session, error) {
	return r.findOneAndSet(ctx, id, bson.M{"people": peopleToDocs(people)})
}

// Ping checks that the primary is reachable.
func (r *MongoRepository) Ping(ctx context.Context) error {
	if r.client != nil {
		return r.client.Ping(ctx, readpref.Primary())
	}
	return r.coll.Database().RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

// ReplaceAll deletes every document, inserts sessions with fresh ObjectIDs and
// ensures the website_index index.
func (r *MongoRepository) ReplaceAll(ctx context.Context, sessions []domain.Session) (int, error) {
	if _, err := r.coll.DeleteMany(ctx, bson.D{}); err != nil {
		return 0, fmt.Errorf("clear sessions: %w", err)
	}
	if err := r.EnsureIndexes(ctx); err != nil {
		return 0, err
	}
	if len(sessions) == 0 {
		return 0, nil
	}

	docs := make([]any, 0, len(sessions))
	for _, s := range sessions {
		docs = append(docs, domainToDoc(s))
	}
	res, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		return 0, fmt.Errorf("insert sessions: %w", err)
	}
	return len(res.InsertedIDs), nil
}

func (r *MongoRepository) findOneAndSet(ctx context.Context, id domain.Identifier, set bson.M) (domain.Session, error) {
	filter, err := identifierFilter(id)
	if err != nil {
		return domain.Session{}, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc sessionDoc
	err = r.coll.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("update session: %w", err)
	}
	return docToDomain(doc), nil
}

func searchFilter(params domain.ListParams) bson.M {
	if !params.HasQuery() {
		return bson.M{}
	}
	pattern := regexp.QuoteMeta(params.Query)
	or := make(bson.A, 0, len(searchFields))
	for _, field := range searchFields {
		or = append(or, bson.M{field: bson.M{"$regex": pattern, "$options": "i"}})
	}
	return bson.M{"$or": or}
}

func identifierFilter(id domain.Identifier) (bson.M, error) {
	switch id.Kind {
	case domain.KindNativeID:
		oid, err := primitive.ObjectIDFromHex(id.NativeID.String())
		if err != nil {
			return nil, fmt.Errorf("invalid object id %q: %w", id.NativeID.String(), err)
		}
		return bson.M{"_id": oid}, nil
	case domain.KindSequence:
		if id.HasSequence {
			return bson.M{"website_index": id.Sequence}, nil
		}
		// website_index is numeric, so text without leading digits never matches.
		return bson.M{"_id": bson.M{"$exists": false}}, nil
	default:
		return nil, fmt.Errorf("unsupported identifier kind %s", id.Kind)
	}
}

func docToDomain(doc sessionDoc) domain.Session {
	var people []domain.Person
	for _, p := range doc.People {
		people = append(people, domain.Person{Name: p.Name, LinkedInURL: p.LinkedInURL})
	}
	return domain.Normalize(domain.Record{
		ID:                domain.DocumentID(doc.ID.Hex()),
		WebsiteIndex:      doc.WebsiteIndex,
		Title:             doc.Title,
		Date:              doc.Date,
		Time:              doc.Time,
		Venue:             doc.Venue,
		Room:              doc.Room,
		Speakers:          doc.Speakers,
		Description:       doc.Description,
		KnowledgePartners: doc.KnowledgePartners,
		WatchLiveLink:     doc.WatchLiveLink,
		Transcript:        doc.Transcript,
		People:            people,
	})
}

func domainToDoc(s domain.Session) sessionDoc {
	transcript := s.Transcript
	return sessionDoc{
		ID:                primitive.NewObjectID(),
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
		People:            peopleToDocs(s.People),
	}
}

func peopleToDocs(people []domain.Person) []personDoc {
	out := make([]personDoc, 0, len(people))
	for _, p := range people {
		out = append(out, personDoc{Name: p.Name, LinkedInURL: p.LinkedInURL})
	}
	return out
}
