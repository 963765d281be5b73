package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/playperu/treasurehunt/internal/hunt"
)

const (
	sessionsCollection  = "gameSessions"
	completedCollection = "completedGames"
)

// MongoStore keeps one document per unfinished game in gameSessions and
// one per finished game in completedGames.
type MongoStore struct {
	client   *mongo.Client
	sessions *mongo.Collection
	results  *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

type progressDoc struct {
	hunt.Snapshot `bson:",inline"`

	ID      string    `bson:"_id"`
	SavedAt time.Time `bson:"savedAt"`
}

// OpenMongo connects to uri, verifies the connection and makes sure the
// leaderboard index exists.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		sessions: db.Collection(sessionsCollection),
		results:  db.Collection(completedCollection),
	}

	_, err = s.results.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "playerType", Value: 1},
			{Key: "calculatedScore", Value: -1},
			{Key: "completedAt", Value: 1},
		},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("creating leaderboard index: %w", err)
	}
	return s, nil
}

func (s *MongoStore) SaveProgress(ctx context.Context, gameID string, snap hunt.Snapshot) error {
	doc := progressDoc{ID: gameID, Snapshot: snap, SavedAt: time.Now().UTC()}
	_, err := s.sessions.ReplaceOne(ctx, bson.M{"_id": gameID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("saving progress %s: %w", gameID, err)
	}
	return nil
}

func (s *MongoStore) LoadProgress(ctx context.Context, gameID string) (hunt.Snapshot, error) {
	var doc progressDoc
	err := s.sessions.FindOne(ctx, bson.M{"_id": gameID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return hunt.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return hunt.Snapshot{}, fmt.Errorf("loading progress %s: %w", gameID, err)
	}
	return doc.Snapshot, nil
}

func (s *MongoStore) DeleteProgress(ctx context.Context, gameID string) error {
	if _, err := s.sessions.DeleteOne(ctx, bson.M{"_id": gameID}); err != nil {
		return fmt.Errorf("deleting progress %s: %w", gameID, err)
	}
	return nil
}

func (s *MongoStore) SaveCompleted(ctx context.Context, rec hunt.CompletedGame) error {
	_, err := s.results.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("saving completed game %s: %w", rec.ID, err)
	}
	return nil
}

func (s *MongoStore) Leaderboard(ctx context.Context, typ hunt.PlayerType, limit int) ([]hunt.CompletedGame, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "calculatedScore", Value: -1}, {Key: "completedAt", Value: 1}}).
		SetLimit(int64(leaderboardLimit(limit)))

	cur, err := s.results.Find(ctx, bson.M{"playerType": string(typ)}, opts)
	if err != nil {
		return nil, fmt.Errorf("querying leaderboard: %w", err)
	}
	var out []hunt.CompletedGame
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decoding leaderboard: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
