package sink

import (
	"context"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/twill/pkg/errors"
	"github.com/matzehuels/twill/pkg/jsonapi"
	"github.com/matzehuels/twill/pkg/observability"
)

// Defaults for MongoOptions.
const (
	DefaultMongoDatabase = "twill"
	DefaultMongoTimeout  = 10 * time.Second
)

// MongoOptions configures a MongoSink.
type MongoOptions struct {
	URI              string        `toml:"uri" yaml:"uri"`
	Database         string        `toml:"database" yaml:"database"`
	CollectionPrefix string        `toml:"collection_prefix" yaml:"collection_prefix"`
	Timeout          time.Duration `toml:"timeout" yaml:"timeout"`
}

// SetDefaults fills in zero values.
func (o *MongoOptions) SetDefaults() {
	if o.Database == "" {
		o.Database = DefaultMongoDatabase
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultMongoTimeout
	}
}

// MongoSink upserts resources into MongoDB, one collection per type.
type MongoSink struct {
	client *mongo.Client
	db     *mongo.Database
	prefix string
	logger *log.Logger
}

// NewMongoSink connects to MongoDB and verifies the connection.
func NewMongoSink(ctx context.Context, opts MongoOptions, logger *log.Logger) (*MongoSink, error) {
	opts.SetDefaults()
	if opts.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo URI is required")
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(opts.Timeout).
		SetServerSelectionTimeout(opts.Timeout))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo")
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}

	return &MongoSink{
		client: client,
		db:     client.Database(opts.Database),
		prefix: opts.CollectionPrefix,
		logger: logger,
	}, nil
}

// Write upserts every resource reachable from roots, keyed by id within
// its type's collection. It returns the number of resources written.
func (s *MongoSink) Write(ctx context.Context, roots []jsonapi.Resource) (total int, err error) {
	start := time.Now()
	defer func() {
		observability.Sink().OnSinkWrite(ctx, "mongo", total, time.Since(start), err)
	}()

	byType, err := GroupModels(roots)
	if err != nil {
		return 0, err
	}

	for _, typ := range slices.Sorted(maps.Keys(byType)) {
		models := byType[typ]
		coll := s.db.Collection(s.prefix + typ)
		res, err := coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
		if err != nil {
			return total, errors.Wrap(errors.ErrCodeNetwork, err, "write %s", typ)
		}
		s.logger.Debug("mongo bulk write", "collection", coll.Name(),
			"upserted", res.UpsertedCount, "modified", res.ModifiedCount)
		total += len(models)
	}
	return total, nil
}

// Close disconnects from MongoDB.
func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// GroupModels builds one upsert per reachable resource, grouped by type.
func GroupModels(roots []jsonapi.Resource) (map[string][]mongo.WriteModel, error) {
	out := make(map[string][]mongo.WriteModel)
	err := jsonapi.Walk(roots, func(r jsonapi.Resource) error {
		typ := r.Type()
		if err := validCollection(typ); err != nil {
			return err
		}
		model := mongo.NewReplaceOneModel().
			SetFilter(bson.M{IDField: r.ID()}).
			SetReplacement(bson.M(ToDocument(r))).
			SetUpsert(true)
		out[typ] = append(out[typ], model)
		return nil
	})
	return out, err
}

func validCollection(typ string) error {
	if typ == "" || strings.ContainsAny(typ, "$\x00") || strings.HasPrefix(typ, "system.") {
		return errors.New(errors.ErrCodeInvalidInput, "resource type %q cannot name a collection", typ)
	}
	return nil
}
