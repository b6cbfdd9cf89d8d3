package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// QdrantConfig configures the networked Qdrant gRPC backend.
type QdrantConfig struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	UseTLS         bool          `koanf:"use_tls"`
	VectorSize     uint64        `koanf:"vector_size"`
	MaxMessageSize int           `koanf:"max_message_size"`
	HealthTimeout  time.Duration `koanf:"health_timeout"`
}

func (c *QdrantConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 50 * 1024 * 1024
	}
	if c.HealthTimeout == 0 {
		c.HealthTimeout = 5 * time.Second
	}
}

// QdrantStore implements Store over a networked Qdrant instance via its
// native gRPC client, bypassing the HTTP layer's payload-size ceiling.
type QdrantStore struct {
	client *qdrant.Client
	config QdrantConfig
	logger *zap.Logger

	mu      sync.Mutex
	created map[string]bool
}

// NewQdrantStore dials config.Host:config.Port and verifies connectivity
// with a bounded health check before returning.
func NewQdrantStore(config QdrantConfig, logger *zap.Logger) (*QdrantStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.applyDefaults()
	if config.Host == "" {
		return nil, fmt.Errorf("%w: qdrant host is required", ErrInvalidWhere)
	}
	if config.VectorSize == 0 {
		return nil, fmt.Errorf("%w: qdrant vector_size is required", ErrInvalidWhere)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		UseTLS: config.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(config.MaxMessageSize),
				grpc.MaxCallSendMsgSize(config.MaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant at %s:%d: %w", config.Host, config.Port, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.HealthTimeout)
	defer cancel()
	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("qdrant health check failed: %w", err)
	}

	return &QdrantStore{
		client:  client,
		config:  config,
		logger:  logger,
		created: make(map[string]bool),
	}, nil
}

func (s *QdrantStore) ensureCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	if s.created[name] {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", name, err)
	}
	if !exists {
		if err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     s.config.VectorSize,
				Distance: qdrant.Distance_Cosine,
			}),
		}); err != nil {
			return fmt.Errorf("creating collection %s: %w", name, err)
		}
	}

	s.mu.Lock()
	s.created[name] = true
	s.mu.Unlock()
	return nil
}

func (s *QdrantStore) Upsert(ctx context.Context, collection string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return ErrEmptyChunks
	}
	if err := s.ensureCollection(ctx, collection); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, c := range chunks {
		payload := map[string]*qdrant.Value{
			"chunk_id":    qdrantString(c.ChunkID),
			"document_id": qdrantString(c.DocumentID),
			"content":     qdrantString(c.Content),
		}
		for k, v := range c.Metadata {
			payload[k] = qdrantValue(v)
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(chunkIDToUUID(c.ChunkID)),
			Vectors: qdrant.NewVectors(c.Embedding...),
			Payload: payload,
		})
	}

	wait := true
	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
		Wait:           &wait,
	}); err != nil {
		return fmt.Errorf("upserting into %s: %w", collection, err)
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, collection string, queryVector []float32, k int, where Where) ([]Hit, error) {
	if err := validateK(k); err != nil {
		return nil, err
	}
	if err := validateWhere(where); err != nil {
		return nil, err
	}
	if err := requireTenantScope(collection, where); err != nil {
		return nil, err
	}
	if err := s.ensureCollection(ctx, collection); err != nil {
		return nil, err
	}

	limit := uint64(k)
	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         buildFilter(where),
	})
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", collection, err)
	}

	hits := make([]Hit, 0, len(results))
	for _, point := range results {
		hit := Hit{Similarity: point.Score}
		if point.Payload != nil {
			meta := make(map[string]any, len(point.Payload))
			for k, v := range point.Payload {
				meta[k] = valueFromQdrant(v)
				switch k {
				case "chunk_id":
					hit.ChunkID = stringFromQdrant(v)
				case "document_id":
					hit.DocumentID = stringFromQdrant(v)
				case "content":
					hit.Excerpt = stringFromQdrant(v)
				}
			}
			hit.Metadata = meta
		}
		hits = append(hits, hit)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})

	return hits, nil
}

func (s *QdrantStore) Delete(ctx context.Context, collection string, where Where) error {
	if err := requireTenantScope(collection, where); err != nil {
		return err
	}
	if err := s.ensureCollection(ctx, collection); err != nil {
		return err
	}

	filter := buildFilter(where)
	if filter == nil {
		return fmt.Errorf("%w: delete requires at least one predicate", ErrInvalidWhere)
	}

	if _, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: filter},
		},
	}); err != nil {
		return fmt.Errorf("deleting from %s: %w", collection, err)
	}
	return nil
}

func (s *QdrantStore) Count(ctx context.Context, collection string, where Where) (int, error) {
	if err := s.ensureCollection(ctx, collection); err != nil {
		return 0, err
	}

	exact := true
	result, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Filter:         buildFilter(where),
		Exact:          &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", collection, err)
	}
	return int(result), nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// buildFilter implements the filter composition contract of §4.5. Every
// predicate, including a lone one, is placed inside Filter.Must — an
// explicit conjunction node — rather than passed as an unwrapped condition
// list. Some backends treat a bare, unwrapped multi-condition list as an
// implicit OR; always emitting the Must wrapper, even for n=1, means a
// second predicate added later never silently changes the query's meaning.
func buildFilter(where Where) *qdrant.Filter {
	if len(where) == 0 {
		return nil
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]*qdrant.Condition, 0, len(keys))
	for _, k := range keys {
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key:   k,
					Match: matchFor(where[k]),
				},
			},
		})
	}

	return &qdrant.Filter{Must: conditions}
}

func matchFor(v any) *qdrant.Match {
	switch t := v.(type) {
	case string:
		return &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: t}}
	case bool:
		return &qdrant.Match{MatchValue: &qdrant.Match_Boolean{Boolean: t}}
	case int:
		return &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: int64(t)}}
	case int64:
		return &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: t}}
	default:
		return &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: stringifyScalar(v)}}
	}
}

func qdrantString(s string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
}

func qdrantValue(v any) *qdrant.Value {
	switch t := v.(type) {
	case string:
		return qdrantString(t)
	case bool:
		return &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: t}}
	case int:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(t)}}
	case int64:
		return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: t}}
	case float64:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: t}}
	case float32:
		return &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: float64(t)}}
	default:
		return qdrantString(stringifyScalar(v))
	}
}

func valueFromQdrant(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	default:
		return nil
	}
}

func stringFromQdrant(v *qdrant.Value) string {
	if s, ok := v.Kind.(*qdrant.Value_StringValue); ok {
		return s.StringValue
	}
	return ""
}

// chunkIDToUUID derives a deterministic UUID for a chunk_id so repeated
// upserts of the same chunk_id always replace the same Qdrant point,
// satisfying the idempotent-by-chunk_id requirement. Qdrant point IDs must
// be a UUID or an unsigned integer; the original chunk_id is preserved in
// the payload for retrieval.
func chunkIDToUUID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}
