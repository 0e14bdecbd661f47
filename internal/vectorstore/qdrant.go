package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantIndex implements VectorIndex on a Qdrant server.
type QdrantIndex struct {
	client *qdrant.Client
	logger *slog.Logger
}

// NewQdrantIndex connects to Qdrant. urlStr is the HTTP URL of the
// server ("http://localhost:6333"); the gRPC port is derived from the
// HTTP port.
func NewQdrantIndex(urlStr, apiKey string, logger *slog.Logger) (*QdrantIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}

	host, port, err := grpcTarget(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	return &QdrantIndex{client: client, logger: logger}, nil
}

// Close shuts down the underlying gRPC connection.
func (s *QdrantIndex) Close() error {
	return s.client.Close()
}

// grpcTarget derives the gRPC host and port from the HTTP URL. Qdrant
// serves gRPC on the HTTP port plus one.
func grpcTarget(urlStr string) (string, int, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}

	port := 6334
	if parsed.Port() != "" {
		httpPort, err := strconv.Atoi(parsed.Port())
		if err == nil {
			port = httpPort + 1
		}
	}

	return host, port, nil
}

// EnsureCollection creates the collection if missing and validates
// its vector size otherwise.
func (s *QdrantIndex) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}

	if !exists {
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
		s.logger.Info("collection created", "collection", collection, "vector_size", vectorSize)
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return fmt.Errorf("get collection info: %w", err)
	}
	size := collectionVectorSize(info)
	if size == 0 {
		return fmt.Errorf("could not determine vector size of collection %q", collection)
	}
	if size != vectorSize {
		return fmt.Errorf("collection %q has vector size %d, expected %d", collection, size, vectorSize)
	}

	return nil
}

func collectionVectorSize(info *qdrant.CollectionInfo) int {
	if info == nil || info.Config == nil || info.Config.Params == nil {
		return 0
	}
	vectorsConfig := info.Config.Params.GetVectorsConfig()
	if vectorsConfig == nil {
		return 0
	}
	params := vectorsConfig.GetParams()
	if params == nil {
		return 0
	}
	return int(params.Size)
}

// Upsert inserts or updates points.
func (s *QdrantIndex) Upsert(ctx context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, point := range points {
		p := &qdrant.PointStruct{
			Id:      qdrant.NewID(point.ID),
			Vectors: qdrant.NewVectors(point.Vector...),
		}
		if len(point.Payload) > 0 {
			p.Payload = qdrant.NewValueMap(point.Payload)
		}
		qdrantPoints = append(qdrantPoints, p)
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         qdrantPoints,
	})
	if err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}

	s.logger.Info("upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search returns the k nearest points to the query vector.
func (s *QdrantIndex) Search(ctx context.Context, collection string, query []float32, k int, filter *SearchFilter) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	limit := uint64(k)
	req := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if f := buildFilter(filter); f != nil {
		req.Filter = f
	}

	scored, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search points: %w", err)
	}

	results := make([]SearchResult, 0, len(scored))
	for _, hit := range scored {
		id := ""
		if hit.Id != nil {
			id = hit.Id.GetUuid()
		}
		meta := map[string]any{}
		if hit.Payload != nil {
			meta = payloadToMap(hit.Payload)
		}
		results = append(results, SearchResult{ID: id, Score: hit.Score, Payload: meta})
	}

	return results, nil
}

func buildFilter(filter *SearchFilter) *qdrant.Filter {
	if filter == nil || filter.Source == "" {
		return nil
	}
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("source", filter.Source),
		},
	}
}

// DeleteBySource removes every point of one source file.
func (s *QdrantIndex) DeleteBySource(ctx context.Context, collection, sourceFile string) error {
	if sourceFile == "" {
		return fmt.Errorf("source file is required")
	}

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("source", sourceFile),
		},
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: filter},
		},
	})
	if err != nil {
		return fmt.Errorf("delete points: %w", err)
	}

	s.logger.Info("deleted points", "collection", collection, "source", sourceFile)
	return nil
}

// Count returns the number of stored points.
func (s *QdrantIndex) Count(ctx context.Context, collection string) (int, error) {
	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
	})
	if err != nil {
		return 0, fmt.Errorf("count points: %w", err)
	}
	return int(count), nil
}

// payloadToMap converts a Qdrant payload to plain Go values.
func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = goValue(v)
	}
	return result
}

func goValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = goValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return payloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
