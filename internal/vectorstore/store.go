package vectorstore

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"

	"github.com/jonathan/card-analyzer/internal/types"
)

// Store wraps the Qdrant client with the text/image collection pair.
type Store struct {
	api *qdrant.Client
	cfg *Config
}

// Match is a single scored hit from one collection.
type Match struct {
	ID      string
	Score   float32
	Payload map[string]any
}

// New connects to Qdrant and verifies the service is reachable.
func New(cfg *Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vectorstore: invalid config: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   cfg.Host,
		Port:                   cfg.Port,
		APIKey:                 cfg.APIKey,
		SkipCompatibilityCheck: !cfg.CheckCompatibility,
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: failed to initialize client: %w", err)
	}

	s := &Store{api: client, cfg: cfg}
	if err := s.healthCheck(); err != nil {
		return nil, fmt.Errorf("vectorstore: health check failed: %w", err)
	}
	return s, nil
}

func (s *Store) healthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	resp, err := s.api.HealthCheck(ctx)
	if err != nil {
		return err
	}
	log.Printf("[VECTOR] Connected to Qdrant (version=%s, host=%s)", resp.GetVersion(), s.cfg.Host)
	return nil
}

// EnsureCollections creates the text and image collections if missing, each
// with its own vector size.
func (s *Store) EnsureCollections(ctx context.Context, textDims, imageDims uint64) error {
	collections, err := s.api.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("vectorstore: failed to list collections: %w", err)
	}

	for _, c := range []struct {
		name string
		dims uint64
	}{
		{s.cfg.TextCollection, textDims},
		{s.cfg.ImageCollection, imageDims},
	} {
		if slices.Contains(collections, c.name) {
			continue
		}
		log.Printf("[VECTOR] Creating collection %q (%d dims)", c.name, c.dims)
		err := s.api.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: c.name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     c.dims,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("vectorstore: failed to create collection %q: %w", c.name, err)
		}
	}
	return nil
}

// Upsert writes both vectors for a card under the same id, with the same
// payload in each collection. Re-upserting an id replaces the previous
// vectors and payload.
func (s *Store) Upsert(ctx context.Context, id string, textVec, imageVec []float32, payload map[string]any) error {
	wait := true
	for _, target := range []struct {
		collection string
		vector     []float32
	}{
		{s.cfg.TextCollection, textVec},
		{s.cfg.ImageCollection, imageVec},
	} {
		_, err := s.api.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: target.collection,
			Wait:           &wait,
			Points: []*qdrant.PointStruct{{
				Id:      qdrant.NewID(id),
				Vectors: qdrant.NewVectors(target.vector...),
				Payload: qdrant.NewValueMap(payload),
			}},
		})
		if err != nil {
			return fmt.Errorf("vectorstore: upsert into %q failed: %w", target.collection, err)
		}
	}
	return nil
}

// StoreCard flattens a finished card and upserts both of its vectors.
func (s *Store) StoreCard(ctx context.Context, cardID string, card *types.CardRecord, description string, textVec, imageVec []float32) error {
	if cardID == "" {
		return fmt.Errorf("vectorstore: card id is required")
	}
	payload := FlattenCard(cardID, card, description)
	if err := s.Upsert(ctx, cardID, textVec, imageVec, payload); err != nil {
		return err
	}
	log.Printf("[VECTOR] Stored embeddings for card %s", cardID)
	return nil
}

// QueryText searches the text collection.
func (s *Store) QueryText(ctx context.Context, vector []float32, topK int, filters *FilterSet) ([]Match, error) {
	return s.query(ctx, s.cfg.TextCollection, vector, topK, filters)
}

// QueryImage searches the image collection.
func (s *Store) QueryImage(ctx context.Context, vector []float32, topK int, filters *FilterSet) ([]Match, error) {
	return s.query(ctx, s.cfg.ImageCollection, vector, topK, filters)
}

func (s *Store) query(ctx context.Context, collection string, vector []float32, topK int, filters *FilterSet) ([]Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("vectorstore: query vector is empty")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("vectorstore: topK must be positive")
	}

	limit := uint64(topK)
	resp, err := s.api.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         filters.ToFilter(),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: query on %q failed: %w", collection, err)
	}

	return parseMatches(resp)
}

func parseMatches(resp []*qdrant.ScoredPoint) ([]Match, error) {
	matches := make([]Match, 0, len(resp))
	for _, r := range resp {
		var id string
		switch v := r.Id.PointIdOptions.(type) {
		case *qdrant.PointId_Num:
			id = fmt.Sprintf("%d", v.Num)
		case *qdrant.PointId_Uuid:
			id = v.Uuid
		default:
			return nil, fmt.Errorf("vectorstore: unexpected point id type %T", v)
		}

		matches = append(matches, Match{
			ID:      id,
			Score:   r.Score,
			Payload: payloadToMap(r.Payload),
		})
	}
	return matches, nil
}

// payloadToMap converts a Qdrant payload back into plain Go values.
func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = valueToAny(v)
	}
	return out
}

func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		list := make([]any, 0, len(items))
		for _, item := range items {
			list = append(list, valueToAny(item))
		}
		return list
	case *qdrant.Value_StructValue:
		return payloadToMap(kind.StructValue.GetFields())
	default:
		return nil
	}
}

// Delete removes a card from both collections.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	points := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		points = append(points, qdrant.NewID(id))
	}

	wait := true
	for _, collection := range []string{s.cfg.TextCollection, s.cfg.ImageCollection} {
		_, err := s.api.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: collection,
			Wait:           &wait,
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Points{
					Points: &qdrant.PointsIdsList{Ids: points},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("vectorstore: delete from %q failed: %w", collection, err)
		}
	}
	return nil
}

// Close releases the underlying gRPC connection.
func (s *Store) Close() error {
	return s.api.Close()
}
