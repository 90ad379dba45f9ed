package repository

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const defaultTitleDimension = 1024

// TitleIndexConfig holds the Qdrant connection used for semantic title search.
type TitleIndexConfig struct {
	Host       string
	Port       int
	Collection string
	APIKey     string // Qdrant Cloud key, implies TLS
	UseTLS     bool
	Dimension  int
}

// TitlePayload is stored next to each title vector.
type TitlePayload struct {
	MemeID   string
	Name     string
	Category string
}

// TitleMatch is one hit of a title similarity search.
type TitleMatch struct {
	MemeID string
	Score  float32
}

// TitleIndex keeps one embedding per meme title in a Qdrant collection.
type TitleIndex struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	dimension   int
}

func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", apiKey)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// NewTitleIndex dials Qdrant. The connection is lazy; nothing is sent until first use.
// Parameters:
//   - cfg: connection settings; local instances run without TLS.
//
// Returns:
//   - *TitleIndex: index bound to cfg.Collection.
//   - error: non-nil if the client cannot be constructed.
func NewTitleIndex(cfg *TitleIndexConfig) (*TitleIndex, error) {
	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = defaultTitleDimension
	}

	var opts []grpc.DialOption
	if cfg.UseTLS || cfg.APIKey != "" {
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS13})))
		if cfg.APIKey != "" {
			opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
		}
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &TitleIndex{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  cfg.Collection,
		dimension:   dimension,
	}, nil
}

// Close closes the gRPC connection.
func (r *TitleIndex) Close() error {
	return r.conn.Close()
}

// EnsureCollection creates the collection on first use and checks its vector size otherwise.
func (r *TitleIndex) EnsureCollection(ctx context.Context) error {
	info, err := r.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: r.collection})
	if err == nil {
		size := info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if size > 0 && size != uint64(r.dimension) {
			return fmt.Errorf("collection %s has vector size %d, expected %d", r.collection, size, r.dimension)
		}
		return nil
	}

	_, err = r.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(r.dimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// Upsert stores the title vector of one meme under the meme's UUID.
func (r *TitleIndex) Upsert(ctx context.Context, vector []float32, payload TitlePayload) error {
	id, err := pointID(payload.MemeID)
	if err != nil {
		return err
	}

	_, err = r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points: []*pb.PointStruct{{
			Id: id,
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vector}},
			},
			Payload: map[string]*pb.Value{
				"meme_id":  {Kind: &pb.Value_StringValue{StringValue: payload.MemeID}},
				"name":     {Kind: &pb.Value_StringValue{StringValue: payload.Name}},
				"category": {Kind: &pb.Value_StringValue{StringValue: payload.Category}},
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

// Search returns the closest titles to vector scoring at least minScore.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - vector: query embedding.
//   - topK: maximum number of hits.
//   - minScore: cosine similarity threshold, zero disables it.
//
// Returns:
//   - []TitleMatch: hits ordered by descending score.
//   - error: non-nil if the search call fails.
func (r *TitleIndex) Search(ctx context.Context, vector []float32, topK int, minScore float32) ([]TitleMatch, error) {
	req := &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         vector,
		Limit:          uint64(topK),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	}
	if minScore > 0 {
		req.ScoreThreshold = &minScore
	}

	resp, err := r.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	matches := make([]TitleMatch, 0, len(resp.GetResult()))
	for _, scored := range resp.GetResult() {
		memeID := scored.GetPayload()["meme_id"].GetStringValue()
		if memeID == "" {
			memeID = scored.GetId().GetUuid()
		}
		matches = append(matches, TitleMatch{MemeID: memeID, Score: scored.GetScore()})
	}
	return matches, nil
}

// Delete removes the title vector of a meme.
func (r *TitleIndex) Delete(ctx context.Context, memeID string) error {
	id, err := pointID(memeID)
	if err != nil {
		return err
	}

	_, err = r.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{Ids: []*pb.PointId{id}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete point: %w", err)
	}
	return nil
}

func pointID(memeID string) (*pb.PointId, error) {
	uid, err := uuid.Parse(memeID)
	if err != nil {
		return nil, fmt.Errorf("invalid point ID: %w", err)
	}
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: uid.String()}}, nil
}
