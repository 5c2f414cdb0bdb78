package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Lookup describes a related collection to populate into each listed
// document.
type Lookup struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
	// Fields limits the populated document to these fields; empty keeps all.
	Fields []string
	// Single unwinds the joined array into one embedded document.
	Single bool
}

func (l Lookup) stages() []bson.D {
	inner := bson.A{
		bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{
			{Key: "$eq", Value: bson.A{"$" + l.ForeignField, "$$ref"}},
		}}}}},
	}
	if len(l.Fields) > 0 {
		proj := bson.D{}
		for _, f := range l.Fields {
			proj = append(proj, bson.E{Key: f, Value: 1})
		}
		inner = append(inner, bson.D{{Key: "$project", Value: proj}})
	}

	stages := []bson.D{{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: l.From},
		{Key: "let", Value: bson.D{{Key: "ref", Value: "$" + l.LocalField}}},
		{Key: "pipeline", Value: inner},
		{Key: "as", Value: l.As},
	}}}}
	if l.Single {
		stages = append(stages, bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + l.As},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}})
	}
	return stages
}

// BuildPipeline assembles the aggregation for one page of q, populating
// the given lookups after the page window is applied.
func BuildPipeline(q ListQuery, lookups ...Lookup) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: q.Filter}},
		{{Key: "$sort", Value: q.Sort}},
		{{Key: "$skip", Value: q.Skip()}},
		{{Key: "$limit", Value: int64(q.Limit)}},
	}
	for _, l := range lookups {
		pipeline = append(pipeline, l.stages()...)
	}
	if len(q.Projection) > 0 {
		proj := bson.M{}
		for k, v := range q.Projection {
			proj[k] = v
		}
		for _, l := range lookups {
			proj[l.As] = 1
		}
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: proj}})
	}
	return pipeline
}

// FindPage runs q against coll and decodes one page into T. The returned
// total counts every document matching the filter.
func FindPage[T any](ctx context.Context, coll *mongo.Collection, q ListQuery, lookups ...Lookup) ([]T, int64, error) {
	total, err := coll.CountDocuments(ctx, q.Filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", coll.Name(), err)
	}

	cursor, err := coll.Aggregate(ctx, BuildPipeline(q, lookups...))
	if err != nil {
		return nil, 0, fmt.Errorf("aggregate %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	items := make([]T, 0, q.Limit)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return items, total, nil
}
