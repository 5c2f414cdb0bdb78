package repositories

import (
	"context"
	"time"

	"github.com/prashant564/Courses24-API/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReviewRepository struct {
	collection *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{collection: db.Collection(ReviewsCollection)}
}

// Create inserts a review. A second review by the same user for the same
// bootcamp fails with ErrDuplicateKey.
func (r *ReviewRepository) Create(ctx context.Context, rev *models.Review) error {
	if rev.ID.IsZero() {
		rev.ID = primitive.NewObjectID()
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now().UTC()
	}
	_, err := r.collection.InsertOne(ctx, rev)
	return mapError(err)
}

func (r *ReviewRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	q := ListQuery{Filter: bson.M{"_id": id}, Sort: bson.D{{Key: "_id", Value: 1}}, Page: 1, Limit: 1}
	reviews, _, err := FindPage[models.Review](ctx, r.collection, q, BootcampSummaryLookup)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, ErrNotFound
	}
	return &reviews[0], nil
}

func (r *ReviewRepository) List(ctx context.Context, q ListQuery) ([]models.Review, int64, error) {
	return FindPage[models.Review](ctx, r.collection, q, BootcampSummaryLookup)
}

func (r *ReviewRepository) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*models.Review, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rev models.Review
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&rev); err != nil {
		return nil, mapError(err)
	}
	return &rev, nil
}

// Delete removes exactly the review with the given id.
func (r *ReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReviewRepository) DeleteByBootcamp(ctx context.Context, bootcampID primitive.ObjectID) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"bootcamp": bootcampID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *ReviewRepository) AverageRating(ctx context.Context, bootcampID primitive.ObjectID) (*float64, error) {
	return average(ctx, r.collection, bootcampID, "rating")
}
