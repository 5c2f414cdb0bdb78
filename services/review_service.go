package services

import (
	"context"
	"errors"
	"time"

	"github.com/prashant564/Courses24-API/apperr"
	"github.com/prashant564/Courses24-API/logging"
	"github.com/prashant564/Courses24-API/models"
	"github.com/prashant564/Courses24-API/repositories"
	"github.com/prashant564/Courses24-API/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReviewUpdate struct {
	Title  *string `json:"title"`
	Text   *string `json:"text"`
	Rating *int    `json:"rating"`
}

type ReviewService struct {
	reviews   ReviewStore
	bootcamps BootcampStore
	validator *utils.Validator
}

func NewReviewService(reviews ReviewStore, bootcamps BootcampStore, validator *utils.Validator) *ReviewService {
	return &ReviewService{reviews: reviews, bootcamps: bootcamps, validator: validator}
}

func (s *ReviewService) List(ctx context.Context, bootcampID *primitive.ObjectID, q repositories.ListQuery) (*models.Results, error) {
	if bootcampID != nil {
		q = q.With("bootcamp", *bootcampID)
	}
	items, total, err := s.reviews.List(ctx, q)
	if err != nil {
		return nil, listError(err)
	}
	return listResults(items, total, q), nil
}

func (s *ReviewService) Get(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	r, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Review", id)
	}
	return r, nil
}

// Create adds the requester's review of a bootcamp. Each user can review a
// bootcamp once.
func (s *ReviewService) Create(ctx context.Context, ident models.Identity, bootcampID primitive.ObjectID, in models.Review) (*models.Review, error) {
	if _, err := s.bootcamps.FindByID(ctx, bootcampID); err != nil {
		return nil, storeError(err, "Bootcamp", bootcampID)
	}

	r := in
	r.ID = primitive.NilObjectID
	r.CreatedAt = time.Time{}
	r.Bootcamp = models.NewBootcampRef(bootcampID)
	r.User = ident.UserID
	if err := s.validator.Struct(r); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	if err := s.reviews.Create(ctx, &r); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, apperr.Wrap(apperr.KindConflict, "You have already reviewed this bootcamp", err)
		}
		return nil, storeError(err, "Review", r.ID)
	}
	logging.Logger.Infof("Event ID: REVIEW_CREATED, Description: User %s reviewed bootcamp %s", ident.UserID.Hex(), bootcampID.Hex())
	s.refreshRating(ctx, bootcampID)
	return &r, nil
}

func (s *ReviewService) Update(ctx context.Context, ident models.Identity, id primitive.ObjectID, upd ReviewUpdate) (*models.Review, error) {
	current, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Review", id)
	}
	if !ident.CanModify(current.User) {
		return nil, apperr.Forbidden("Not authorized to update review")
	}

	next := *current
	set := bson.M{}
	if upd.Title != nil {
		next.Title = *upd.Title
		set["title"] = next.Title
	}
	if upd.Text != nil {
		next.Text = *upd.Text
		set["text"] = next.Text
	}
	if upd.Rating != nil {
		next.Rating = *upd.Rating
		set["rating"] = next.Rating
	}
	if err := s.validator.Struct(next); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if len(set) == 0 {
		return current, nil
	}

	updated, err := s.reviews.Update(ctx, id, set)
	if err != nil {
		return nil, storeError(err, "Review", id)
	}
	if upd.Rating != nil {
		s.refreshRating(ctx, current.Bootcamp.ID)
	}
	return updated, nil
}

func (s *ReviewService) Delete(ctx context.Context, ident models.Identity, id primitive.ObjectID) error {
	r, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "Review", id)
	}
	if !ident.CanModify(r.User) {
		return apperr.Forbidden("Not authorized to delete review")
	}
	if err := s.reviews.Delete(ctx, r.ID); err != nil {
		return storeError(err, "Review", id)
	}
	s.refreshRating(ctx, r.Bootcamp.ID)
	return nil
}

func (s *ReviewService) refreshRating(ctx context.Context, bootcampID primitive.ObjectID) {
	refreshAverage(ctx, s.bootcamps, bootcampID, "averageRating", s.reviews.AverageRating, nil)
}
