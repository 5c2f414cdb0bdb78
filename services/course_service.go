package services

import (
	"context"
	"time"

	"github.com/prashant564/Courses24-API/apperr"
	"github.com/prashant564/Courses24-API/models"
	"github.com/prashant564/Courses24-API/repositories"
	"github.com/prashant564/Courses24-API/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CourseUpdate struct {
	Title                *string  `json:"title"`
	Description          *string  `json:"description"`
	Weeks                *string  `json:"weeks"`
	Tuition              *float64 `json:"tuition"`
	MinimumSkill         *string  `json:"minimumSkill"`
	ScholarshipAvailable *bool    `json:"scholarshipAvailable"`
}

type CourseService struct {
	courses   CourseStore
	bootcamps BootcampStore
	validator *utils.Validator
}

func NewCourseService(courses CourseStore, bootcamps BootcampStore, validator *utils.Validator) *CourseService {
	return &CourseService{courses: courses, bootcamps: bootcamps, validator: validator}
}

// List returns courses matching q, limited to one bootcamp when bootcampID
// is set.
func (s *CourseService) List(ctx context.Context, bootcampID *primitive.ObjectID, q repositories.ListQuery) (*models.Results, error) {
	if bootcampID != nil {
		q = q.With("bootcamp", *bootcampID)
	}
	items, total, err := s.courses.List(ctx, q)
	if err != nil {
		return nil, listError(err)
	}
	return listResults(items, total, q), nil
}

func (s *CourseService) Get(ctx context.Context, id primitive.ObjectID) (*models.Course, error) {
	c, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Course", id)
	}
	return c, nil
}

func (s *CourseService) Create(ctx context.Context, ident models.Identity, bootcampID primitive.ObjectID, in models.Course) (*models.Course, error) {
	b, err := s.bootcamps.FindByID(ctx, bootcampID)
	if err != nil {
		return nil, storeError(err, "Bootcamp", bootcampID)
	}
	if !ident.CanModify(b.User) {
		return nil, apperr.Forbidden("User %s is not authorized to add a course to bootcamp %s", ident.UserID.Hex(), b.ID.Hex())
	}

	c := in
	c.ID = primitive.NilObjectID
	c.CreatedAt = time.Time{}
	c.Bootcamp = models.NewBootcampRef(bootcampID)
	c.User = ident.UserID
	if err := s.validator.Struct(c); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	if err := s.courses.Create(ctx, &c); err != nil {
		return nil, storeError(err, "Course", c.ID)
	}
	s.refreshCost(ctx, bootcampID)
	return &c, nil
}

func (s *CourseService) Update(ctx context.Context, ident models.Identity, id primitive.ObjectID, upd CourseUpdate) (*models.Course, error) {
	current, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Course", id)
	}
	if !ident.CanModify(current.User) {
		return nil, apperr.Forbidden("User %s is not authorized to update course %s", ident.UserID.Hex(), id.Hex())
	}

	next := *current
	set := bson.M{}
	if upd.Title != nil {
		next.Title = *upd.Title
		set["title"] = next.Title
	}
	if upd.Description != nil {
		next.Description = *upd.Description
		set["description"] = next.Description
	}
	if upd.Weeks != nil {
		next.Weeks = *upd.Weeks
		set["weeks"] = next.Weeks
	}
	if upd.Tuition != nil {
		next.Tuition = *upd.Tuition
		set["tuition"] = next.Tuition
	}
	if upd.MinimumSkill != nil {
		next.MinimumSkill = *upd.MinimumSkill
		set["minimumSkill"] = next.MinimumSkill
	}
	if upd.ScholarshipAvailable != nil {
		set["scholarshipAvailable"] = *upd.ScholarshipAvailable
	}
	if err := s.validator.Struct(next); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}
	if len(set) == 0 {
		return current, nil
	}

	updated, err := s.courses.Update(ctx, id, set)
	if err != nil {
		return nil, storeError(err, "Course", id)
	}
	if upd.Tuition != nil {
		s.refreshCost(ctx, current.Bootcamp.ID)
	}
	return updated, nil
}

func (s *CourseService) Delete(ctx context.Context, ident models.Identity, id primitive.ObjectID) error {
	c, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "Course", id)
	}
	if !ident.CanModify(c.User) {
		return apperr.Forbidden("User %s is not authorized to delete course %s", ident.UserID.Hex(), id.Hex())
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		return storeError(err, "Course", id)
	}
	s.refreshCost(ctx, c.Bootcamp.ID)
	return nil
}

func (s *CourseService) refreshCost(ctx context.Context, bootcampID primitive.ObjectID) {
	refreshAverage(ctx, s.bootcamps, bootcampID, "averageCost", s.courses.AverageTuition, roundCost)
}
