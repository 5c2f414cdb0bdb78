package services

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/prashant564/Courses24-API/apperr"
	"github.com/prashant564/Courses24-API/logging"
	"github.com/prashant564/Courses24-API/models"
	"github.com/prashant564/Courses24-API/repositories"
	"github.com/prashant564/Courses24-API/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EarthRadiusMiles converts a distance in miles to radians for
// $centerSphere queries.
const EarthRadiusMiles = 3963.2

type BootcampUpdate struct {
	Name          *string   `json:"name"`
	Description   *string   `json:"description"`
	Website       *string   `json:"website"`
	Phone         *string   `json:"phone"`
	Email         *string   `json:"email"`
	Address       *string   `json:"address"`
	Careers       *[]string `json:"careers"`
	Housing       *bool     `json:"housing"`
	JobAssistance *bool     `json:"jobAssistance"`
	JobGuarantee  *bool     `json:"jobGuarantee"`
	AcceptGi      *bool     `json:"acceptGi"`
}

type BootcampService struct {
	bootcamps BootcampStore
	courses   CourseStore
	reviews   ReviewStore
	geocoder  Geocoder
	validator *utils.Validator
}

func NewBootcampService(bootcamps BootcampStore, courses CourseStore, reviews ReviewStore, geocoder Geocoder, validator *utils.Validator) *BootcampService {
	return &BootcampService{
		bootcamps: bootcamps,
		courses:   courses,
		reviews:   reviews,
		geocoder:  geocoder,
		validator: validator,
	}
}

func (s *BootcampService) List(ctx context.Context, q repositories.ListQuery) (*models.Results, error) {
	items, total, err := s.bootcamps.List(ctx, q)
	if err != nil {
		return nil, listError(err)
	}
	return listResults(items, total, q), nil
}

func (s *BootcampService) Get(ctx context.Context, id primitive.ObjectID) (*models.Bootcamp, error) {
	b, err := s.bootcamps.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Bootcamp", id)
	}
	return b, nil
}

// Create stores a new bootcamp owned by the requester. Publishers may own
// a single bootcamp; admins are not limited.
func (s *BootcampService) Create(ctx context.Context, ident models.Identity, in models.Bootcamp) (*models.Bootcamp, error) {
	if ident.Role != models.RoleAdmin {
		count, err := s.bootcamps.CountByUser(ctx, ident.UserID)
		if err != nil {
			return nil, apperr.Internal("counting bootcamps failed", err)
		}
		if count > 0 {
			return nil, apperr.BadRequest("The user with ID %s has already published a bootcamp", ident.UserID.Hex())
		}
	}

	b := in
	b.ID = primitive.NilObjectID
	b.CreatedAt = time.Time{}
	b.User = ident.UserID
	b.Slug = models.Slugify(b.Name)
	b.Phone = utils.NormalizePhone(b.Phone)
	b.Photo = models.DefaultPhoto
	b.AverageCost = 0
	b.AverageRating = 0
	b.Courses = nil

	if err := s.validator.Struct(b); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	loc, err := s.locate(ctx, b.Address)
	if err != nil {
		return nil, err
	}
	b.Location = loc

	if err := s.bootcamps.Create(ctx, &b); err != nil {
		return nil, storeError(err, "Bootcamp", b.ID)
	}
	logging.Logger.Infof("Event ID: BOOTCAMP_CREATED, Description: Bootcamp '%s' created by user %s", b.ID.Hex(), ident.UserID.Hex())
	return &b, nil
}

func (s *BootcampService) Update(ctx context.Context, ident models.Identity, id primitive.ObjectID, upd BootcampUpdate) (*models.Bootcamp, error) {
	current, err := s.bootcamps.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Bootcamp", id)
	}
	if !ident.CanModify(current.User) {
		return nil, apperr.Forbidden("User %s is not authorized to update this bootcamp", ident.UserID.Hex())
	}

	next := *current
	set := bson.M{}
	if upd.Name != nil {
		next.Name = *upd.Name
		next.Slug = models.Slugify(next.Name)
		set["name"], set["slug"] = next.Name, next.Slug
	}
	if upd.Description != nil {
		next.Description = *upd.Description
		set["description"] = next.Description
	}
	if upd.Website != nil {
		next.Website = *upd.Website
		set["website"] = next.Website
	}
	if upd.Phone != nil {
		next.Phone = utils.NormalizePhone(*upd.Phone)
		set["phone"] = next.Phone
	}
	if upd.Email != nil {
		next.Email = *upd.Email
		set["email"] = next.Email
	}
	if upd.Careers != nil {
		next.Careers = *upd.Careers
		set["careers"] = next.Careers
	}
	if upd.Housing != nil {
		set["housing"] = *upd.Housing
	}
	if upd.JobAssistance != nil {
		set["jobAssistance"] = *upd.JobAssistance
	}
	if upd.JobGuarantee != nil {
		set["jobGuarantee"] = *upd.JobGuarantee
	}
	if upd.AcceptGi != nil {
		set["acceptGi"] = *upd.AcceptGi
	}
	if upd.Address != nil {
		next.Address = *upd.Address
	}

	if err := s.validator.Struct(next); err != nil {
		return nil, apperr.Validation("%s", err.Error())
	}

	if upd.Address != nil && *upd.Address != current.Address {
		loc, err := s.locate(ctx, next.Address)
		if err != nil {
			return nil, err
		}
		set["address"], set["location"] = next.Address, loc
	}

	if len(set) == 0 {
		return current, nil
	}
	updated, err := s.bootcamps.Update(ctx, id, set)
	if err != nil {
		return nil, storeError(err, "Bootcamp", id)
	}
	return updated, nil
}

// Delete removes the bootcamp together with its courses and reviews.
func (s *BootcampService) Delete(ctx context.Context, ident models.Identity, id primitive.ObjectID) error {
	b, err := s.bootcamps.FindByID(ctx, id)
	if err != nil {
		return storeError(err, "Bootcamp", id)
	}
	if !ident.CanModify(b.User) {
		return apperr.Forbidden("User %s is not authorized to delete this bootcamp", ident.UserID.Hex())
	}

	courses, err := s.courses.DeleteByBootcamp(ctx, id)
	if err != nil {
		return apperr.Internal("deleting bootcamp courses failed", err)
	}
	reviews, err := s.reviews.DeleteByBootcamp(ctx, id)
	if err != nil {
		return apperr.Internal("deleting bootcamp reviews failed", err)
	}
	if err := s.bootcamps.Delete(ctx, id); err != nil {
		return storeError(err, "Bootcamp", id)
	}

	logging.Logger.Infof("Event ID: BOOTCAMP_DELETED, Description: Bootcamp '%s' deleted with %d courses and %d reviews", id.Hex(), courses, reviews)
	return nil
}

// WithinRadius lists bootcamps within distance miles of a postal code.
func (s *BootcampService) WithinRadius(ctx context.Context, zipcode, distance string) ([]models.Bootcamp, error) {
	miles, err := strconv.ParseFloat(distance, 64)
	if err != nil || miles <= 0 || math.IsInf(miles, 0) {
		return nil, apperr.BadRequest("Distance must be a positive number of miles")
	}

	loc, err := s.locate(ctx, zipcode)
	if err != nil {
		return nil, err
	}
	lng, lat := loc.Coordinates[0], loc.Coordinates[1]

	bootcamps, err := s.bootcamps.WithinRadius(ctx, lng, lat, miles/EarthRadiusMiles)
	if err != nil {
		return nil, apperr.Internal("radius query failed", err)
	}
	return bootcamps, nil
}

func (s *BootcampService) locate(ctx context.Context, address string) (*models.Location, error) {
	loc, err := s.geocoder.Geocode(ctx, address)
	switch {
	case err == nil:
		return loc, nil
	case errors.Is(err, ErrNoGeocodeResult):
		return nil, apperr.BadRequest("Could not locate %s", address)
	default:
		logging.Logger.Errorf("Event ID: GEOCODE_FAILED, Description: Geocoding '%s' failed: %v", address, err)
		return nil, apperr.Wrap(apperr.KindUpstream, "Geocoding service unavailable", err)
	}
}

// refreshAverage recomputes a derived bootcamp average; failures are logged
// since the triggering write already succeeded.
func refreshAverage(ctx context.Context, bootcamps BootcampStore, bootcampID primitive.ObjectID, field string, compute func(context.Context, primitive.ObjectID) (*float64, error), round func(float64) float64) {
	avg, err := compute(ctx, bootcampID)
	if err == nil && avg != nil && round != nil {
		v := round(*avg)
		avg = &v
	}
	if err == nil {
		err = bootcamps.SetAverage(ctx, bootcampID, field, avg)
	}
	if err != nil {
		logging.Logger.Errorf("Event ID: BOOTCAMP_AVERAGE_FAILED, Description: Updating %s of bootcamp %s failed: %v", field, bootcampID.Hex(), err)
	}
}

// roundCost rounds an average tuition up to the nearest ten.
func roundCost(avg float64) float64 {
	return math.Ceil(avg/10) * 10
}
