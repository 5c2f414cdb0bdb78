package models

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BootcampRef is the bootcamp reference stored on courses and reviews. It is
// persisted as a plain ObjectID. When a query populates it, the decoded
// document's summary fields are kept and serialized as an object.
type BootcampRef struct {
	ID          primitive.ObjectID
	Name        string
	Description string
	populated   bool
}

func NewBootcampRef(id primitive.ObjectID) BootcampRef {
	return BootcampRef{ID: id}
}

func (r BootcampRef) Populated() bool {
	return r.populated
}

func (r BootcampRef) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(r.ID)
}

func (r *BootcampRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bson.TypeObjectID:
		id, ok := bson.RawValue{Type: t, Value: data}.ObjectIDOK()
		if !ok {
			return fmt.Errorf("malformed bootcamp reference")
		}
		*r = BootcampRef{ID: id}
	case bson.TypeEmbeddedDocument:
		var doc struct {
			ID          primitive.ObjectID `bson:"_id"`
			Name        string             `bson:"name"`
			Description string             `bson:"description"`
		}
		if err := bson.Unmarshal(data, &doc); err != nil {
			return err
		}
		*r = BootcampRef{ID: doc.ID, Name: doc.Name, Description: doc.Description, populated: true}
	case bson.TypeNull, bson.TypeUndefined:
		*r = BootcampRef{}
	default:
		return fmt.Errorf("cannot decode %s into a bootcamp reference", t)
	}
	return nil
}

func (r BootcampRef) MarshalJSON() ([]byte, error) {
	if !r.populated {
		return json.Marshal(r.ID)
	}
	return json.Marshal(struct {
		ID          primitive.ObjectID `json:"id"`
		Name        string             `json:"name"`
		Description string             `json:"description"`
	}{r.ID, r.Name, r.Description})
}

// UnmarshalJSON only accepts the id form; populated summaries are never
// accepted from clients.
func (r *BootcampRef) UnmarshalJSON(data []byte) error {
	var id primitive.ObjectID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*r = BootcampRef{ID: id}
	return nil
}
