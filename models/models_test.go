package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "devworks-bootcamp", Slugify("Devworks Bootcamp"))
	assert.Equal(t, "modern-tech", Slugify("  Modern Tech  "))
	assert.Equal(t, "codemasters-cafe", Slugify("Codemasters Café!"))
	assert.Equal(t, "ui-ux-academy", Slugify("UI/UX -- Academy"))
}

func TestBootcampRef_DecodesIDAndPopulatedDocument(t *testing.T) {
	id := primitive.NewObjectID()

	raw, err := bson.Marshal(bson.M{"title": "Front End", "bootcamp": id})
	require.NoError(t, err)
	var plain Course
	require.NoError(t, bson.Unmarshal(raw, &plain))
	assert.Equal(t, id, plain.Bootcamp.ID)
	assert.False(t, plain.Bootcamp.Populated())

	raw, err = bson.Marshal(bson.M{"title": "Front End", "bootcamp": bson.M{"_id": id, "name": "Devworks", "description": "desc"}})
	require.NoError(t, err)
	var populated Course
	require.NoError(t, bson.Unmarshal(raw, &populated))
	assert.True(t, populated.Bootcamp.Populated())
	assert.Equal(t, "Devworks", populated.Bootcamp.Name)

	out, err := json.Marshal(populated.Bootcamp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+id.Hex()+`","name":"Devworks","description":"desc"}`, string(out))

	out, err = json.Marshal(plain.Bootcamp)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.Hex()+`"`, string(out))
}

func TestBootcampRef_StoresPlainObjectID(t *testing.T) {
	id := primitive.NewObjectID()
	c := Course{Title: "x", Bootcamp: BootcampRef{ID: id, Name: "ignored", populated: true}}

	raw, err := bson.Marshal(c)
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, id, doc["bootcamp"])
}

func TestUserJSONHidesSecrets(t *testing.T) {
	u := User{Name: "John", Email: "john@gmail.com", Role: RoleUser, Password: "hash", ResetPasswordToken: "tok"}
	out, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hash")
	assert.NotContains(t, string(out), "tok")
	assert.True(t, IsValidRole("publisher"))
	assert.False(t, IsValidRole("root"))
}

func TestBootcampJSONOmitsAddress(t *testing.T) {
	var in Bootcamp
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Devworks","address":"233 Bay State Rd Boston MA 02215"}`), &in))
	assert.Equal(t, "233 Bay State Rd Boston MA 02215", in.Address)

	out, err := json.Marshal([]Bootcamp{in})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "address")
	assert.Contains(t, string(out), `"name":"Devworks"`)
	assert.Equal(t, "233 Bay State Rd Boston MA 02215", in.Address)
}
