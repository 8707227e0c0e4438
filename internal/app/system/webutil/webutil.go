// internal/app/system/webutil/webutil.go
//
// Package webutil holds the small JSON request/response helpers shared
// by the API feature handlers.
package webutil

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/taskboard/internal/app/system/apperr"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Decode reads the request body into dst, rejecting unknown fields so
// typos surface as validation errors instead of silently dropped input.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation("malformed request body", map[string]string{"body": err.Error()})
	}
	return nil
}

// Respond writes v as JSON with the given status code.
func Respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// IDParam reads a chi URL parameter as a Mongo ObjectID.
func IDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("invalid id", map[string]string{name: "must be a valid object id"})
	}
	return id, nil
}
