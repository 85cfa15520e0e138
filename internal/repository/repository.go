// Package repository types the content-repository procedures used by the
// bootstrap tools.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/elephant-bootstrap/internal/twirp"
	"github.com/tidwall/gjson"
	"github.com/ttab/newsdoc"
)

// Procedure names relative to the repository service package.
const (
	ProcListActive = "Schemas/ListActive"
	ProcRegister   = "Schemas/Register"
	ProcUpdate     = "Documents/Update"
)

// Token scopes required by the write procedures.
const (
	ScopeSchemaAdmin = "schema_admin"
	ScopeDocRead     = "doc_read"
	ScopeDocWrite    = "doc_write"
)

// IfMatchAbsent makes a document write conditional on the document not
// existing yet.
const IfMatchAbsent = "0"

// ErrMissingVersion is returned when a write answer carries no version.
var ErrMissingVersion = errors.New("response has no version")

// Schema is a schema as registered in the repository. Spec holds the schema
// definition text.
type Schema struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Spec    string `json:"spec,omitempty"`
}

// RegisterSchemaRequest registers, and optionally activates, a schema.
type RegisterSchemaRequest struct {
	Schema   Schema `json:"schema"`
	Activate bool   `json:"activate"`
}

// StatusUpdate sets a named status on the written version.
type StatusUpdate struct {
	Name string `json:"name"`
}

// ACLEntry grants permissions to a principal URI.
type ACLEntry struct {
	URI         string   `json:"uri"`
	Permissions []string `json:"permissions"`
}

// UpdateRequest writes a document version.
type UpdateRequest struct {
	Document newsdoc.Document `json:"document"`
	UUID     string           `json:"uuid"`
	Status   []StatusUpdate   `json:"status,omitempty"`
	IfMatch  string           `json:"ifMatch"`
	ACL      []ACLEntry       `json:"acl,omitempty"`
}

// UpdateResponse is the answer to a successful write.
type UpdateResponse struct {
	Version string
}

// Schemas wraps the schema registry procedures.
type Schemas struct {
	caller twirp.Caller
}

// NewSchemas returns a Schemas bound to caller.
func NewSchemas(caller twirp.Caller) Schemas {
	return Schemas{caller: caller}
}

// ListActive returns the active schemas. The listing is public, so no token
// is sent.
func (s Schemas) ListActive(ctx context.Context) ([]Schema, error) {
	result, err := s.caller.Call(ctx, ProcListActive, struct{}{}, "")
	if err != nil {
		return nil, err
	}
	entries := result.Get("schemas")
	if entries.Exists() && !entries.IsArray() {
		return nil, fmt.Errorf("%s: schemas is not a list", ProcListActive)
	}
	var out []Schema
	for _, entry := range entries.Array() {
		name := entry.Get("name").String()
		if name == "" {
			continue
		}
		out = append(out, Schema{
			Name:    name,
			Version: entry.Get("version").String(),
		})
	}
	return out, nil
}

// Register registers req with the bearer token.
func (s Schemas) Register(ctx context.Context, token string, req RegisterSchemaRequest) error {
	_, err := s.caller.Call(ctx, ProcRegister, req, token)
	return err
}

// Documents wraps the document write procedure.
type Documents struct {
	caller twirp.Caller
}

// NewDocuments returns a Documents bound to caller.
func NewDocuments(caller twirp.Caller) Documents {
	return Documents{caller: caller}
}

// Update submits req. A 2xx answer whose version is absent, null, empty or
// zero is reported as ErrMissingVersion.
func (d Documents) Update(ctx context.Context, token string, req UpdateRequest) (UpdateResponse, error) {
	result, err := d.caller.Call(ctx, ProcUpdate, req, token)
	if err != nil {
		return UpdateResponse{}, err
	}
	version, ok := writtenVersion(result.Get("version"))
	if !ok {
		return UpdateResponse{}, fmt.Errorf("%s: %w", ProcUpdate, ErrMissingVersion)
	}
	return UpdateResponse{Version: version}, nil
}

func writtenVersion(v gjson.Result) (string, bool) {
	switch v.Type {
	case gjson.String, gjson.Number:
		s := v.String()
		return s, s != "" && s != IfMatchAbsent
	default:
		return "", false
	}
}
