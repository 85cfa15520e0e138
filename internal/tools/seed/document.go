package seed

import (
	"fmt"

	"github.com/louisbranch/elephant-bootstrap/internal/repository"
	"github.com/ttab/newsdoc"
)

// ParentRel is the link relation from a seed document to its parent.
const ParentRel = "parent"

// ParentRef points at an already created document.
type ParentRef struct {
	UUID string
	Type string
}

// DocumentURI returns "{scheme}://{kind}/{uuid}" for a type "scheme/kind".
func DocumentURI(typ, id string) string {
	scheme, kind, err := SplitType(typ)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s://%s/%s", scheme, kind, id)
}

// BuildDocument renders entry as a document with the given id.
func BuildDocument(entry Entry, id string, parent *ParentRef) newsdoc.Document {
	doc := newsdoc.Document{
		UUID:     id,
		Type:     entry.Type,
		URI:      DocumentURI(entry.Type, id),
		URL:      "",
		Title:    entry.Title,
		Language: entry.Language,
		Meta: []newsdoc.Block{{
			Type: entry.Type,
			Data: newsdoc.DataMap{"code": entry.Code},
		}},
		Content: []newsdoc.Block{},
		Links:   []newsdoc.Block{},
	}
	if parent != nil {
		doc.Links = append(doc.Links, newsdoc.Block{
			Rel:  ParentRel,
			Type: parent.Type,
			UUID: parent.UUID,
			URI:  DocumentURI(parent.Type, parent.UUID),
		})
	}
	return doc
}

// WriteOptions are the write settings applied to every seed document.
type WriteOptions struct {
	Statuses       []string
	ACLUnit        string
	ACLPermissions []string
}

// BuildUpdate wraps doc in a create-only write request.
func BuildUpdate(doc newsdoc.Document, opts WriteOptions) repository.UpdateRequest {
	req := repository.UpdateRequest{
		Document: doc,
		UUID:     doc.UUID,
		IfMatch:  repository.IfMatchAbsent,
	}
	for _, name := range opts.Statuses {
		req.Status = append(req.Status, repository.StatusUpdate{Name: name})
	}
	if opts.ACLUnit != "" {
		req.ACL = []repository.ACLEntry{{
			URI:         opts.ACLUnit,
			Permissions: append([]string(nil), opts.ACLPermissions...),
		}}
	}
	return req
}
