package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/navayuwa/nes-core/internal/domain/entities"
	"github.com/navayuwa/nes-core/internal/domain/services"
)

// entityListBody is the response shape of a filtered entity listing.
type entityListBody struct {
	Entities []*entities.Entity `json:"entities"`
	Total    int                `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// relationshipListBody is the response shape of a relationship listing.
type relationshipListBody struct {
	Relationships []*entities.Relationship `json:"relationships"`
	Total         int                      `json:"total"`
}

// versionListBody is the response shape of a version history listing.
type versionListBody struct {
	Versions []*entities.Version `json:"versions"`
	Total    int                 `json:"total"`
}

var filterParams = []string{"query", "entity_type", "sub_type", "tags", "attributes", "limit", "offset"}

// handleEntities answers GET /api/entities. The request either names
// identifiers (batch lookup) or filter parameters (search); mixing the
// two modes is rejected.
func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ids := splitList(query["ids"])

	if query.Has("ids") && len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_query", "ids must name at least one identifier")
		return
	}
	if len(ids) > 0 {
		for _, p := range filterParams {
			if query.Has(p) {
				writeError(w, http.StatusBadRequest, "mixed_query",
					"ids cannot be combined with filter parameters")
				return
			}
		}
		result, err := s.search.EntitiesBatch(r.Context(), ids)
		if err != nil {
			writeDomainError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	q, err := entityQueryFromParams(query)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}

	found, err := s.search.SearchEntities(r.Context(), q)
	if err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	if found == nil {
		found = []*entities.Entity{}
	}
	writeJSON(w, http.StatusOK, entityListBody{
		Entities: found,
		Total:    len(found),
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
}

// handleEntity answers GET /api/entities/{id}, plus the /versions and
// /relationships sub-resources of one entity.
func (s *Server) handleEntity(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if rest, ok := strings.CutSuffix(id, "/versions"); ok {
		s.respondVersions(w, r, "entity:"+rest)
		return
	}
	if rest, ok := strings.CutSuffix(id, "/relationships"); ok {
		s.respondEntityRelationships(w, r, "entity:"+rest)
		return
	}

	entity, err := s.search.GetEntity(r.Context(), "entity:"+id)
	if err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entity)
}

func (s *Server) respondVersions(w http.ResponseWriter, r *http.Request, ownerID string) {
	versions, err := s.search.Versions(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	if versions == nil {
		versions = []*entities.Version{}
	}
	writeJSON(w, http.StatusOK, versionListBody{Versions: versions, Total: len(versions)})
}

func (s *Server) respondEntityRelationships(w http.ResponseWriter, r *http.Request, entityID string) {
	q, err := relationshipQueryFromParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	q.EntityID = entityID

	found, err := s.search.SearchRelationships(r.Context(), q)
	if err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	if found == nil {
		found = []*entities.Relationship{}
	}
	writeJSON(w, http.StatusOK, relationshipListBody{Relationships: found, Total: len(found)})
}

// handleRelationships answers GET /api/relationships.
func (s *Server) handleRelationships(w http.ResponseWriter, r *http.Request) {
	q, err := relationshipQueryFromParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
		return
	}
	q.EntityID = r.URL.Query().Get("entity_id")

	found, err := s.search.SearchRelationships(r.Context(), q)
	if err != nil {
		writeDomainError(w, s.log, err)
		return
	}
	if found == nil {
		found = []*entities.Relationship{}
	}
	writeJSON(w, http.StatusOK, relationshipListBody{Relationships: found, Total: len(found)})
}

// splitList accepts both repeated params and comma-separated lists.
func splitList(raw []string) []string {
	var items []string
	for _, chunk := range raw {
		for _, item := range strings.Split(chunk, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				items = append(items, item)
			}
		}
	}
	return items
}

func entityQueryFromParams(query url.Values) (services.EntityQuery, error) {
	q := services.EntityQuery{
		NameQuery: strings.TrimSpace(query.Get("query")),
		Type:      entities.EntityType(query.Get("entity_type")),
		SubType:   query.Get("sub_type"),
		Tags:      splitList(query["tags"]),
	}

	if q.Type != "" && !entities.IsValidEntityType(q.Type) {
		return q, fmt.Errorf("unknown entity type %q", q.Type)
	}
	if q.SubType != "" && q.Type == "" {
		return q, errors.New("sub_type requires type")
	}
	if q.SubType != "" && !entities.IsValidSubType(q.Type, q.SubType) {
		return q, fmt.Errorf("sub_type %q is not allowed for type %q", q.SubType, q.Type)
	}

	if raw := query.Get("attributes"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &q.Attributes); err != nil {
			return q, fmt.Errorf("attributes must be a JSON object of strings: %v", err)
		}
	}

	var err error
	if q.Limit, err = intParam(query, "limit"); err != nil {
		return q, err
	}
	if q.Offset, err = intParam(query, "offset"); err != nil {
		return q, err
	}
	return q, nil
}

func relationshipQueryFromParams(query url.Values) (services.RelationshipQuery, error) {
	q := services.RelationshipQuery{
		SourceEntityID: query.Get("source_entity_id"),
		TargetEntityID: query.Get("target_entity_id"),
		Type:           entities.RelationshipType(query.Get("relationship_type")),
	}

	if raw := query.Get("active_on"); raw != "" {
		d, err := entities.ParseDate(raw)
		if err != nil {
			return q, fmt.Errorf("active_on must be YYYY-MM-DD: %v", err)
		}
		q.ActiveOn = &d
	}
	if raw := query.Get("currently_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("currently_active must be a boolean: %v", err)
		}
		q.CurrentlyActive = active
	}

	var err error
	if q.Limit, err = intParam(query, "limit"); err != nil {
		return q, err
	}
	if q.Offset, err = intParam(query, "offset"); err != nil {
		return q, err
	}
	return q, nil
}

func intParam(query url.Values, name string) (int, error) {
	raw := query.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}
