package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	model "github.com/arnavb7/CompliFlow/models"
)

const obligationIndex = "obligations"

// indexObligation mirrors an obligation into Elasticsearch so it turns up in
// full-text search. Indexing problems are logged and swallowed; the store is
// the source of truth and a write must never fail because search is down.
func (s *ObligationService) indexObligation(obligation *model.Obligation) {
	if s.esClient == nil {
		return
	}

	doc := map[string]interface{}{
		"name":        obligation.Name,
		"type":        obligation.Type,
		"description": obligation.Description,
		"status":      string(obligation.Status),
		"priority":    obligation.Priority,
		"due_date":    obligation.DueDate,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		log.Printf("[indexObligation] Error marshaling obligation %s: %v", obligation.ID, err)
		return
	}

	res, err := s.esClient.Index(
		obligationIndex,
		bytes.NewReader(body),
		s.esClient.Index.WithDocumentID(obligation.ID),
		s.esClient.Index.WithContext(context.Background()),
	)
	if err != nil {
		log.Printf("[indexObligation] Elasticsearch indexing error for %s: %v", obligation.ID, err)
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Printf("[indexObligation] Elasticsearch indexing failed for %s: %s", obligation.ID, res.String())
	}
}

// SearchObligations runs a full-text query over indexed obligations.
func (s *ObligationService) SearchObligations(query string) ([]map[string]interface{}, error) {
	if s.esClient == nil {
		return nil, fmt.Errorf("elasticsearch client is not initialized")
	}

	searchQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"name", "description", "type"},
			},
		},
	}
	body, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(context.Background()),
		s.esClient.Search.WithIndex(obligationIndex),
		s.esClient.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search failed: %s", res.String())
	}

	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	hitsMap, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid hits structure in search response")
	}
	hitsArray, ok := hitsMap["hits"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid hits array in search response")
	}

	var obligations []map[string]interface{}
	for _, hit := range hitsArray {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}
		if id, ok := hitMap["_id"].(string); ok {
			source["id"] = id
		}
		obligations = append(obligations, source)
	}
	return obligations, nil
}
