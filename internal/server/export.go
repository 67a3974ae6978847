package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"gopkg.in/yaml.v3"
)

// configSectionOrder is the order sections appear in exported YAML; other
// keys follow alphabetically.
var configSectionOrder = []string{"economy", "equilibrium", "searches", "logging", "output", "store"}

// handleConfigExport turns an editor's JSON config into YAML with the
// sections in configSectionOrder.
func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleConfigExport"
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.fail(w, op, badRequest("failed to decode configuration: %v", err))
		return
	}

	doc, err := orderedSections(payload)
	if err != nil {
		h.fail(w, op, badRequest("failed to encode configuration: %v", err))
		return
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		h.fail(w, op, badRequest("failed to encode configuration: %v", err))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"configYaml": string(data)})
}

func orderedSections(payload map[string]interface{}) (*yaml.Node, error) {
	keys := make([]string, 0, len(payload))
	rank := make(map[string]int, len(configSectionOrder))
	for i, key := range configSectionOrder {
		rank[key] = i
	}
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iKnown := rank[keys[i]]
		rj, jKnown := rank[keys[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown != jKnown:
			return iKnown
		default:
			return keys[i] < keys[j]
		}
	})

	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range keys {
		value := &yaml.Node{}
		if err := value.Encode(payload[key]); err != nil {
			return nil, fmt.Errorf("section %s: %w", key, err)
		}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			value,
		)
	}
	return doc, nil
}
