package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// RegistryFile is the on-disk form of an entity registry.
//
// Entities may be written either as a list, or in the legacy object form keyed by
// entity code ({"ALP": {"mid": ..., "name": ..., "short_name": ..., "color": ...}}).
// The legacy form is decoded in document order, since entity order is significant.
type RegistryFile struct {
	Geo       string
	Timeframe string
	Entities  []Entity
}

// legacyEntity is one value of the legacy code-keyed object form.
type legacyEntity struct {
	Mid         string `json:"mid" yaml:"mid"`
	ProviderID  string `json:"provider_id" yaml:"provider_id"`
	Name        string `json:"name" yaml:"name"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	ShortName   string `json:"short_name" yaml:"short_name"`
	Color       string `json:"color" yaml:"color"`
}

func (l legacyEntity) entity(code string) Entity {
	e := Entity{
		Code:        code,
		DisplayName: l.DisplayName,
		ShortName:   l.ShortName,
		ProviderID:  l.ProviderID,
		Color:       l.Color,
	}
	if e.DisplayName == "" {
		e.DisplayName = l.Name
	}
	if e.ProviderID == "" {
		e.ProviderID = l.Mid
	}
	if e.ShortName == "" {
		e.ShortName = code
	}
	return e
}

// LoadRegistryFile reads a registry file; ".yaml"/".yml" files are decoded as YAML, anything else as JSON.
func LoadRegistryFile(path string) (*RegistryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file %s: %w", path, err)
	}

	var rf *RegistryFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		rf, err = parseRegistryYAML(data)
	default:
		rf, err = parseRegistryJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse registry file %s: %w", path, err)
	}
	return rf, nil
}

func parseRegistryJSON(data []byte) (*RegistryFile, error) {
	var doc struct {
		Geo       string          `json:"geo"`
		Timeframe string          `json:"timeframe"`
		Entities  json.RawMessage `json:"entities"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	entities, err := decodeEntitiesJSON(doc.Entities)
	if err != nil {
		return nil, err
	}
	return &RegistryFile{Geo: doc.Geo, Timeframe: doc.Timeframe, Entities: entities}, nil
}

func decodeEntitiesJSON(raw json.RawMessage) ([]Entity, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var list []Entity
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("entities list: %w", err)
		}
		return list, nil
	}

	// Walk the object token by token so keys keep document order.
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("entities must be a list or an object")
	}
	var out []Entity
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("entities object: %w", err)
		}
		code, _ := tok.(string)
		var le legacyEntity
		if err := dec.Decode(&le); err != nil {
			return nil, fmt.Errorf("entity %q: %w", code, err)
		}
		out = append(out, le.entity(code))
	}
	return out, nil
}

func parseRegistryYAML(data []byte) (*RegistryFile, error) {
	var doc struct {
		Geo       string    `yaml:"geo"`
		Timeframe string    `yaml:"timeframe"`
		Entities  yaml.Node `yaml:"entities"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	rf := &RegistryFile{Geo: doc.Geo, Timeframe: doc.Timeframe}
	switch doc.Entities.Kind {
	case 0:
		return rf, nil
	case yaml.SequenceNode:
		if err := doc.Entities.Decode(&rf.Entities); err != nil {
			return nil, fmt.Errorf("entities list: %w", err)
		}
	case yaml.MappingNode:
		// Content alternates key, value.
		for i := 0; i+1 < len(doc.Entities.Content); i += 2 {
			code := doc.Entities.Content[i].Value
			var le legacyEntity
			if err := doc.Entities.Content[i+1].Decode(&le); err != nil {
				return nil, fmt.Errorf("entity %q: %w", code, err)
			}
			rf.Entities = append(rf.Entities, le.entity(code))
		}
	default:
		return nil, fmt.Errorf("entities must be a list or a mapping")
	}
	return rf, nil
}
