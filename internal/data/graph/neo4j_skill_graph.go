package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/skillbridge-backend/internal/platform/logger"
	"github.com/yungbote/skillbridge-backend/internal/platform/neo4jdb"
)

// Neo4jStore keeps Module and Skill nodes keyed by module code and canonical skill key.
type Neo4jStore struct {
	client     *neo4jdb.Client
	log        *logger.Logger
	schemaOnce sync.Once
}

func NewNeo4jStore(client *neo4jdb.Client, log *logger.Logger) (*Neo4jStore, error) {
	if client == nil || client.Driver == nil {
		return nil, fmt.Errorf("neo4j skill graph: client required")
	}
	if log == nil {
		return nil, fmt.Errorf("neo4j skill graph: logger required")
	}
	return &Neo4jStore{client: client, log: log.With("store", "Neo4jSkillGraph")}, nil
}

// ensureSchema creates uniqueness constraints (best-effort; may fail for restricted users).
func (s *Neo4jStore) ensureSchema(ctx context.Context) {
	s.schemaOnce.Do(func() {
		session := s.client.WriteSession(ctx)
		defer session.Close(ctx)
		for _, stmt := range []string{
			`CREATE CONSTRAINT module_code_unique IF NOT EXISTS FOR (m:Module) REQUIRE m.code IS UNIQUE`,
			`CREATE CONSTRAINT skill_key_unique IF NOT EXISTS FOR (s:Skill) REQUIRE s.key IS UNIQUE`,
		} {
			res, err := session.Run(ctx, stmt, nil)
			if err != nil {
				s.log.Warn("neo4j schema init failed (continuing)", "error", err)
				continue
			}
			_, _ = res.Consume(ctx)
		}
	})
}

func (s *Neo4jStore) write(ctx context.Context, fn func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	s.ensureSchema(ctx)
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)
	out, err := session.ExecuteWrite(ctx, fn)
	return out, classify(err)
}

func (s *Neo4jStore) read(ctx context.Context, fn func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)
	out, err := session.ExecuteRead(ctx, fn)
	return out, classify(err)
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrMissingEndpoint) {
		return err
	}
	if neo4j.IsConnectivityError(err) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

func (s *Neo4jStore) MergeModule(ctx context.Context, m ModuleNode) (ModuleNode, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	out, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (m:Module {code: $code})
ON CREATE SET m.title = $title, m.source_id = $source_id, m.created_at = $now
RETURN m.code AS code, m.title AS title, coalesce(m.source_id, '') AS source_id
`, map[string]any{"code": m.Code, "title": m.Title, "source_id": m.SourceID, "now": now})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		return ModuleNode{
			Code:     stringValue(rec, "code"),
			Title:    stringValue(rec, "title"),
			SourceID: stringValue(rec, "source_id"),
		}, nil
	})
	if err != nil {
		return ModuleNode{}, err
	}
	return out.(ModuleNode), nil
}

func (s *Neo4jStore) MergeSkill(ctx context.Context, sk SkillNode) (SkillNode, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	out, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (s:Skill {key: $key})
ON CREATE SET s.name = $name, s.category = $category, s.created_at = $now
RETURN s.key AS key, s.name AS name, s.category AS category
`, map[string]any{"key": sk.Key, "name": sk.Name, "category": sk.Category, "now": now})
		if err != nil {
			return nil, err
		}
		rec, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		return skillFromRecord(rec, ""), nil
	})
	if err != nil {
		return SkillNode{}, err
	}
	return out.(SkillNode), nil
}

func (s *Neo4jStore) MergeTeaches(ctx context.Context, e TeachesEdge) error {
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (m:Module {code: $module_code})
MATCH (s:Skill {key: $skill_key})
MERGE (m)-[t:TEACHES]->(s)
SET t.confidence = $confidence
RETURN count(t) AS n
`, map[string]any{"module_code": e.ModuleCode, "skill_key": e.SkillKey, "confidence": e.Confidence})
		if err != nil {
			return nil, err
		}
		recs, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 || intValue(recs[0], "n") == 0 {
			return nil, ErrMissingEndpoint
		}
		return nil, nil
	})
	return err
}

func (s *Neo4jStore) ListTeaches(ctx context.Context) ([]TeachesEdge, error) {
	out, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (m:Module)-[t:TEACHES]->(s:Skill)
RETURN m.code AS module_code, s.key AS skill_key, coalesce(t.confidence, 0.0) AS confidence
ORDER BY module_code, skill_key
`, nil)
		if err != nil {
			return nil, err
		}
		recs, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		edges := make([]TeachesEdge, 0, len(recs))
		for _, rec := range recs {
			edges = append(edges, TeachesEdge{
				ModuleCode: stringValue(rec, "module_code"),
				SkillKey:   stringValue(rec, "skill_key"),
				Confidence: floatValue(rec, "confidence"),
			})
		}
		return edges, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]TeachesEdge), nil
}

// ReplaceCooccurrence runs delete and rewrite in one transaction so readers never see a
// half-built edge set.
func (s *Neo4jStore) ReplaceCooccurrence(ctx context.Context, edges []CooccurrenceEdge) error {
	rows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		a, b := CanonicalPair(e.SourceKey, e.TargetKey)
		rows = append(rows, map[string]any{
			"source":         a,
			"target":         b,
			"strength":       int64(e.Strength),
			"shared_modules": int64(e.SharedModules),
		})
	}
	_, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `MATCH (:Skill)-[r:RELATED_TO]->(:Skill) DELETE r`, nil)
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, nil
		}
		res, err = tx.Run(ctx, `
UNWIND $rows AS r
MATCH (a:Skill {key: r.source})
MATCH (b:Skill {key: r.target})
MERGE (a)-[e:RELATED_TO]->(b)
SET e.strength = r.strength,
    e.shared_modules = r.shared_modules
`, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		_, err = res.Consume(ctx)
		return nil, err
	})
	return err
}

func (s *Neo4jStore) Neighbors(ctx context.Context, keys []string) ([]Neighbor, error) {
	if len(keys) == 0 {
		return []Neighbor{}, nil
	}
	out, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (a:Skill)-[r:RELATED_TO]-(b:Skill)
WHERE a.key IN $keys
RETURN a.key AS from_key, b.key AS neighbor_key, b.name AS neighbor_name,
       b.category AS neighbor_category, r.strength AS strength
ORDER BY from_key, neighbor_key
`, map[string]any{"keys": keys})
		if err != nil {
			return nil, err
		}
		recs, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([]Neighbor, 0, len(recs))
		for _, rec := range recs {
			rows = append(rows, Neighbor{
				FromKey:          stringValue(rec, "from_key"),
				NeighborKey:      stringValue(rec, "neighbor_key"),
				NeighborName:     stringValue(rec, "neighbor_name"),
				NeighborCategory: stringValue(rec, "neighbor_category"),
				Strength:         int(intValue(rec, "strength")),
			})
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]Neighbor), nil
}

func (s *Neo4jStore) GetSkills(ctx context.Context, keys []string) ([]SkillNode, error) {
	if len(keys) == 0 {
		return []SkillNode{}, nil
	}
	out, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (s:Skill) WHERE s.key IN $keys
RETURN s.key AS key, s.name AS name, s.category AS category
`, map[string]any{"keys": keys})
		if err != nil {
			return nil, err
		}
		recs, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		nodes := make([]SkillNode, 0, len(recs))
		for _, rec := range recs {
			nodes = append(nodes, skillFromRecord(rec, ""))
		}
		return nodes, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]SkillNode), nil
}

func (s *Neo4jStore) MergeRelation(ctx context.Context, e RelationEdge) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	out, err := s.write(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (a:Skill {key: $source})
MATCH (b:Skill {key: $target})
OPTIONAL MATCH (a)-[prior:SKILL_RELATION]->(b)
WITH a, b, count(prior) AS existing
MERGE (a)-[r:SKILL_RELATION]->(b)
ON CREATE SET r.relation = $relation, r.confidence = $confidence, r.created_at = $now
RETURN existing = 0 AS created
`, map[string]any{
			"source":     e.SourceKey,
			"target":     e.TargetKey,
			"relation":   e.Relation,
			"confidence": e.Confidence,
			"now":        now,
		})
		if err != nil {
			return nil, err
		}
		recs, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			return nil, ErrMissingEndpoint
		}
		created, _ := recs[0].Get("created")
		b, _ := created.(bool)
		return b, nil
	})
	if err != nil {
		return false, err
	}
	return out.(bool), nil
}

func (s *Neo4jStore) ListRelations(ctx context.Context, keys []string) ([]RelationEdge, error) {
	if len(keys) == 0 {
		return []RelationEdge{}, nil
	}
	out, err := s.read(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (a:Skill)-[r:SKILL_RELATION]->(b:Skill)
WHERE a.key IN $keys AND b.key IN $keys
RETURN a.key AS source, b.key AS target, r.relation AS relation, coalesce(r.confidence, 0.0) AS confidence
ORDER BY r.created_at
`, map[string]any{"keys": keys})
		if err != nil {
			return nil, err
		}
		recs, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		edges := make([]RelationEdge, 0, len(recs))
		for _, rec := range recs {
			edges = append(edges, RelationEdge{
				SourceKey:  stringValue(rec, "source"),
				TargetKey:  stringValue(rec, "target"),
				Relation:   stringValue(rec, "relation"),
				Confidence: floatValue(rec, "confidence"),
			})
		}
		return edges, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]RelationEdge), nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

func skillFromRecord(rec *neo4j.Record, prefix string) SkillNode {
	return SkillNode{
		Key:      stringValue(rec, prefix+"key"),
		Name:     stringValue(rec, prefix+"name"),
		Category: stringValue(rec, prefix+"category"),
	}
}

func stringValue(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func intValue(rec *neo4j.Record, key string) int64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func floatValue(rec *neo4j.Record, key string) float64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}
