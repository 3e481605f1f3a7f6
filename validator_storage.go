package storage

import (
	"context"
	"errors"
	"fmt"
)

func (s *storage) validate() error {
	if s.serviceName == "" {
		return errors.New("serviceName must be set")
	}

	return s.validatePrimaryQueryStored()
}

// validatePrimaryQueryStored makes sure that the key in CachePrimaryQueryStored is actually a query that queries based off primary key
func (s *storage) validatePrimaryQueryStored() error {
	for _, q := range s.queries {
		// we're only checking lists
		if !q.isList() {
			continue
		}

		if q.CachePrimaryQueryStored == "" {
			return errors.New("CachePrimaryQueryStored must be set for lists in " + q.CacheKey)
		}

		// check to see if the primary query is the primary key of a table
		pkStored := q.CachePrimaryQueryStored

		t, ok := s.queryToTable[pkStored]
		if !ok || t.PrimaryQueryName != pkStored {
			return errors.New("CachePrimaryQueryStored must be the primary query of a table in " + q.CacheKey)
		}
	}
	return nil
}

// explainQueries runs EXPLAIN on every cached query so a typo fails at startup rather than on first use
func (s *storage) explainQueries(ctx context.Context) error {
	for _, q := range s.queries {
		if q.InsertAction == CacheNoAction && q.UpdateAction == CacheNoAction && q.SelectAction == CacheNoAction {
			continue
		}

		m := stripInternal(s.queryToTable[q.Name].objMap)
		m["limit"] = 0
		m["offset"] = 0

		explainQuery := fmt.Sprintf("EXPLAIN %s", q.queryLimitOffset)

		rows, err := s.db.readConn().NamedQueryContext(ctx, explainQuery, m)
		if err != nil {
			return fmt.Errorf("error in query: %s. Query: %s", err.Error(), q.queryLimitOffset)
		}
		rows.Close()
	}

	return nil
}
