package gorm

import (
	"context"
	"strings"

	"github.com/lukaszraczylo/prompt-companion/pkg/models"
)

// SearchSubprompts performs full-text search over subprompt names, prompt
// text, and trigger words using FTS5. Falls back to LIKE search when the FTS
// query cannot be parsed (punctuation-heavy input).
func (s *SubpromptStore) SearchSubprompts(ctx context.Context, query string, limit int) ([]*models.Subprompt, error) {
	if limit <= 0 {
		limit = 20
	}

	keywords := extractKeywords(query)
	if len(keywords) == 0 {
		return nil, nil
	}

	// FTS5 query: keyword1 OR keyword2 OR keyword3
	ftsTerms := strings.Join(keywords, " OR ")

	// FTS5 MATCH goes through raw SQL; GORM can't express it.
	const ftsQuery = `
		SELECT s.id, s.name, s.folder_id, s.positive, s.negative,
		       s.trigger_words, s.order_tokens
		FROM subprompts s
		JOIN subprompts_fts ON s.id = subprompts_fts.subprompt_id
		WHERE subprompts_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`

	rows, err := s.store.GetRawDB().QueryContext(ctx, ftsQuery, ftsTerms, limit)
	if err != nil {
		return s.searchSubpromptsLike(ctx, keywords, limit)
	}
	defer rows.Close()

	var results []*models.Subprompt
	for rows.Next() {
		var record SubpromptRecord
		err := rows.Scan(&record.ID, &record.Name, &record.FolderID,
			&record.Positive, &record.Negative,
			&record.TriggerWords, &record.OrderTokens)
		if err != nil {
			return nil, err
		}
		results = append(results, toModelSubprompt(&record))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return s.searchSubpromptsLike(ctx, keywords, limit)
	}
	return results, nil
}

// searchSubpromptsLike is the LIKE fallback when FTS5 yields nothing.
func (s *SubpromptStore) searchSubpromptsLike(ctx context.Context, keywords []string, limit int) ([]*models.Subprompt, error) {
	var conditions []string
	var args []interface{}
	for _, kw := range keywords {
		pattern := "%" + kw + "%"
		conditions = append(conditions, "(name LIKE ? OR positive LIKE ? OR negative LIKE ? OR trigger_words LIKE ?)")
		args = append(args, pattern, pattern, pattern, pattern)
	}

	var records []SubpromptRecord
	err := s.db.WithContext(ctx).
		Where(strings.Join(conditions, " OR "), args...).
		Order("name").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return toModelSubprompts(records), nil
}

// extractKeywords splits a free-form query into lowercase search keywords,
// dropping short stop words that would only add noise to the FTS query.
func extractKeywords(query string) []string {
	commonWords := map[string]bool{
		"the": true, "and": true, "or": true, "but": true, "in": true,
		"on": true, "at": true, "to": true, "for": true, "of": true,
		"with": true, "by": true, "from": true, "as": true, "is": true,
		"a": true, "an": true,
	}

	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, `"'(),.`)
		if word == "" || commonWords[word] {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}
