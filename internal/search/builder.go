package search

import (
	"strings"
)

// Builder accumulates WHERE conditions and their arguments for the lectures table aliased l.
type Builder struct {
	conds []string
	args  []any
}

// Query is a compiled [Filter].
type Query struct {
	Where   string // empty, or "WHERE ..." including the leading keyword
	Args    []any
	OrderBy string // "ORDER BY ..." including the leading keyword
}

// Compile maps every predicate of f to SQL in a fixed order: text, topics, tags, rank.
func Compile(f Filter) Query {
	var b Builder
	b.Text(f.Query)
	b.Topics(f.TopicIDs)
	b.Tags(f.TagIDs)
	b.Rank(f.RankID)

	where, args := b.Where()
	return Query{Where: where, Args: args, OrderBy: OrderBy(f.Sort)}
}

// Text adds a case-insensitive substring match on the title. LIKE wildcards in q match literally.
//
// SQLite's LOWER folds ASCII letters only, so "é" and "É" differ there; PostgreSQL folds per its locale.
func (b *Builder) Text(q string) *Builder {
	if q == "" {
		return b
	}
	b.conds = append(b.conds, `LOWER(l.title) LIKE LOWER(?) ESCAPE '\'`)
	b.args = append(b.args, "%"+EscapeLike(q)+"%")
	return b
}

// Topics requires every id to be attached to the lecture.
func (b *Builder) Topics(ids []int64) *Builder {
	for _, id := range ids {
		b.conds = append(b.conds, `EXISTS (SELECT 1 FROM lecture_topics lt WHERE lt.lecture_id = l.id AND lt.topic_id = ?)`)
		b.args = append(b.args, id)
	}
	return b
}

// Tags requires every id to be attached to the lecture.
func (b *Builder) Tags(ids []int64) *Builder {
	for _, id := range ids {
		b.conds = append(b.conds, `EXISTS (SELECT 1 FROM lecture_tags lg WHERE lg.lecture_id = l.id AND lg.tag_id = ?)`)
		b.args = append(b.args, id)
	}
	return b
}

// Rank restricts results to a single rank.
func (b *Builder) Rank(id *int64) *Builder {
	if id == nil {
		return b
	}
	b.conds = append(b.conds, `l.rank_id = ?`)
	b.args = append(b.args, *id)
	return b
}

// Where returns the accumulated conditions joined with AND.
func (b *Builder) Where() (string, []any) {
	if len(b.conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(b.conds, " AND "), b.args
}

// OrderBy returns the ORDER BY clause for s. Both orderings are total.
func OrderBy(s Sort) string {
	if s == SortRank {
		return `ORDER BY l.rank_id IS NULL, l.rank_id ASC, l.id ASC`
	}
	return `ORDER BY l.publish_date DESC, l.id ASC`
}

// EscapeLike escapes \, % and _ so they match literally under ESCAPE '\'.
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
