package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var ErrNotFound = errors.New("article not found")

// Fixed-width UTC layout so that lexical order in SQLite equals time order.
const timeLayout = "2006-01-02 15:04:05.000000000"

const articleColumns = `id, slug, title, description, body_kind, body, categories, tags,
	is_live, was_live, is_breaking, breaking_expires_at, is_headline, is_category_headline,
	label, source_name, meta_title, meta_description, creator, image_url,
	published_at, created_at, updated_at`

var _ ArticleRepository = (*ArticleStore)(nil)

// ArticleStore handles database operations for articles
type ArticleStore struct {
	db *DB
}

// NewArticleStore creates a new article store
func NewArticleStore(db *DB) *ArticleStore {
	return &ArticleStore{db: db}
}

// Find returns articles matching filter, newest first. Ties on publish date
// are broken by id so repeated queries return the same order.
func (r *ArticleStore) Find(ctx context.Context, filter ArticleFilter) ([]Article, error) {
	where, args := buildWhere(filter)

	query := "SELECT " + articleColumns + " FROM articles" + where + " ORDER BY published_at DESC, id ASC"
	switch {
	case filter.Limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, max(filter.Offset, 0))
	case filter.Offset > 0:
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find articles: %w", err)
	}
	defer rows.Close()

	articles := make([]Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

// Count returns the number of articles matching filter, ignoring pagination
func (r *ArticleStore) Count(ctx context.Context, filter ArticleFilter) (int, error) {
	where, args := buildWhere(filter)

	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

// FindByID retrieves an article by its id
func (r *ArticleStore) FindByID(ctx context.Context, id string) (*Article, error) {
	return r.findOne(ctx, "id", id)
}

// FindBySlug retrieves an article by its slug
func (r *ArticleStore) FindBySlug(ctx context.Context, slug string) (*Article, error) {
	return r.findOne(ctx, "slug", slug)
}

func (r *ArticleStore) findOne(ctx context.Context, column, value string) (*Article, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+articleColumns+" FROM articles WHERE "+column+" = ?", value)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article by %s: %w", column, err)
	}

	return article, nil
}

func (r *ArticleStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM articles WHERE slug = ?)", slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

// Insert stores a new article. Headline flags on the new article demote the
// current holders in the same transaction.
func (r *ArticleStore) Insert(ctx context.Context, article *Article) error {
	values, err := articleValues(article)
	if err != nil {
		return err
	}

	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := demoteCompeting(ctx, tx, article); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO articles (`+articleColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, values...)
		if isUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		if err != nil {
			return fmt.Errorf("failed to insert article: %w", err)
		}
		return nil
	})
}

// Update overwrites every stored field of an existing article
func (r *ArticleStore) Update(ctx context.Context, article *Article) error {
	values, err := articleValues(article)
	if err != nil {
		return err
	}
	// id moves from the first position to the WHERE clause
	values = append(values[1:], article.ID)

	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := demoteCompeting(ctx, tx, article); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE articles
			SET slug = ?, title = ?, description = ?, body_kind = ?, body = ?, categories = ?, tags = ?,
			    is_live = ?, was_live = ?, is_breaking = ?, breaking_expires_at = ?, is_headline = ?,
			    is_category_headline = ?, label = ?, source_name = ?, meta_title = ?, meta_description = ?,
			    creator = ?, image_url = ?, published_at = ?, created_at = ?, updated_at = ?
			WHERE id = ?
		`, values...)
		if isUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		if err != nil {
			return fmt.Errorf("failed to update article: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *ArticleStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM articles WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// PromoteHeadline makes id the only headline article. Clearing the previous
// holder and setting the new one happen in one transaction.
func (r *ArticleStore) PromoteHeadline(ctx context.Context, id string) (bool, error) {
	found := false
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC().Format(timeLayout)

		if _, err := tx.ExecContext(ctx, `
			UPDATE articles SET is_headline = 0, updated_at = ?
			WHERE is_headline = 1 AND id <> ?
		`, now, id); err != nil {
			return fmt.Errorf("failed to clear headline: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			"UPDATE articles SET is_headline = 1, updated_at = ? WHERE id = ?", now, id)
		if err != nil {
			return fmt.Errorf("failed to set headline: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			// roll back the demotion, there is nothing to promote
			return ErrNotFound
		}
		found = true
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return found, err
}

// PromoteCategoryHeadline makes id the category headline for each of its
// categories, demoting whichever articles held that flag in them.
func (r *ArticleStore) PromoteCategoryHeadline(ctx context.Context, id string) (bool, error) {
	found := false
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var categories string
		err := tx.QueryRowContext(ctx, "SELECT categories FROM articles WHERE id = ?", id).Scan(&categories)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load article categories: %w", err)
		}

		now := time.Now().UTC().Format(timeLayout)
		if err := demoteCategoryHeadlines(ctx, tx, id, categories, now); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE articles SET is_category_headline = 1, updated_at = ? WHERE id = ?", now, id)
		if err != nil {
			return fmt.Errorf("failed to set category headline: %w", err)
		}
		found = true
		return nil
	})
	return found, err
}

// ClearExpiredBreaking drops the breaking flag from articles whose breaking
// window ended at or before now.
func (r *ArticleStore) ClearExpiredBreaking(ctx context.Context, now time.Time) (int64, error) {
	stamp := now.UTC().Format(timeLayout)
	result, err := r.db.ExecContext(ctx, `
		UPDATE articles
		SET is_breaking = 0, breaking_expires_at = NULL, updated_at = ?
		WHERE is_breaking = 1
		  AND breaking_expires_at IS NOT NULL
		  AND breaking_expires_at <= ?
	`, stamp, stamp)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired breaking flags: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected, nil
}

func (r *ArticleStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func demoteCompeting(ctx context.Context, tx *sql.Tx, article *Article) error {
	now := time.Now().UTC().Format(timeLayout)

	if article.IsHeadline {
		if _, err := tx.ExecContext(ctx, `
			UPDATE articles SET is_headline = 0, updated_at = ?
			WHERE is_headline = 1 AND id <> ?
		`, now, article.ID); err != nil {
			return fmt.Errorf("failed to clear headline: %w", err)
		}
	}

	if article.IsCategoryHeadline && len(article.Categories) > 0 {
		categories, err := json.Marshal(article.Categories)
		if err != nil {
			return fmt.Errorf("failed to encode categories: %w", err)
		}
		if err := demoteCategoryHeadlines(ctx, tx, article.ID, string(categories), now); err != nil {
			return err
		}
	}

	return nil
}

func demoteCategoryHeadlines(ctx context.Context, tx *sql.Tx, id, categories, now string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE articles SET is_category_headline = 0, updated_at = ?
		WHERE is_category_headline = 1
		  AND id <> ?
		  AND EXISTS (
		      SELECT 1 FROM json_each(articles.categories) AS c
		      WHERE fold_case(c.value) IN (SELECT fold_case(value) FROM json_each(?))
		  )
	`, now, id, categories)
	if err != nil {
		return fmt.Errorf("failed to clear category headline: %w", err)
	}
	return nil
}

func buildWhere(filter ArticleFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.Category != "" {
		clauses = append(clauses, `EXISTS (
			SELECT 1 FROM json_each(articles.categories) AS c WHERE fold_case(c.value) = fold_case(?))`)
		args = append(args, filter.Category)
	}
	if filter.Tag != "" {
		clauses = append(clauses, `EXISTS (
			SELECT 1 FROM json_each(articles.tags) AS t WHERE instr(fold_case(t.value), fold_case(?)) > 0)`)
		args = append(args, filter.Tag)
	}
	if len(filter.AnyTags) > 0 {
		// json.Marshal of a []string cannot fail
		tags, _ := json.Marshal(filter.AnyTags)
		clauses = append(clauses, `EXISTS (
			SELECT 1 FROM json_each(articles.tags) AS t
			WHERE t.value IN (SELECT value FROM json_each(?)))`)
		args = append(args, string(tags))
	}
	if filter.OnlyHeadline {
		clauses = append(clauses, "is_headline = 1")
	}
	if filter.OnlyCategoryHeadline {
		clauses = append(clauses, "is_category_headline = 1")
	}
	if filter.ExcludeHeadline {
		clauses = append(clauses, "is_headline = 0")
	}
	if filter.ExcludeCategoryHeadline {
		clauses = append(clauses, "is_category_headline = 0")
	}
	if filter.ExcludeID != "" {
		clauses = append(clauses, "id <> ?")
		args = append(args, filter.ExcludeID)
	}
	if filter.ExcludeSlug != "" {
		clauses = append(clauses, "slug <> ?")
		args = append(args, filter.ExcludeSlug)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*Article, error) {
	var (
		article                     Article
		kind, body                  string
		categories, tags            string
		breakingExpiresAt           sql.NullString
		published, created, updated string
	)

	err := row.Scan(
		&article.ID, &article.Slug, &article.Title, &article.Description, &kind, &body,
		&categories, &tags, &article.IsLive, &article.WasLive, &article.IsBreaking,
		&breakingExpiresAt, &article.IsHeadline, &article.IsCategoryHeadline,
		&article.Label, &article.SourceName, &article.MetaTitle, &article.MetaDescription,
		&article.Creator, &article.ImageURL, &published, &created, &updated,
	)
	if err != nil {
		return nil, err
	}

	if article.Body, err = decodeBody(BodyKind(kind), body); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(categories), &article.Categories); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &article.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}

	if breakingExpiresAt.Valid {
		expires, err := parseTime(breakingExpiresAt.String)
		if err != nil {
			return nil, err
		}
		article.BreakingExpiresAt = &expires
	}
	for _, field := range []struct {
		raw string
		dst *time.Time
	}{
		{published, &article.PublishedAt},
		{created, &article.CreatedAt},
		{updated, &article.UpdatedAt},
	} {
		if *field.dst, err = parseTime(field.raw); err != nil {
			return nil, err
		}
	}

	return &article, nil
}

func articleValues(article *Article) ([]any, error) {
	kind, body, err := encodeBody(article.Body)
	if err != nil {
		return nil, err
	}

	categories, err := json.Marshal(nonNil(article.Categories))
	if err != nil {
		return nil, fmt.Errorf("failed to encode categories: %w", err)
	}
	tags, err := json.Marshal(nonNil(article.Tags))
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}

	var breakingExpiresAt any
	if article.BreakingExpiresAt != nil {
		breakingExpiresAt = formatTime(*article.BreakingExpiresAt)
	}

	return []any{
		article.ID, article.Slug, article.Title, article.Description, string(kind), body,
		string(categories), string(tags), article.IsLive, article.WasLive, article.IsBreaking,
		breakingExpiresAt, article.IsHeadline, article.IsCategoryHeadline,
		article.Label, article.SourceName, article.MetaTitle, article.MetaDescription,
		article.Creator, article.ImageURL, formatTime(article.PublishedAt),
		formatTime(article.CreatedAt), formatTime(article.UpdatedAt),
	}, nil
}

func encodeBody(body Body) (BodyKind, string, error) {
	if body.Kind != BodyLive {
		return BodyPlain, body.Text, nil
	}

	updates := body.Updates
	if updates == nil {
		updates = []LiveUpdate{}
	}
	data, err := json.Marshal(updates)
	if err != nil {
		return "", "", fmt.Errorf("failed to encode live updates: %w", err)
	}
	return BodyLive, string(data), nil
}

func decodeBody(kind BodyKind, raw string) (Body, error) {
	switch kind {
	case BodyPlain:
		return PlainBody(raw), nil
	case BodyLive:
		var updates []LiveUpdate
		if err := json.Unmarshal([]byte(raw), &updates); err != nil {
			return Body{}, fmt.Errorf("failed to decode live updates: %w", err)
		}
		return LiveBody(updates...), nil
	default:
		return Body{}, fmt.Errorf("unknown body kind %q", kind)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
