package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Model is implemented by every persistent entity.
type Model interface {
	Validate() error // Validate checks field constraints and returns an error wrapping shared.ErrInvalidInput
}

var (
	_ Model = (*User)(nil)
	_ Model = (*Lecture)(nil)
	_ Model = (*Term)(nil)
)

// User is an admin account. Users are created by the setup commands only.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username" validate:"required,max=64"`
	PasswordHash string    `json:"-" validate:"required"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser creates a [User] with the given username and bcrypt hash.
func NewUser(username, passwordHash string) *User {
	return &User{
		Username:     strings.TrimSpace(username),
		PasswordHash: passwordHash,
		CreatedAt:    Now(),
	}
}

func (u *User) Validate() error { return ValidateStruct(u) }

// Lecture is a catalogued video.
//
// TopicIDs and TagIDs hold the full association sets; they are replaced wholesale on update.
type Lecture struct {
	ID           int64     `json:"id"`
	YouTubeID    string    `json:"youtube_id" validate:"required,max=20"`
	Title        string    `json:"title" validate:"required,max=200"`
	ThumbnailURL string    `json:"thumbnail_url"`
	PublishDate  time.Time `json:"publish_date"`
	RankID       *int64    `json:"rank_id"`
	TopicIDs     []int64   `json:"topic_ids"`
	TagIDs       []int64   `json:"tag_ids"`
}

func (l *Lecture) Validate() error { return ValidateStruct(l) }

// ShortURL returns the canonical short link for the lecture's video.
func (l *Lecture) ShortURL() string {
	return "https://youtu.be/" + l.YouTubeID
}

// HasTopic reports whether id is in the lecture's topic set.
func (l *Lecture) HasTopic(id int64) bool { return slices.Contains(l.TopicIDs, id) }

// HasTag reports whether id is in the lecture's tag set.
func (l *Lecture) HasTag(id int64) bool { return slices.Contains(l.TagIDs, id) }

// HasRank reports whether the lecture is ranked id.
func (l *Lecture) HasRank(id int64) bool { return l.RankID != nil && *l.RankID == id }

// TaxonomyKind distinguishes the three classification vocabularies.
type TaxonomyKind string

const (
	KindTopic TaxonomyKind = "topic"
	KindTag   TaxonomyKind = "tag"
	KindRank  TaxonomyKind = "rank"
)

// TaxonomyKinds lists every kind in display order.
var TaxonomyKinds = []TaxonomyKind{KindTopic, KindTag, KindRank}

// ParseTaxonomyKind maps "topic", "tag" or "rank" (case-insensitive, plural accepted) to a kind.
func ParseTaxonomyKind(s string) (TaxonomyKind, error) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	for _, k := range TaxonomyKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown taxonomy kind %q", s)
}

// Table returns the table holding terms of this kind.
func (k TaxonomyKind) Table() string { return string(k) + "s" }

// MaxNameLength returns the longest name a term of this kind may have.
func (k TaxonomyKind) MaxNameLength() int {
	if k == KindRank {
		return 20
	}
	return 50
}

// Label returns the kind's display name.
func (k TaxonomyKind) Label() string {
	switch k {
	case KindTopic:
		return "Topic"
	case KindTag:
		return "Tag"
	case KindRank:
		return "Rank"
	}
	return string(k)
}

// Term is a single topic, tag or rank.
type Term struct {
	ID   int64        `json:"id"`
	Name string       `json:"name"`
	Kind TaxonomyKind `json:"-"`
}

// NewTerm creates a [Term] of kind with a trimmed name.
func NewTerm(kind TaxonomyKind, name string) *Term {
	return &Term{Kind: kind, Name: strings.TrimSpace(name)}
}

// Validate checks that the name is present and within the kind's length limit.
func (t *Term) Validate() error {
	return validateVar(t.Name, "name", fmt.Sprintf("required,max=%d", t.Kind.MaxNameLength()))
}

// VideoInfo is the metadata a video provider returns for one video.
type VideoInfo struct {
	YouTubeID    string    `json:"youtube_id"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnail_url"`
	PublishDate  time.Time `json:"publish_date"`
}

// Now returns the current time in UTC truncated to seconds, the precision every store keeps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// NormalizeTime converts t to UTC at second precision.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// DedupeIDs returns ids without duplicates, preserving first-seen order.
func DedupeIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
