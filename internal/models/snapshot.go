package models

import "time"

// Snapshot is the portable export document covering every lecture and taxonomy term.
//
// Ids are the exporting store's ids; importing remaps taxonomy ids by name.
type Snapshot struct {
	Lectures []SnapshotLecture `json:"lectures"`
	Topics   []SnapshotTerm    `json:"topics"`
	Tags     []SnapshotTerm    `json:"tags"`
	Ranks    []SnapshotTerm    `json:"ranks"`
}

// SnapshotLecture is one lecture in a [Snapshot].
type SnapshotLecture struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	YouTubeID    string    `json:"youtube_id"`
	ThumbnailURL string    `json:"thumbnail_url"`
	PublishDate  time.Time `json:"publish_date"`
	RankID       *int64    `json:"rank_id"`
	TopicIDs     []int64   `json:"topic_ids"`
	TagIDs       []int64   `json:"tag_ids"`
}

// SnapshotTerm is one topic, tag or rank in a [Snapshot].
type SnapshotTerm struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewSnapshot returns an empty snapshot whose collections encode as [] rather than null.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Lectures: []SnapshotLecture{},
		Topics:   []SnapshotTerm{},
		Tags:     []SnapshotTerm{},
		Ranks:    []SnapshotTerm{},
	}
}

// Terms returns the snapshot entries for kind.
func (s *Snapshot) Terms(kind TaxonomyKind) []SnapshotTerm {
	switch kind {
	case KindTopic:
		return s.Topics
	case KindTag:
		return s.Tags
	case KindRank:
		return s.Ranks
	}
	return nil
}

// SetTerms replaces the snapshot entries for kind.
func (s *Snapshot) SetTerms(kind TaxonomyKind, terms []SnapshotTerm) {
	switch kind {
	case KindTopic:
		s.Topics = terms
	case KindTag:
		s.Tags = terms
	case KindRank:
		s.Ranks = terms
	}
}

// SnapshotFromLecture converts a stored lecture into its snapshot form.
func SnapshotFromLecture(l *Lecture) SnapshotLecture {
	topics, tags := l.TopicIDs, l.TagIDs
	if topics == nil {
		topics = []int64{}
	}
	if tags == nil {
		tags = []int64{}
	}
	return SnapshotLecture{
		ID:           l.ID,
		Title:        l.Title,
		YouTubeID:    l.YouTubeID,
		ThumbnailURL: l.ThumbnailURL,
		PublishDate:  l.PublishDate,
		RankID:       l.RankID,
		TopicIDs:     topics,
		TagIDs:       tags,
	}
}
