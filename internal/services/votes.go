package services

import (
	"context"
	"errors"

	"boardly/internal/models"

	"gorm.io/gorm"
)

type VoteOutcome string

const (
	OutcomeRegistered VoteOutcome = "registered"
	OutcomeCancelled  VoteOutcome = "cancelled"
	OutcomeChanged    VoteOutcome = "changed"
)

var outcomeMessages = map[VoteOutcome]string{
	OutcomeRegistered: "vote registered",
	OutcomeCancelled:  "vote cancelled",
	OutcomeChanged:    "vote changed",
}

// Aggregate is derived from the vote rows on every read.
type Aggregate struct {
	Upvotes    int64            `json:"upvotes"`
	Downvotes  int64            `json:"downvotes"`
	Score      int64            `json:"score"`
	ViewerVote models.Direction `json:"viewerVote,omitempty"`
}

func (a *Aggregate) add(d models.Direction, n int64) {
	switch d {
	case models.DirectionUp:
		a.Upvotes += n
	case models.DirectionDown:
		a.Downvotes += n
	}
	a.Score = a.Upvotes - a.Downvotes
}

type VoteResult struct {
	Outcome   VoteOutcome `json:"outcome"`
	Message   string      `json:"message"`
	Aggregate Aggregate   `json:"aggregate"`
}

// voteTable describes one of the two vote tables so the transition logic is
// written once.
type voteTable struct {
	kind   models.TargetKind
	column string
	target func() any
	model  func() any
	newRow func(targetID, userID uint, d models.Direction) any
}

var voteTables = map[models.TargetKind]voteTable{
	models.TargetPost: {
		kind:   models.TargetPost,
		column: "post_id",
		target: func() any { return &models.Post{} },
		model:  func() any { return &models.PostVote{} },
		newRow: func(targetID, userID uint, d models.Direction) any {
			return &models.PostVote{PostID: targetID, UserID: userID, Direction: d}
		},
	},
	models.TargetComment: {
		kind:   models.TargetComment,
		column: "comment_id",
		target: func() any { return &models.Comment{} },
		model:  func() any { return &models.CommentVote{} },
		newRow: func(targetID, userID uint, d models.Direction) any {
			return &models.CommentVote{CommentID: targetID, UserID: userID, Direction: d}
		},
	},
}

type voteRow struct {
	ID        uint
	Direction models.Direction
}

type VoteService struct {
	db *gorm.DB
}

func NewVoteService(db *gorm.DB) *VoteService {
	return &VoteService{db: db}
}

// CastVote applies the toggle/switch rule for actor's vote on one target:
// no vote registers it, the same direction cancels it, the other direction
// changes it.
func (s *VoteService) CastVote(ctx context.Context, actor *Identity, kind models.TargetKind, targetID uint, dir models.Direction) (*VoteResult, error) {
	if err := requireIdentity(actor); err != nil {
		return nil, err
	}
	t, ok := voteTables[kind]
	if !ok {
		return nil, validationError("targetType", "targetType must be post or comment")
	}
	if !dir.Valid() {
		return nil, validationError("direction", "direction must be up or down")
	}
	if targetID == 0 {
		return nil, validationError("targetId", "targetId is required")
	}

	outcome, err := s.transition(ctx, t, actor.ID, targetID, dir)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Another request inserted the row first. Apply ours on top of it once.
		outcome, err = s.overwrite(ctx, t, actor.ID, targetID, dir)
	}
	if err != nil {
		return nil, wrap("cast vote", err)
	}

	agg, err := s.Aggregate(ctx, kind, targetID, actor.ID)
	if err != nil {
		return nil, err
	}
	return &VoteResult{Outcome: outcome, Message: outcomeMessages[outcome], Aggregate: *agg}, nil
}

func (s *VoteService) transition(ctx context.Context, t voteTable, userID, targetID uint, dir models.Direction) (VoteOutcome, error) {
	var outcome VoteOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := targetExists(tx, t, targetID); err != nil {
			return err
		}
		row, err := findVote(tx, t, userID, targetID)
		if err != nil {
			return err
		}

		switch {
		case row == nil:
			outcome = OutcomeRegistered
			return tx.Create(t.newRow(targetID, userID, dir)).Error
		case row.Direction == dir:
			outcome = OutcomeCancelled
			return tx.Delete(t.model(), row.ID).Error
		default:
			outcome = OutcomeChanged
			return tx.Model(t.model()).Where("id = ?", row.ID).Update("direction", dir).Error
		}
	})
	return outcome, err
}

// overwrite is the single retry after a lost insert race.
func (s *VoteService) overwrite(ctx context.Context, t voteTable, userID, targetID uint, dir models.Direction) (VoteOutcome, error) {
	var outcome VoteOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := targetExists(tx, t, targetID); err != nil {
			return err
		}
		row, err := findVote(tx, t, userID, targetID)
		if err != nil {
			return err
		}

		switch {
		case row == nil:
			// The winner was cancelled in the meantime.
			outcome = OutcomeRegistered
			return tx.Create(t.newRow(targetID, userID, dir)).Error
		case row.Direction == dir:
			outcome = OutcomeRegistered
			return nil
		default:
			outcome = OutcomeChanged
			return tx.Model(t.model()).Where("id = ?", row.ID).Update("direction", dir).Error
		}
	})
	return outcome, err
}

func targetExists(tx *gorm.DB, t voteTable, targetID uint) error {
	var n int64
	if err := tx.Model(t.target()).Where("id = ?", targetID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return notFound(string(t.kind) + " not found")
	}
	return nil
}

func findVote(tx *gorm.DB, t voteTable, userID, targetID uint) (*voteRow, error) {
	var rows []voteRow
	err := tx.Model(t.model()).
		Select("id", "direction").
		Where(t.column+" = ? AND user_id = ?", targetID, userID).
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// Aggregate counts the votes on one target. viewerID 0 means anonymous.
func (s *VoteService) Aggregate(ctx context.Context, kind models.TargetKind, targetID, viewerID uint) (*Aggregate, error) {
	all, err := s.AggregateMany(ctx, kind, []uint{targetID}, viewerID)
	if err != nil {
		return nil, err
	}
	agg := all[targetID]
	return &agg, nil
}

// AggregateMany counts votes for a batch of targets with one grouped query.
// Every requested id is present in the result, zero-valued when unvoted.
func (s *VoteService) AggregateMany(ctx context.Context, kind models.TargetKind, ids []uint, viewerID uint) (map[uint]Aggregate, error) {
	t, ok := voteTables[kind]
	if !ok {
		return nil, validationError("targetType", "targetType must be post or comment")
	}
	out := make(map[uint]Aggregate, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	for _, id := range ids {
		out[id] = Aggregate{}
	}

	var counts []struct {
		TargetID  uint
		Direction models.Direction
		N         int64
	}
	err := s.db.WithContext(ctx).Model(t.model()).
		Select(t.column+" AS target_id, direction, COUNT(*) AS n").
		Where(t.column+" IN ?", ids).
		Group(t.column + ", direction").
		Scan(&counts).Error
	if err != nil {
		return nil, internal("aggregate votes", err)
	}
	for _, c := range counts {
		agg := out[c.TargetID]
		agg.add(c.Direction, c.N)
		out[c.TargetID] = agg
	}

	if viewerID == 0 {
		return out, nil
	}
	var mine []struct {
		TargetID  uint
		Direction models.Direction
	}
	err = s.db.WithContext(ctx).Model(t.model()).
		Select(t.column+" AS target_id, direction").
		Where(t.column+" IN ? AND user_id = ?", ids, viewerID).
		Scan(&mine).Error
	if err != nil {
		return nil, internal("viewer votes", err)
	}
	for _, m := range mine {
		agg := out[m.TargetID]
		agg.ViewerVote = m.Direction
		out[m.TargetID] = agg
	}
	return out, nil
}
