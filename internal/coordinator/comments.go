package coordinator

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/llehouerou/rollen/internal/errmsg"
	"github.com/llehouerou/rollen/internal/gateway"
)

// ErrEmptyComment is returned when posting a blank comment.
var ErrEmptyComment = errors.New("comment is empty")

// CommentsState holds the comments of one track.
type CommentsState struct {
	Status   Status
	Err      string
	TrackID  int64
	Comments []gateway.Comment
}

func (s CommentsState) clone() CommentsState {
	s.Comments = slices.Clone(s.Comments)
	return s
}

// Comments loads and posts track comments.
type Comments struct {
	source CommentSource
	log    zerolog.Logger
	feed   *Feed[CommentsState]
}

// NewComments creates a Comments coordinator.
func NewComments(source CommentSource, log zerolog.Logger) *Comments {
	return &Comments{
		source: source,
		log:    log,
		feed:   newFeed(CommentsState{TrackID: -1}, CommentsState.clone),
	}
}

// State returns the current state.
func (c *Comments) State() CommentsState { return c.feed.Get() }

// Subscribe streams state changes.
func (c *Comments) Subscribe() (<-chan CommentsState, func()) { return c.feed.Subscribe() }

// Load replaces the comments with those of trackID.
func (c *Comments) Load(ctx context.Context, trackID int64) error {
	c.feed.update(func(s *CommentsState) {
		if s.TrackID != trackID {
			s.Comments = nil
		}
		s.TrackID = trackID
		s.Status = StatusLoading
		s.Err = ""
	})

	comments, err := c.source.Comments(ctx, trackID)
	if err != nil {
		return c.failed(errmsg.OpCommentsLoad, err)
	}
	c.feed.update(func(s *CommentsState) {
		if s.TrackID != trackID {
			return
		}
		s.Comments = comments
		s.Status = StatusReady
	})
	return nil
}

// Add posts a comment on trackID and reloads the list.
func (c *Comments) Add(ctx context.Context, trackID int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyComment
	}
	c.feed.update(func(s *CommentsState) {
		s.Status = StatusLoading
		s.Err = ""
	})
	if err := c.source.AddComment(ctx, trackID, text); err != nil {
		return c.failed(errmsg.OpCommentAdd, err)
	}
	return c.Load(ctx, trackID)
}

func (c *Comments) failed(op errmsg.Op, err error) error {
	msg := errmsg.Format(op, err)
	c.log.Warn().Err(err).Str("op", string(op)).Msg("comments")
	c.feed.update(func(s *CommentsState) {
		s.Status = StatusError
		s.Err = msg
	})
	return err
}
