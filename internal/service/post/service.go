package post

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/repository"
	"github.com/jwalitptl/campus-forum/internal/service/audit"
	"github.com/jwalitptl/campus-forum/internal/service/moderation"
	"github.com/jwalitptl/campus-forum/pkg/errors"
)

type Service struct {
	posts     repository.PostRepository
	replies   repository.ReplyRepository
	moderator moderation.Checker
	auditor   audit.Recorder
}

func NewService(posts repository.PostRepository, replies repository.ReplyRepository, moderator moderation.Checker, auditor audit.Recorder) *Service {
	return &Service{
		posts:     posts,
		replies:   replies,
		moderator: moderator,
		auditor:   auditor,
	}
}

// canModify reports whether actor may edit or delete content by authorID
func canModify(actor model.Actor, authorID uuid.UUID) bool {
	return actor.UserID == authorID || model.IsModerator(actor.Role)
}

func (s *Service) CreatePost(ctx context.Context, author model.Actor, req *model.CreatePostRequest) (*model.Post, error) {
	title := strings.TrimSpace(req.Title)
	if err := s.moderator.CheckContent(ctx, author.Role, model.ContentPost, req.Body); err != nil {
		return nil, err
	}
	if err := s.moderator.CheckContent(ctx, author.Role, model.ContentTitle, title); err != nil {
		return nil, err
	}

	post := &model.Post{
		AuthorID:       author.UserID,
		AuthorUsername: author.Username,
		Title:          title,
		Body:           req.Body,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

// GetPost hides hidden posts from everyone but moderators and the author.
func (s *Service) GetPost(ctx context.Context, viewer model.Actor, id uuid.UUID) (*model.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("post", err)
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post.Hidden && !model.IsModerator(viewer.Role) && post.AuthorID != viewer.UserID {
		return nil, errors.NotFound("post", nil)
	}
	return post, nil
}

func (s *Service) ListPosts(ctx context.Context, viewer model.Actor, filters *model.PostFilters) ([]*model.Post, error) {
	if !model.IsModerator(viewer.Role) {
		filters.IncludeHidden = false
	}
	posts, err := s.posts.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if posts == nil {
		posts = []*model.Post{}
	}
	return posts, nil
}

func (s *Service) UpdatePost(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdatePostRequest) (*model.Post, error) {
	post, err := s.GetPost(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, post.AuthorID) {
		return nil, errors.Forbidden("only the author or a moderator may edit this post")
	}

	if req.Title != nil {
		post.Title = strings.TrimSpace(*req.Title)
		if err := s.moderator.CheckContent(ctx, actor.Role, model.ContentTitle, post.Title); err != nil {
			return nil, err
		}
	}
	if req.Body != nil {
		// the student posting toggle covers new threads, not edits
		err := s.moderator.CheckContent(ctx, actor.Role, model.ContentPost, *req.Body)
		if err != nil && !stderrors.Is(err, moderation.ErrPostingDisabled) {
			return nil, err
		}
		post.Body = *req.Body
	}

	if err := s.posts.Update(ctx, post); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("post", err)
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	return post, nil
}

func (s *Service) DeletePost(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	post, err := s.GetPost(ctx, actor, id)
	if err != nil {
		return err
	}
	if !canModify(actor, post.AuthorID) {
		return errors.Forbidden("only the author or a moderator may delete this post")
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("post", err)
		}
		return fmt.Errorf("failed to delete post: %w", err)
	}

	if actor.UserID != post.AuthorID {
		s.auditor.Log(ctx, audit.Entry{
			ActorID:    audit.ActorRef(actor.UserID),
			Action:     audit.ActionPostDelete,
			EntityType: "post",
			EntityID:   id.String(),
			Metadata:   map[string]interface{}{"author_id": post.AuthorID.String()},
		})
	}
	return nil
}

// SetPostHidden is the moderation switch for a thread
func (s *Service) SetPostHidden(ctx context.Context, actor model.Actor, id uuid.UUID, hidden bool) error {
	if !model.IsModerator(actor.Role) {
		return errors.Forbidden("only moderators may hide posts")
	}

	if err := s.posts.SetHidden(ctx, id, hidden); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("post", err)
		}
		return fmt.Errorf("failed to set post visibility: %w", err)
	}

	s.auditor.Log(ctx, audit.Entry{
		ActorID:    audit.ActorRef(actor.UserID),
		Action:     audit.ActionPostHide,
		EntityType: "post",
		EntityID:   id.String(),
		Metadata:   map[string]interface{}{"hidden": hidden},
	})
	return nil
}

func (s *Service) CreateReply(ctx context.Context, author model.Actor, postID uuid.UUID, req *model.CreateReplyRequest) (*model.Reply, error) {
	if _, err := s.GetPost(ctx, author, postID); err != nil {
		return nil, err
	}
	if err := s.moderator.CheckContent(ctx, author.Role, model.ContentReply, req.Body); err != nil {
		return nil, err
	}

	reply := &model.Reply{
		PostID:         postID,
		AuthorID:       author.UserID,
		AuthorUsername: author.Username,
		Body:           req.Body,
	}
	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}
	return reply, nil
}

func (s *Service) ListReplies(ctx context.Context, viewer model.Actor, postID uuid.UUID, page model.Page) ([]*model.Reply, error) {
	if _, err := s.GetPost(ctx, viewer, postID); err != nil {
		return nil, err
	}
	replies, err := s.replies.ListByPost(ctx, postID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	if replies == nil {
		replies = []*model.Reply{}
	}
	return replies, nil
}

func (s *Service) UpdateReply(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateReplyRequest) (*model.Reply, error) {
	reply, err := s.getReply(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, reply.AuthorID) {
		return nil, errors.Forbidden("only the author or a moderator may edit this reply")
	}
	if err := s.moderator.CheckContent(ctx, actor.Role, model.ContentReply, req.Body); err != nil {
		return nil, err
	}

	reply.Body = req.Body
	if err := s.replies.Update(ctx, reply); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("reply", err)
		}
		return nil, fmt.Errorf("failed to update reply: %w", err)
	}
	return reply, nil
}

func (s *Service) DeleteReply(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	reply, err := s.getReply(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(actor, reply.AuthorID) {
		return errors.Forbidden("only the author or a moderator may delete this reply")
	}

	if err := s.replies.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("reply", err)
		}
		return fmt.Errorf("failed to delete reply: %w", err)
	}

	if actor.UserID != reply.AuthorID {
		s.auditor.Log(ctx, audit.Entry{
			ActorID:    audit.ActorRef(actor.UserID),
			Action:     audit.ActionReplyDelete,
			EntityType: "reply",
			EntityID:   id.String(),
			Metadata:   map[string]interface{}{"post_id": reply.PostID.String()},
		})
	}
	return nil
}

func (s *Service) getReply(ctx context.Context, id uuid.UUID) (*model.Reply, error) {
	reply, err := s.replies.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("reply", err)
		}
		return nil, fmt.Errorf("failed to get reply: %w", err)
	}
	return reply, nil
}
