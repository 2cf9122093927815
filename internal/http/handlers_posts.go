package httpapp

import (
	"context"
	"net/http"
	"strings"

	"github.com/bunchup/bunchup/internal/model"
)

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r, defaultLimit)
	posts, err := s.store.ListPostsByUnion(r.Context(), pathID(r), skip, limit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireOrganizer(w, r); !ok {
		return
	}
	unionID := pathID(r)
	if !s.lookup(w, r, "Union not found", func(ctx context.Context) error {
		_, err := s.store.GetUnion(ctx, unionID, 0)
		return err
	}) {
		return
	}

	var in model.PostCreate
	if !decodeBody(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeValidation(w, "title", "Title is required")
		return
	}
	if strings.TrimSpace(in.Content) == "" {
		writeValidation(w, "content", "Content is required")
		return
	}

	post := model.Post{
		Title:     in.Title,
		Content:   in.Content,
		UnionID:   &unionID,
		CreatedAt: model.NewTimestamp(s.now()),
	}
	id, err := s.store.CreatePost(r.Context(), &post)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	post.ID = id
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	var post model.Post
	if !s.lookup(w, r, "Post not found", func(ctx context.Context) (err error) {
		post, err = s.store.GetPost(ctx, pathID(r))
		return err
	}) {
		return
	}
	comments, err := s.store.ListComments(r.Context(), post.ID, 0, 500)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	post.Comments = comments
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	postID := pathID(r)
	if !s.lookup(w, r, "Post not found", func(ctx context.Context) error {
		_, err := s.store.GetPost(ctx, postID)
		return err
	}) {
		return
	}
	skip, limit := pageParams(r, defaultLimit)
	comments, err := s.store.ListComments(r.Context(), postID, skip, limit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	postID := pathID(r)
	if !s.lookup(w, r, "Post not found", func(ctx context.Context) error {
		_, err := s.store.GetPost(ctx, postID)
		return err
	}) {
		return
	}

	var in model.CommentInput
	if !decodeBody(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Content) == "" {
		writeValidation(w, "content", "Comment cannot be empty")
		return
	}

	now := model.NewTimestamp(s.now())
	comment := model.Comment{
		PostID:    postID,
		UserID:    user.ID,
		User:      model.UserRef{ID: user.ID, Username: user.Username},
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	id, err := s.store.CreateComment(r.Context(), &comment)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	comment.ID = id
	writeJSON(w, http.StatusOK, comment)
}

// ownComment loads the comment in the path and checks the caller may change
// it: its author, or an admin.
func (s *Server) ownComment(w http.ResponseWriter, r *http.Request, user model.User) (model.Comment, bool) {
	var comment model.Comment
	if !s.lookup(w, r, "Comment not found", func(ctx context.Context) (err error) {
		comment, err = s.store.GetComment(ctx, pathID(r))
		return err
	}) {
		return model.Comment{}, false
	}
	if comment.UserID != user.ID && user.Role != model.RoleAdmin {
		writeDetail(w, http.StatusForbidden, "Not authorized to modify this comment")
		return model.Comment{}, false
	}
	return comment, true
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	comment, ok := s.ownComment(w, r, user)
	if !ok {
		return
	}

	var in model.CommentInput
	if !decodeBody(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Content) == "" {
		writeValidation(w, "content", "Comment cannot be empty")
		return
	}

	if err := s.store.UpdateComment(r.Context(), comment.ID, in.Content, s.now()); err != nil {
		s.internalError(w, r, err)
		return
	}
	updated, err := s.store.GetComment(r.Context(), comment.ID)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	comment, ok := s.ownComment(w, r, user)
	if !ok {
		return
	}
	if err := s.store.DeleteComment(r.Context(), comment.ID); err != nil {
		s.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreatePostFeedback(w http.ResponseWriter, r *http.Request) {
	postID := pathID(r)
	s.createFeedback(w, r, &postID)
}

func (s *Server) handleCreateFeedback(w http.ResponseWriter, r *http.Request) {
	s.createFeedback(w, r, nil)
}

func (s *Server) createFeedback(w http.ResponseWriter, r *http.Request, postID *int64) {
	user, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if postID != nil && !s.lookup(w, r, "Post not found", func(ctx context.Context) error {
		_, err := s.store.GetPost(ctx, *postID)
		return err
	}) {
		return
	}

	var in model.FeedbackCreate
	if !decodeBody(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Message) == "" {
		writeValidation(w, "message", "Message is required")
		return
	}

	fb := model.Feedback{
		PostID:    postID,
		Anonymous: in.Anonymous,
		Message:   in.Message,
		CreatedAt: model.NewTimestamp(s.now()),
	}
	var author *int64
	if !in.Anonymous {
		author = &user.ID
	}
	id, err := s.store.CreateFeedback(r.Context(), &fb, author)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	fb.ID = id
	writeJSON(w, http.StatusOK, fb)
}

func (s *Server) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	skip, limit := pageParams(r, defaultLimit)
	out, err := s.store.ListFeedbackByPost(r.Context(), pathID(r), skip, limit)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetFeedback(w http.ResponseWriter, r *http.Request) {
	var fb model.Feedback
	if !s.lookup(w, r, "Feedback not found", func(ctx context.Context) (err error) {
		fb, err = s.store.GetFeedback(ctx, pathID(r))
		return err
	}) {
		return
	}
	writeJSON(w, http.StatusOK, fb)
}
