package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DustGalaxy/dZENcode-Test-Task/apperror"
	"github.com/DustGalaxy/dZENcode-Test-Task/blobstore"
	"github.com/DustGalaxy/dZENcode-Test-Task/cache"
	"github.com/DustGalaxy/dZENcode-Test-Task/config"
	"github.com/DustGalaxy/dZENcode-Test-Task/middleware"
	"github.com/DustGalaxy/dZENcode-Test-Task/models"
	"github.com/DustGalaxy/dZENcode-Test-Task/notify"
	"github.com/DustGalaxy/dZENcode-Test-Task/store"
	"github.com/DustGalaxy/dZENcode-Test-Task/utils"
)

// CommentController manages comment CRUD, the cached top-level list and
// attachment uploads.
type CommentController struct {
	store      store.CommentStore
	cache      cache.PreviewCache
	dispatcher *notify.Dispatcher
	blobs      blobstore.BlobStore
	logger     *zap.SugaredLogger
}

func NewCommentController(s store.CommentStore, c cache.PreviewCache, d *notify.Dispatcher, b blobstore.BlobStore, logger *zap.SugaredLogger) *CommentController {
	return &CommentController{store: s, cache: c, dispatcher: d, blobs: b, logger: logger}
}

type attachmentRequest struct {
	URL       string `json:"url"`
	MediaType string `json:"media_type"`
}

type createCommentRequest struct {
	Text        string              `json:"text" binding:"required"`
	ParentID    *uint               `json:"parent_id"`
	Attachments []attachmentRequest `json:"attachments"`
}

// ListComments returns all top-level comments, newest first, with authors and
// attachments. Read-through on the preview cache: a hit returns the cached
// payload verbatim without touching the store.
func (cc *CommentController) ListComments(ctx *gin.Context) {
	if b, ok := cc.cache.Get(ctx.Request.Context()); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	comments, err := cc.store.ListTopLevel(ctx.Request.Context())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list comments")
		return
	}

	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{"items": comments}}
	b, err := json.Marshal(wrapper)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to serialize comments")
		return
	}
	cc.cache.Set(ctx.Request.Context(), b, cache.DefaultPreviewTTL)
	ctx.Data(http.StatusOK, "application/json", b)
}

// PreviewComments returns the reduced top-level list (id, text, created_at).
func (cc *CommentController) PreviewComments(ctx *gin.Context) {
	comments, err := cc.store.ListTopLevel(ctx.Request.Context())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to list comments")
		return
	}
	previews := make([]models.CommentPreview, 0, len(comments))
	for i := range comments {
		previews = append(previews, comments[i].Preview())
	}
	utils.Success(ctx, gin.H{"items": previews})
}

// CreateComment creates a top-level comment or a reply. After the durable
// commit, a top-level creation invalidates the preview cache before the
// success response is written; a reply triggers the notification dispatcher
// exactly once. Replies never invalidate the preview cache: the preview list
// only shows top-level comments.
func (cc *CommentController) CreateComment(ctx *gin.Context) {
	var req createCommentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	text := utils.Sanitize(strings.TrimSpace(req.Text))
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "text cannot be empty")
		return
	}
	if len([]rune(text)) > models.MaxTextLen {
		utils.Error(ctx, http.StatusBadRequest, 40022, "text exceeds maximum length")
		return
	}

	attachments := make([]models.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		if strings.TrimSpace(a.URL) == "" {
			utils.Error(ctx, http.StatusBadRequest, 40023, "attachment url cannot be empty")
			return
		}
		if !models.ValidMediaType(a.MediaType) {
			utils.Error(ctx, http.StatusBadRequest, 40024, "invalid attachment media type")
			return
		}
		attachments = append(attachments, models.Attachment{URL: a.URL, MediaType: a.MediaType})
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	comment := models.Comment{
		UserID:      userID,
		Text:        text,
		ParentID:    req.ParentID,
		Attachments: attachments,
	}
	if err := cc.store.Create(ctx.Request.Context(), &comment); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "parent comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create comment")
		return
	}

	// Post-commit effects. The comment is durable at this point; nothing
	// below may fail the request.
	if comment.IsReply() {
		cc.dispatcher.ReplyCreated(ctx.Request.Context(), &comment)
	} else {
		cc.cache.Invalidate(ctx.Request.Context())
	}

	utils.Success(ctx, gin.H{"comment": comment})
}

// GetComment returns a comment with its author, attachments and nested replies.
func (cc *CommentController) GetComment(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	comment, err := cc.store.GetTree(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load comment")
		return
	}
	utils.Success(ctx, gin.H{"comment": comment})
}

// ListReplies returns the direct replies of a comment, newest first.
func (cc *CommentController) ListReplies(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	if _, err := cc.store.Get(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load comment")
		return
	}
	replies, err := cc.store.ListReplies(ctx.Request.Context(), id)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to list replies")
		return
	}
	utils.Success(ctx, gin.H{"items": replies})
}

// UpdateComment lets the author edit the comment text. The parent is
// immutable after creation.
func (cc *CommentController) UpdateComment(ctx *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40025, "invalid request payload")
		return
	}

	text := utils.Sanitize(strings.TrimSpace(req.Text))
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "text cannot be empty")
		return
	}
	if len([]rune(text)) > models.MaxTextLen {
		utils.Error(ctx, http.StatusBadRequest, 40022, "text exceeds maximum length")
		return
	}

	id, ok := parseID(ctx)
	if !ok {
		return
	}
	comment, err := cc.store.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load comment")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if comment.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only edit your own comments")
		return
	}

	if err := cc.store.UpdateText(ctx.Request.Context(), id, text); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to update comment")
		return
	}

	updated, err := cc.store.Get(ctx.Request.Context(), id)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load comment")
		return
	}
	utils.Success(ctx, gin.H{"comment": updated})
}

// DeleteComment removes a comment together with its whole reply subtree.
// Author or admin only.
func (cc *CommentController) DeleteComment(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	comment, err := cc.store.Get(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40402, "comment not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load comment")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if comment.UserID != userID && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40302, "you can only delete your own comments")
		return
	}

	if err := cc.store.Delete(ctx.Request.Context(), id); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to delete comment")
		return
	}
	if !comment.IsReply() {
		cc.cache.Invalidate(ctx.Request.Context())
	}
	utils.Success(ctx, gin.H{"message": "comment deleted"})
}

// UploadAttachment stores a blob and returns its URL and detected media type
// for use in a subsequent comment creation. Blob store failures surface as
// validation errors to the caller.
func (cc *CommentController) UploadAttachment(ctx *gin.Context) {
	if _, ok := getUserID(ctx); !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
		return
	}
	defer file.Close()

	maxSize := int64(config.Get().UploadMaxSizeMB) * 1024 * 1024
	if header.Size > 0 && header.Size > maxSize {
		utils.Error(ctx, http.StatusBadRequest, 40031, "file size exceeds limit")
		return
	}

	data, err := io.ReadAll(&io.LimitedReader{R: file, N: maxSize + 1})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to read file")
		return
	}
	if int64(len(data)) > maxSize {
		utils.Error(ctx, http.StatusBadRequest, 40031, "file size exceeds limit")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	url, err := cc.blobs.Upload(ctx.Request.Context(), data, contentType)
	if err != nil {
		cc.logger.Warnf("blob upload failed: %v", err)
		utils.Error(ctx, http.StatusBadRequest, 40032, "attachment rejected")
		return
	}

	mediaType := models.MediaTypeFile
	if strings.HasPrefix(contentType, "image/") {
		mediaType = models.MediaTypeImage
	}
	utils.Success(ctx, gin.H{"url": url, "media_type": mediaType})
}

func parseID(ctx *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(ctx.Param("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid comment id")
		return 0, false
	}
	return uint(id), true
}

func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		return uint(v), true
	case int64:
		return uint(v), true
	case float64:
		return uint(v), true
	default:
		return 0, false
	}
}

func isAdmin(ctx *gin.Context) bool {
	unameVal, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return false
	}
	uname, _ := unameVal.(string)
	if uname == "" {
		return false
	}
	for _, u := range config.Get().AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), uname) {
			return true
		}
	}
	return false
}
