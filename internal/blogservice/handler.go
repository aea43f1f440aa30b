package blogservice

import (
	"context"
	"database/sql"
	"time"

	"github.com/sushihentaime/blogicum/internal/common"
)

func NewBlogService(db *sql.DB, c *common.Cache) *BlogService {
	return &BlogService{m: newBlogModel(db), c: c, now: time.Now}
}

type CreatePostRequest struct {
	Title       string     `json:"title"`
	Text        string     `json:"text"`
	PubDate     *time.Time `json:"pub_date"`
	IsPublished bool       `json:"is_published"`
	ImageURL    *string    `json:"image_url"`
	CategoryID  *int       `json:"category_id"`
	LocationID  *int       `json:"location_id"`
	AuthorID    int        `json:"-"`
}

// CreatePost creates a new post. Authorship always comes from the acting
// user; it is never taken from the request body.
func (s *BlogService) CreatePost(ctx context.Context, req *CreatePostRequest) (*Post, error) {
	v := common.NewValidator()
	validateTitle(v, req.Title)
	validateText(v, req.Text)
	validatePubDate(v, req.PubDate)
	validateImageURL(v, req.ImageURL)
	validateInt(v, req.AuthorID, "author_id")
	if req.CategoryID != nil {
		validateInt(v, *req.CategoryID, "category_id")
	}
	if req.LocationID != nil {
		validateInt(v, *req.LocationID, "location_id")
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	post := &Post{
		Title:       req.Title,
		Text:        sanitizeText(req.Text),
		PubDate:     req.PubDate,
		IsPublished: req.IsPublished,
		ImageURL:    req.ImageURL,
		AuthorID:    req.AuthorID,
	}
	if req.CategoryID != nil {
		post.Category = &Category{ID: *req.CategoryID}
	}
	if req.LocationID != nil {
		post.Location = &Location{ID: *req.LocationID}
	}

	if err := s.m.insertPost(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// GetPost returns a post with its comments. Posts that are not visible to the
// viewer are reported as not found, indistinguishable from missing rows.
func (s *BlogService) GetPost(ctx context.Context, id, viewerID int) (*Post, error) {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	post, err := s.m.getPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if !Visible(post, viewerID, s.now()) {
		return nil, ErrRecordNotFound
	}

	comments, err := s.m.getComments(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	post.Comments = comments

	return post, nil
}

type UpdatePostRequest struct {
	ID          int        `json:"-"`
	Title       string     `json:"title"`
	Text        string     `json:"text"`
	PubDate     *time.Time `json:"pub_date"`
	IsPublished bool       `json:"is_published"`
	ImageURL    *string    `json:"image_url"`
	CategoryID  *int       `json:"category_id"`
	LocationID  *int       `json:"location_id"`
}

// UpdatePost updates a post. A missing post is ErrRecordNotFound; an actor
// other than the author gets ErrNotOwner and nothing is written.
func (s *BlogService) UpdatePost(ctx context.Context, req *UpdatePostRequest, actorID int) error {
	v := common.NewValidator()
	validateInt(v, req.ID, "id")
	validateTitle(v, req.Title)
	validateText(v, req.Text)
	validatePubDate(v, req.PubDate)
	validateImageURL(v, req.ImageURL)
	if !v.Valid() {
		return v.ValidationError()
	}

	authorID, err := s.m.getPostAuthor(ctx, req.ID)
	if err != nil {
		return err
	}

	if !CanModify(authorID, actorID) {
		return ErrNotOwner
	}

	post := &Post{
		ID:          req.ID,
		Title:       req.Title,
		Text:        sanitizeText(req.Text),
		PubDate:     req.PubDate,
		IsPublished: req.IsPublished,
		ImageURL:    req.ImageURL,
	}
	if req.CategoryID != nil {
		post.Category = &Category{ID: *req.CategoryID}
	}
	if req.LocationID != nil {
		post.Location = &Location{ID: *req.LocationID}
	}

	if err := s.m.updatePost(ctx, post); err != nil {
		return err
	}

	s.c.Delete(common.CacheKeyPost(req.ID))

	return nil
}

// DeletePost deletes a post and, through the schema, all of its comments.
func (s *BlogService) DeletePost(ctx context.Context, id, actorID int) error {
	v := common.NewValidator()
	validateInt(v, id, "id")
	if !v.Valid() {
		return v.ValidationError()
	}

	authorID, err := s.m.getPostAuthor(ctx, id)
	if err != nil {
		return err
	}

	if !CanModify(authorID, actorID) {
		return ErrNotOwner
	}

	if err := s.m.deletePost(ctx, id); err != nil {
		return err
	}

	s.c.Delete(common.CacheKeyPost(id))

	return nil
}

// AddComment attaches a comment to a post the actor can see.
func (s *BlogService) AddComment(ctx context.Context, postID, authorID int, text string) (*Comment, error) {
	v := common.NewValidator()
	validateInt(v, postID, "post_id")
	validateInt(v, authorID, "author_id")
	validateCommentText(v, text)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	post, err := s.m.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	if !Visible(post, authorID, s.now()) {
		return nil, ErrRecordNotFound
	}

	comment := &Comment{
		Text:     sanitizeText(text),
		PostID:   postID,
		AuthorID: authorID,
	}

	if err := s.m.insertComment(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// UpdateComment edits a comment. The comment must belong to the given post.
func (s *BlogService) UpdateComment(ctx context.Context, postID, commentID, actorID int, text string) error {
	v := common.NewValidator()
	validateInt(v, postID, "post_id")
	validateInt(v, commentID, "comment_id")
	validateCommentText(v, text)
	if !v.Valid() {
		return v.ValidationError()
	}

	comment, err := s.m.getComment(ctx, postID, commentID)
	if err != nil {
		return err
	}

	if !CanModify(comment.AuthorID, actorID) {
		return ErrNotOwner
	}

	return s.m.updateComment(ctx, postID, commentID, sanitizeText(text))
}

func (s *BlogService) DeleteComment(ctx context.Context, postID, commentID, actorID int) error {
	v := common.NewValidator()
	validateInt(v, postID, "post_id")
	validateInt(v, commentID, "comment_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	comment, err := s.m.getComment(ctx, postID, commentID)
	if err != nil {
		return err
	}

	if !CanModify(comment.AuthorID, actorID) {
		return ErrNotOwner
	}

	return s.m.deleteComment(ctx, postID, commentID)
}

// ListPosts returns one page of the global index: every post the viewer may
// see, newest first.
func (s *BlogService) ListPosts(ctx context.Context, viewerID, page int) (*PostList, error) {
	now := s.now()

	total, err := s.m.countVisiblePosts(ctx, viewerID, now)
	if err != nil {
		return nil, err
	}

	page = clampPage(page, total)

	posts, err := s.m.getVisiblePosts(ctx, viewerID, now, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, err
	}

	return &PostList{Posts: posts, Metadata: calculateMetadata(total, page)}, nil
}

// ListCategoryPosts returns one page of a category's posts. A missing or
// unpublished category is a not-found for everyone, authors included.
func (s *BlogService) ListCategoryPosts(ctx context.Context, slug string, viewerID, page int) (*Category, *PostList, error) {
	v := common.NewValidator()
	validateSlug(v, slug)
	if !v.Valid() {
		return nil, nil, v.ValidationError()
	}

	category, err := s.categoryBySlug(ctx, slug)
	if err != nil {
		return nil, nil, err
	}

	if !category.IsPublished {
		return nil, nil, ErrRecordNotFound
	}

	now := s.now()

	total, err := s.m.countCategoryPosts(ctx, viewerID, now, category.ID)
	if err != nil {
		return nil, nil, err
	}

	page = clampPage(page, total)

	posts, err := s.m.getCategoryPosts(ctx, viewerID, now, category.ID, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, nil, err
	}

	return category, &PostList{Posts: posts, Metadata: calculateMetadata(total, page)}, nil
}

// ListUserPosts returns one page of a user's posts. When the viewer is the
// author the visibility filter passes everything through, so owners see their
// drafts and scheduled posts on their own profile.
func (s *BlogService) ListUserPosts(ctx context.Context, authorID, viewerID, page int) (*PostList, error) {
	v := common.NewValidator()
	validateInt(v, authorID, "author_id")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	now := s.now()

	total, err := s.m.countUserPosts(ctx, viewerID, now, authorID)
	if err != nil {
		return nil, err
	}

	page = clampPage(page, total)

	posts, err := s.m.getUserPosts(ctx, viewerID, now, authorID, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, err
	}

	return &PostList{Posts: posts, Metadata: calculateMetadata(total, page)}, nil
}

// SearchPosts returns one page of visible posts whose title matches the query.
func (s *BlogService) SearchPosts(ctx context.Context, title string, viewerID, page int) (*PostList, error) {
	v := common.NewValidator()
	validateTitle(v, title)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	now := s.now()

	total, err := s.m.countPostsByTitle(ctx, viewerID, now, title)
	if err != nil {
		return nil, err
	}

	page = clampPage(page, total)

	posts, err := s.m.getPostsByTitle(ctx, viewerID, now, title, PageSize, (page-1)*PageSize)
	if err != nil {
		return nil, err
	}

	return &PostList{Posts: posts, Metadata: calculateMetadata(total, page)}, nil
}

// ListCategories returns the published categories for the post form.
func (s *BlogService) ListCategories(ctx context.Context) ([]Category, error) {
	return s.m.getCategories(ctx)
}

// categoryBySlug caches category rows; categories are administrator-managed
// reference data and change rarely.
func (s *BlogService) categoryBySlug(ctx context.Context, slug string) (*Category, error) {
	key := common.CacheKeyCategoryBySlug(slug)

	if cached, ok := s.c.Get(key); ok {
		if category, ok := cached.(*Category); ok {
			return category, nil
		}
	}

	category, err := s.m.getCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	s.c.Set(key, category)

	return category, nil
}
