package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/otabek42/blogium/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostBySlug(ctx context.Context, postSlug string) (*models.Post, error)
	GetPostsByAuthorID(ctx context.Context, authorID uint, skip, limit int64) ([]models.Post, error)
	GetPostsByAuthorIDs(ctx context.Context, authorIDs []uint, skip, limit int64) ([]models.Post, error)
	GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, int64, error)
	UpdatePost(ctx context.Context, id string, post *models.Post) error
	SoftDeletePost(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	IncrementLikesCount(ctx context.Context, postID string) error
	DecrementLikesCount(ctx context.Context, postID string) error
	IncrementCommentsCount(ctx context.Context, postID string) error
	DecrementCommentsCount(ctx context.Context, postID string) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsureUniqueSlug appends a numeric suffix to base until taken reports false
func EnsureUniqueSlug(base string, taken func(string) (bool, error)) (string, error) {
	candidate := base
	for counter := 1; ; counter++ {
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
}

func (r *MongoPostRepository) slugTaken(ctx context.Context) func(string) (bool, error) {
	return func(candidate string) (bool, error) {
		count, err := r.collection.CountDocuments(ctx, bson.M{"slug": candidate})
		if err != nil {
			return false, err
		}
		return count > 0, nil
	}
}

// CreatePost creates a new post in MongoDB, deriving a unique slug from the title
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	uniqueSlug, err := EnsureUniqueSlug(slug.Make(post.Title), r.slugTaken(ctx))
	if err != nil {
		return fmt.Errorf("failed to derive slug: %w", err)
	}
	post.ID = primitive.NewObjectID()
	post.Slug = uniqueSlug
	post.CreatedAt = time.Now()
	post.UpdatedAt = time.Now()
	_, err = r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID format: %w", err)
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID, "is_deleted": false}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("post not found")
		}
		return nil, err
	}
	return &post, nil
}

// GetPostBySlug retrieves a post by its slug from MongoDB
func (r *MongoPostRepository) GetPostBySlug(ctx context.Context, postSlug string) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"slug": postSlug, "is_deleted": false}).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("post not found")
		}
		return nil, err
	}
	return &post, nil
}

// GetPostsByAuthorID retrieves posts by a specific author from MongoDB
func (r *MongoPostRepository) GetPostsByAuthorID(ctx context.Context, authorID uint, skip, limit int64) ([]models.Post, error) {
	return r.findPosts(ctx, bson.M{"author_id": authorID, "is_deleted": false}, skip, limit)
}

// GetPostsByAuthorIDs retrieves posts by any of the given authors, newest first
func (r *MongoPostRepository) GetPostsByAuthorIDs(ctx context.Context, authorIDs []uint, skip, limit int64) ([]models.Post, error) {
	if len(authorIDs) == 0 {
		return []models.Post{}, nil
	}
	return r.findPosts(ctx, bson.M{"author_id": bson.M{"$in": authorIDs}, "is_deleted": false}, skip, limit)
}

// GetAllPosts retrieves all non-deleted posts with the total count for pagination
func (r *MongoPostRepository) GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, int64, error) {
	filter := bson.M{"is_deleted": false}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	posts, err := r.findPosts(ctx, filter, skip, limit)
	return posts, total, err
}

func (r *MongoPostRepository) findPosts(ctx context.Context, filter bson.M, skip, limit int64) ([]models.Post, error) {
	var posts []models.Post
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePost updates an existing post in MongoDB
func (r *MongoPostRepository) UpdatePost(ctx context.Context, id string, post *models.Post) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid post ID format: %w", err)
	}

	post.UpdatedAt = time.Now()
	update := bson.M{"$set": bson.M{
		"title":      post.Title,
		"content":    post.Content,
		"updated_at": post.UpdatedAt,
	}}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	return err
}

// SoftDeletePost flags a post as deleted without removing the document
func (r *MongoPostRepository) SoftDeletePost(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid post ID format: %w", err)
	}

	now := time.Now()
	update := bson.M{"$set": bson.M{"is_deleted": true, "deleted_at": now}}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	return err
}

// IncrementViews bumps the view counter on a post
func (r *MongoPostRepository) IncrementViews(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid post ID format: %w", err)
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{"views": 1}})
	return err
}

// IncrementLikesCount increments the cached likes count on a post
func (r *MongoPostRepository) IncrementLikesCount(ctx context.Context, postID string) error {
	return r.incrementCounter(ctx, postID, "likes_count", 1)
}

// DecrementLikesCount decrements the cached likes count on a post
func (r *MongoPostRepository) DecrementLikesCount(ctx context.Context, postID string) error {
	return r.incrementCounter(ctx, postID, "likes_count", -1)
}

// IncrementCommentsCount increments the cached comments count on a post
func (r *MongoPostRepository) IncrementCommentsCount(ctx context.Context, postID string) error {
	return r.incrementCounter(ctx, postID, "comments_count", 1)
}

// DecrementCommentsCount decrements the cached comments count on a post
func (r *MongoPostRepository) DecrementCommentsCount(ctx context.Context, postID string) error {
	return r.incrementCounter(ctx, postID, "comments_count", -1)
}

func (r *MongoPostRepository) incrementCounter(ctx context.Context, postID, field string, delta int) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return fmt.Errorf("invalid post ID format: %w", err)
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{field: delta}})
	return err
}
